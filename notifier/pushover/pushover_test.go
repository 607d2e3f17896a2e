package pushover

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gregdel/pushover"

	"github.com/sommelier/searchbench/types"
)

func TestMessage(t *testing.T) {
	p := Notifier{Subject: DefaultSubject}
	degraded := types.Result{Title: "Gemini (LLM)", Degraded: true, Notice: "1 of 5 requests failed"}
	down := types.Result{Title: "Semantic (RAG)", Down: true, Notice: "every request failed"}

	msg := p.message([]types.Result{degraded})
	if got, want := msg.Title, DefaultSubject; got != want {
		t.Errorf("Expected title '%s', got '%s'", want, got)
	}
	if got, want := msg.Message, "searchbench has detected the following issues:\n\nGemini (LLM) - Status degraded (1 of 5 requests failed)"; got != want {
		t.Errorf("Expected message %q, got %q", want, got)
	}
	if msg.Priority != pushover.PriorityNormal {
		t.Errorf("Expected normal priority for a degraded endpoint, got %d", msg.Priority)
	}

	if msg := p.message([]types.Result{degraded, down}); msg.Priority != pushover.PriorityHigh {
		t.Errorf("Expected high priority when an endpoint is down, got %d", msg.Priority)
	}
}

func TestNotifyHealthy(t *testing.T) {
	if err := (Notifier{}).Notify([]types.Result{{Healthy: true}}); err != nil {
		t.Errorf("Expected no message for healthy results, got %v", err)
	}
}

const (
	appToken  = "azGDORePK8gMaC0QOYAMyEEuzJnyUi"
	userToken = "uQiRzpo4DXghDmr9QzzfQu27cmVRsG"
)

func pushoverServer(t *testing.T, reply string, form *url.Values) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages.json" {
			t.Errorf("Unexpected request to %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("Cannot parse form: %v", err)
		}
		*form = r.PostForm
		w.Header().Set("X-Limit-App-Limit", "7500")
		w.Header().Set("X-Limit-App-Remaining", "7499")
		w.Header().Set("X-Limit-App-Reset", "1393653600")
		w.Write([]byte(reply))
	}))
	orig := pushover.APIEndpoint
	pushover.APIEndpoint = srv.URL
	t.Cleanup(func() {
		pushover.APIEndpoint = orig
		srv.Close()
	})
}

func TestNotify(t *testing.T) {
	var form url.Values
	pushoverServer(t, `{"status":1,"request":"5042853c-402d-4a18-abcb-168734a801de"}`, &form)

	p := Notifier{Token: appToken, Recipient: userToken, Subject: DefaultSubject}
	results := []types.Result{
		{Title: "Semantic (RAG)", Healthy: true},
		{Title: "Gemini (LLM)", Down: true, Notice: "every request failed"},
	}
	if err := p.Notify(results); err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	if got := form.Get("token"); got != appToken {
		t.Errorf("Expected app token '%s', got '%s'", appToken, got)
	}
	if got := form.Get("user"); got != userToken {
		t.Errorf("Expected recipient '%s', got '%s'", userToken, got)
	}
	if got, want := form.Get("title"), DefaultSubject; got != want {
		t.Errorf("Expected title '%s', got '%s'", want, got)
	}
	if got, want := form.Get("priority"), "1"; got != want {
		t.Errorf("Expected priority %s for a down endpoint, got %s", want, got)
	}
	msg := form.Get("message")
	if !strings.Contains(msg, "Gemini (LLM) - Status down (every request failed)") {
		t.Errorf("Expected the message to name the down endpoint, got %q", msg)
	}
	if strings.Contains(msg, "Semantic (RAG)") {
		t.Errorf("Didn't expect the healthy endpoint in the message, got %q", msg)
	}
}

func TestNotifyRejected(t *testing.T) {
	var form url.Values
	pushoverServer(t, `{"status":0,"errors":["user identifier is invalid"]}`, &form)

	p := Notifier{Token: appToken, Recipient: userToken}
	err := p.Notify([]types.Result{{Title: "Gemini (LLM)", Degraded: true}})
	if err == nil || !strings.Contains(err.Error(), "user identifier is invalid") {
		t.Errorf("Expected the Pushover error, got %v", err)
	}
}
