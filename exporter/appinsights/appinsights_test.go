package appinsights

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sommelier/searchbench/types"
)

const instrumentationKey = "11111111-1111-1111-1111-111111111111"

var results = []types.Result{
	{
		Title:     "Semantic (RAG)",
		Endpoint:  "http://localhost:4000/api/search/semantic",
		Timestamp: time.Now().UnixNano(),
		Healthy:   true,
		Times:     types.Samples{{RTT: 40 * time.Millisecond}, {RTT: 60 * time.Millisecond}},
	},
	{
		Title:    "Gemini (LLM)",
		Endpoint: "http://localhost:4000/api/search/llm",
		Down:     true,
		Notice:   "every request failed",
		Times:    types.Samples{{Error: "timeout"}},
	},
}

func TestNew(t *testing.T) {
	if _, err := New(json.RawMessage(`{}`)); err == nil {
		t.Error("Expected an error without an instrumentation key")
	}
	e, err := New(json.RawMessage(`{"instrumentation_key":"` + instrumentationKey + `"}`))
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := e.TestLocation, DefaultTestLocation; got != want {
		t.Errorf("Expected location '%s', got '%s'", want, got)
	}
}

func TestAvailability(t *testing.T) {
	e := Exporter{TestLocation: "test location"}

	a := e.availability(results[0])
	if got, want := a.Duration, 50*time.Millisecond; got != want {
		t.Errorf("Expected duration %v, got %v", want, got)
	}
	if !a.Success || a.Message != "Passed" || a.RunLocation != "test location" {
		t.Errorf("Unexpected telemetry: %+v", a)
	}
	if a.Id == "" {
		t.Error("Expected an id")
	}

	a = e.availability(results[1])
	if a.Duration != 0 || a.Success {
		t.Errorf("Expected a failed zero-duration item, got %+v", a)
	}
	if got, want := a.Message, "every request failed"; got != want {
		t.Errorf("Expected message '%s', got '%s'", want, got)
	}
	if got, want := a.Properties["failed"], "1"; got != want {
		t.Errorf("Expected failed=%s, got %s", want, got)
	}
}

func TestExport(t *testing.T) {
	var (
		mu    sync.Mutex
		names []string
		tags  []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			t.Errorf("gzip NewReader: %v", err)
			return
		}
		b, _ := ioutil.ReadAll(zr)
		for _, item := range bytes.Split(b, []byte("\n")) {
			if len(item) == 0 {
				continue
			}
			var msg struct {
				Data struct {
					BaseData struct {
						Name       string            `json:"name"`
						Properties map[string]string `json:"properties"`
					} `json:"baseData"`
				} `json:"data"`
			}
			if err := json.Unmarshal(item, &msg); err != nil {
				t.Errorf("Cannot decode telemetry: %v", err)
				continue
			}
			mu.Lock()
			names = append(names, msg.Data.BaseData.Name)
			tags = append(tags, msg.Data.BaseData.Properties["tag1"])
			mu.Unlock()
		}
	}))
	defer server.Close()

	e := Exporter{
		InstrumentationKey: instrumentationKey,
		TestLocation:       "test location",
		EndpointURL:        server.URL,
		Tags:               map[string]string{"tag1": "test tag"},
		Timeout:            time.Second,
	}
	if err := e.Export(results); err != nil {
		t.Fatalf("Expected no error from Export(), got: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(names) != 2 || names[0] != "Semantic (RAG)" || names[1] != "Gemini (LLM)" {
		t.Errorf("Expected one item per result, got %v", names)
	}
	for i, tag := range tags {
		if tag != "test tag" {
			t.Errorf("Item %d: expected common property tag1, got %q", i, tag)
		}
	}
}
