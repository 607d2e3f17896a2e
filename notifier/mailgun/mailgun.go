package mailgun

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	mailgun "github.com/mailgun/mailgun-go/v4"

	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "mailgun"

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "searchbench: search endpoint regression"

// Notifier sends a mail about unhealthy endpoints through Mailgun.
type Notifier struct {
	APIKey  string `json:"apikey"`
	Domain  string `json:"domain"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`

	// APIBase overrides the Mailgun API URL, for example
	// mailgun.APIBaseEU.
	APIBase string `json:"api_base,omitempty"`
}

// New creates a new Notifier instance based on json config
func New(config json.RawMessage) (Notifier, error) {
	var notifier Notifier
	err := json.Unmarshal(config, &notifier)
	if strings.TrimSpace(notifier.Subject) == "" {
		notifier.Subject = DefaultSubject
	}
	return notifier, err
}

// Type returns the notifier package name
func (Notifier) Type() string {
	return Type
}

// Notify implements notifier interface
func (m Notifier) Notify(results []types.Result) error {
	issues := types.Issues(results)
	if len(issues) == 0 {
		return nil
	}

	mg := mailgun.NewMailgun(m.Domain, m.APIKey)
	if m.APIBase != "" {
		mg.SetAPIBase(m.APIBase)
	}
	msg := mg.NewMessage(m.From, m.Subject, renderText(issues), m.To)
	msg.SetHtml(renderMessage(issues))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	_, _, err := mg.Send(ctx, msg)
	return err
}

func renderText(issues []types.Result) string {
	lines := []string{"searchbench has detected the following issues:", ""}
	for _, issue := range issues {
		lines = append(lines, fmt.Sprintf("%s\n  %s", issue.Summary(), issue.Endpoint))
	}
	return strings.Join(lines, "\n")
}

func renderMessage(issues []types.Result) string {
	body := []string{"<b>searchbench has detected the following issues:</b>", "<br/><br/>", "<ul>"}
	for _, issue := range issues {
		body = append(body, fmt.Sprintf("<li>%s</li>", html.EscapeString(issue.Summary())))
	}
	body = append(body, "</ul>")
	return strings.Join(body, "\n")
}
