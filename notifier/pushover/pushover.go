package pushover

import (
	"encoding/json"
	"strings"

	"github.com/gregdel/pushover"

	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "pushover"

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "searchbench: search endpoint regression"

// Notifier pushes a message about unhealthy endpoints to a
// Pushover user or group.
type Notifier struct {
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
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
func (p Notifier) Notify(results []types.Result) error {
	issues := types.Issues(results)
	if len(issues) == 0 {
		return nil
	}

	app := pushover.New(p.Token)
	recipient := pushover.NewRecipient(p.Recipient)
	_, err := app.SendMessage(p.message(issues), recipient)
	return err
}

func (p Notifier) message(issues []types.Result) *pushover.Message {
	msg := pushover.NewMessageWithTitle(renderMessage(issues), p.Subject)
	if types.WorstStatus(issues) == types.StatusDown {
		msg.Priority = pushover.PriorityHigh
	}
	return msg
}

func renderMessage(issues []types.Result) string {
	body := []string{"searchbench has detected the following issues:", ""}
	for _, issue := range issues {
		body = append(body, issue.Summary())
	}
	return strings.Join(body, "\n")
}
