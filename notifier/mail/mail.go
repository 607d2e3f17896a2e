package mail

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "mail"

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "searchbench: search endpoint regression"

// Notifier consist of all the sub components required to send E-mail notifications
type Notifier struct {
	// From contains the e-mail address notifications are sent from
	From string `json:"from"`

	// To contains a list of e-mail address destinations
	To []string `json:"to"`

	// Subject contains customizable subject line
	Subject string `json:"subject,omitempty"`

	// SMTP contains all relevant mail server settings
	SMTP struct {
		Server   string `json:"server"`
		Port     int    `json:"port,omitempty"`
		Username string `json:"username,omitempty"`
		Password string `json:"password,omitempty"`
	} `json:"smtp"`
}

// New creates a new Notifier instance based on json config
func New(config json.RawMessage) (Notifier, error) {
	var notifier Notifier
	err := json.Unmarshal(config, &notifier)
	// Fall back to port 25 if not defined
	if notifier.SMTP.Port == 0 {
		notifier.SMTP.Port = 25
	}
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

	dialer := gomail.NewDialer(m.SMTP.Server, m.SMTP.Port, m.SMTP.Username, m.SMTP.Password)
	sender, err := dial(dialer)
	if err != nil {
		return err
	}
	if err := gomail.Send(sender, m.message(issues)); err != nil {
		sender.Close()
		return err
	}
	return sender.Close()
}

// dial connects to the SMTP server, but may be replaced for mocking in tests.
var dial = func(d *gomail.Dialer) (gomail.SendCloser, error) {
	return d.Dial()
}

func (m Notifier) message(issues []types.Result) *gomail.Message {
	message := gomail.NewMessage()
	message.SetHeader("From", m.From)
	message.SetHeader("To", m.To...)
	message.SetHeader("Subject", m.Subject)
	message.SetBody("text/html", renderMessage(issues))
	return message
}

func renderMessage(issues []types.Result) string {
	body := []string{"<b>searchbench has detected the following issues:</b>", "<br/><br/>", "<ul>"}
	for _, issue := range issues {
		format := "<li>%s <a href=\"%s\">%s</a></li>"
		body = append(body, fmt.Sprintf(format,
			html.EscapeString(issue.Summary()), html.EscapeString(issue.Endpoint), html.EscapeString(issue.Endpoint)))
	}
	body = append(body, "</ul>")
	return strings.Join(body, "\n")
}
