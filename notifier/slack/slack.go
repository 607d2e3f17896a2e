package slack

import (
	"encoding/json"
	"strings"

	slack "github.com/ashwanthkumar/slack-go-webhook"
	"github.com/sirupsen/logrus"

	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "slack"

// Notifier posts a message to a Slack webhook for every
// endpoint that was not healthy during a run.
type Notifier struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Channel  string `json:"channel"`
	Webhook  string `json:"webhook"`
}

// New creates a new Notifier instance based on json config
func New(config json.RawMessage) (Notifier, error) {
	var notifier Notifier
	err := json.Unmarshal(config, &notifier)
	return notifier, err
}

// Type returns the notifier package name
func (Notifier) Type() string {
	return Type
}

// Notify implements notifier interface
func (s Notifier) Notify(results []types.Result) error {
	var errs types.Errors
	for _, result := range types.Issues(results) {
		if err := s.Send(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Err()
}

// Send posts one result to the webhook.
func (s Notifier) Send(result types.Result) error {
	errs := slack.Send(s.Webhook, "", s.payload(result))
	log := logrus.WithFields(logrus.Fields{"notifier": Type, "endpoint": result.Endpoint})
	if len(errs) > 0 {
		log.WithField("errors", len(errs)).Error("slack webhook failed")
		return types.Errors(errs).Err()
	}
	log.Debug("sent slack notification")
	return nil
}

func (s Notifier) payload(result types.Result) slack.Payload {
	color := "warning"
	if result.Down {
		color = "danger"
	}
	attach := slack.Attachment{}
	attach.AddField(slack.Field{Title: result.Title, Value: result.Endpoint})
	attach.AddField(slack.Field{Title: "Status", Value: strings.ToUpper(string(result.Status())), Short: true})
	if stats, err := result.ComputeStats(); err == nil {
		attach.AddField(slack.Field{Title: "Mean", Value: types.FormatSeconds(stats.Mean), Short: true})
	}
	if result.Notice != "" {
		attach.AddField(slack.Field{Title: "Notice", Value: result.Notice})
	}
	attach.Color = &color
	return slack.Payload{
		Text:        result.Summary(),
		Username:    s.Username,
		Channel:     s.Channel,
		Attachments: []slack.Attachment{attach},
	}
}
