package searchbench

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sommelier/searchbench/notifier/mail"
	"github.com/sommelier/searchbench/notifier/mailgun"
	"github.com/sommelier/searchbench/notifier/pushover"
	"github.com/sommelier/searchbench/notifier/slack"
)

func notifierDecode(typeName string, config json.RawMessage) (Notifier, error) {
	switch typeName {
	case mail.Type:
		return mail.New(config)
	case slack.Type:
		return slack.New(config)
	case mailgun.Type:
		return mailgun.New(config)
	case pushover.Type:
		return pushover.New(config)
	default:
		return nil, errors.New(strings.Replace(errUnknownNotifierType, "%T", typeName, -1))
	}
}

func notifierType(n interface{}) (string, error) {
	switch n.(type) {
	case mail.Notifier, *mail.Notifier:
		return mail.Type, nil
	case slack.Notifier, *slack.Notifier:
		return slack.Type, nil
	case mailgun.Notifier, *mailgun.Notifier:
		return mailgun.Type, nil
	case pushover.Notifier, *pushover.Notifier:
		return pushover.Type, nil
	default:
		return "", fmt.Errorf(errUnknownNotifierType, n)
	}
}
