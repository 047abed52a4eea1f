package paneprobe

import (
	"encoding/json"
	"fmt"

	"github.com/paneprobe/paneprobe/notifier/mail"
	"github.com/paneprobe/paneprobe/notifier/mailgun"
	"github.com/paneprobe/paneprobe/notifier/pushover"
	"github.com/paneprobe/paneprobe/notifier/slack"
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
		return nil, fmt.Errorf(errUnknownNotifierType, typeName)
	}
}
