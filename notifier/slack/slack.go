package slack

import (
	"encoding/json"
	"fmt"
	"log"

	slack "github.com/ashwanthkumar/slack-go-webhook"

	"github.com/paneprobe/paneprobe/types"
)

// Type should match the package name
const Type = "slack"

// Notifier consist of all the sub components required to use the Slack API
type Notifier struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Channel  string `json:"channel"`
	Webhook  string `json:"webhook"`

	// Threshold is the minimum acceptable success rate, in percent,
	// of the run's best strategy. Runs at or above it stay quiet.
	Threshold float64 `json:"threshold,omitempty"`
}

// New creates a new Notifier instance based on json config
func New(config json.RawMessage) (Notifier, error) {
	var notifier Notifier
	err := json.Unmarshal(config, &notifier)
	if notifier.Threshold == 0 {
		notifier.Threshold = 100
	}
	return notifier, err
}

// Type returns the notifier package name
func (Notifier) Type() string {
	return Type
}

// Notify implements notifier interface
func (s Notifier) Notify(report *types.RunReport) error {
	if report.Best != nil && report.Best.SuccessRate >= s.Threshold && !anyAborted(report) {
		return nil
	}
	return s.Send(report)
}

// Send posts the degraded-run summary to the configured webhook.
func (s Notifier) Send(report *types.RunReport) error {
	color := "danger"
	attach := slack.Attachment{}
	attach.AddField(slack.Field{Title: "Session", Value: report.Session})
	attach.AddField(slack.Field{Title: "Delivered", Value: fmt.Sprintf("%d/%d", report.TotalDelivered, report.TotalAttempts)})
	if report.Best != nil {
		attach.AddField(slack.Field{Title: "Best strategy", Value: fmt.Sprintf("%s (%.1f%%)", report.Best.Strategy, report.Best.SuccessRate)})
	}
	if report.Worst != nil {
		attach.AddField(slack.Field{Title: "Worst strategy", Value: fmt.Sprintf("%s (%.1f%%)", report.Worst.Strategy, report.Worst.SuccessRate)})
	}
	for _, sc := range report.Scenarios {
		if sc.Aborted != "" {
			attach.AddField(slack.Field{Title: "Aborted scenario", Value: fmt.Sprintf("%s: %s", sc.Name, sc.Aborted)})
		}
	}
	attach.Color = &color
	payload := slack.Payload{
		Text:        fmt.Sprintf("Degraded delivery on session %s", report.Session),
		Username:    s.Username,
		Channel:     s.Channel,
		Attachments: []slack.Attachment{attach},
	}

	errs := slack.Send(s.Webhook, "", payload)
	if len(errs) > 0 {
		log.Printf("ERROR: %s", errs)
	}
	log.Printf("Sent degraded-run notice for session %s", report.Session)
	return nil
}

func anyAborted(report *types.RunReport) bool {
	for _, sc := range report.Scenarios {
		if sc.Aborted != "" {
			return true
		}
	}
	return false
}
