package pushover

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gregdel/pushover"

	"github.com/paneprobe/paneprobe/types"
)

const Type = "pushover"

type Notifier struct {
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`

	// Threshold is the minimum acceptable success rate, in percent,
	// of the run's best strategy.
	Threshold float64 `json:"threshold,omitempty"`
}

func New(config json.RawMessage) (Notifier, error) {
	var notifier Notifier
	err := json.Unmarshal(config, &notifier)
	if strings.TrimSpace(notifier.Subject) == "" {
		notifier.Subject = "Paneprobe: Degraded Delivery"
	}
	if notifier.Threshold == 0 {
		notifier.Threshold = 100
	}
	return notifier, err
}

func (Notifier) Type() string {
	return Type
}

func (p Notifier) Notify(report *types.RunReport) error {
	if report.Best != nil && report.Best.SuccessRate >= p.Threshold && !anyAborted(report) {
		return nil
	}

	app := pushover.New(p.Token)
	recipient := pushover.NewRecipient(p.Recipient)
	msg := pushover.NewMessageWithTitle(renderMessage(report), p.Subject)

	_, err := app.SendMessage(msg, recipient)
	return err
}

func renderMessage(report *types.RunReport) string {
	body := []string{
		fmt.Sprintf("Delivery degraded on session %s:", report.Session),
		fmt.Sprintf("%d/%d messages delivered (%.1f%%)",
			report.TotalDelivered, report.TotalAttempts, report.OverallSuccessRate),
	}
	if report.Best != nil {
		body = append(body, fmt.Sprintf("Best strategy: %s (%.1f%%)", report.Best.Strategy, report.Best.SuccessRate))
	}
	if report.Worst != nil {
		body = append(body, fmt.Sprintf("Worst strategy: %s (%.1f%%)", report.Worst.Strategy, report.Worst.SuccessRate))
	}
	for _, sc := range report.Scenarios {
		if sc.Aborted != "" {
			body = append(body, fmt.Sprintf("Scenario %s aborted: %s", sc.Name, sc.Aborted))
		}
	}
	return strings.Join(body, "\n")
}

func anyAborted(report *types.RunReport) bool {
	for _, sc := range report.Scenarios {
		if sc.Aborted != "" {
			return true
		}
	}
	return false
}
