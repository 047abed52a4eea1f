package mail

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/paneprobe/paneprobe/types"
)

// Type should match the package name
const Type = "mail"

// Notifier consist of all the sub components required to send E-mail notifications
type Notifier struct {
	// From contains the e-mail address notifications are sent from
	From string `json:"from"`

	// To contains a list of e-mail address destinations
	To []string `json:"to"`

	// Subject contains customizable subject line
	Subject string `json:"subject,omitempty"`

	// Threshold is the minimum acceptable success rate, in percent,
	// of the run's best strategy.
	Threshold float64 `json:"threshold,omitempty"`

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
		notifier.Subject = "Paneprobe: Degraded Delivery"
	}
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
func (m Notifier) Notify(report *types.RunReport) error {
	if report.Best != nil && report.Best.SuccessRate >= m.Threshold && !anyAborted(report) {
		return nil
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.From)
	message.SetHeader("To", m.To...)
	message.SetHeader("Subject", m.Subject)
	message.SetBody("text/html", renderMessage(report))

	dialer := gomail.NewDialer(m.SMTP.Server, m.SMTP.Port, m.SMTP.Username, m.SMTP.Password)
	return dialer.DialAndSend(message)
}

func renderMessage(report *types.RunReport) string {
	body := []string{
		fmt.Sprintf("<b>Delivery degraded on session %s:</b>", report.Session),
		"<br/><br/>",
		"<ul>",
		fmt.Sprintf("<li>%d/%d messages delivered (<b>%.1f%%</b>)</li>",
			report.TotalDelivered, report.TotalAttempts, report.OverallSuccessRate),
	}
	if report.Best != nil {
		body = append(body, fmt.Sprintf("<li>Best strategy: %s (<b>%.1f%%</b>)</li>",
			report.Best.Strategy, report.Best.SuccessRate))
	}
	if report.Worst != nil {
		body = append(body, fmt.Sprintf("<li>Worst strategy: %s (<b>%.1f%%</b>)</li>",
			report.Worst.Strategy, report.Worst.SuccessRate))
	}
	for _, sc := range report.Scenarios {
		if sc.Aborted != "" {
			body = append(body, fmt.Sprintf("<li>Scenario %s aborted: <b>%s</b></li>", sc.Name, sc.Aborted))
		}
	}
	body = append(body, "</ul>")
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
