// Package notify emails appointment changes to the configured
// guardians.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"sfoweb-backend/lib/scrapers/sfoweb"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

type Notifier struct {
	config SmtpConfig
}

func NewNotifier(config SmtpConfig) Notifier {
	return Notifier{config: config}
}

func (n Notifier) Send(subject, body string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("SFOWeb <%s>", n.config.EmailAddress)
	mail.To = n.config.To
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server),
	)
	// some internal relays reject AUTH outright
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}

// Diff reports which records appeared in and disappeared from the
// schedule between two fetches. Records are compared by value, there
// is no stable identity to key on.
func Diff(previous, current []sfoweb.Appointment) (added, removed []sfoweb.Appointment) {
	prevSet := map[sfoweb.Appointment]bool{}
	for _, a := range previous {
		prevSet[a] = true
	}
	currSet := map[sfoweb.Appointment]bool{}
	for _, a := range current {
		currSet[a] = true
	}

	for _, a := range current {
		if !prevSet[a] {
			added = append(added, a)
		}
	}
	for _, a := range previous {
		if !currSet[a] {
			removed = append(removed, a)
		}
	}
	return added, removed
}

// FormatDiff renders a change set as the plain-text email body.
func FormatDiff(added, removed []sfoweb.Appointment) string {
	var sb strings.Builder

	if len(added) > 0 {
		sb.WriteString("New appointments:\n")
		for _, a := range added {
			fmt.Fprintf(&sb, "  - %s\n", a.FullDescription)
		}
	}
	if len(removed) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Removed appointments:\n")
		for _, a := range removed {
			fmt.Fprintf(&sb, "  - %s\n", a.FullDescription)
		}
	}

	return sb.String()
}
