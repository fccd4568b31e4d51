package mail

import (
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/northriverboats/gear-inventory-check/internal/config"
)

// ErrNotify indicates the report email could not be delivered. Delivery is
// best-effort: callers log the failure and carry on rather than aborting a
// scheduled run over a flaky mail relay.
var ErrNotify = errors.New("notify failed")

// SplitAddress resolves a configured "from" string into its address and
// display name. Accepted forms:
//
//	example@example.com
//	<example@example.com>
//	Example <example@example.com>
//	Example<example@example.com>
//
// The display name is empty when the string carries none.
func SplitAddress(emailAddress string) (string, string) {
	before, after, found := strings.Cut(emailAddress, "<")
	if !found {
		return emailAddress, ""
	}
	return strings.TrimSuffix(after, ">"), strings.TrimSpace(before)
}

// Notifier delivers a formatted report by email.
type Notifier interface {
	Send(subject, htmlBody string) error
}

// Mailer is a net/smtp-backed Notifier.
type Mailer struct {
	cfg config.MailConfig
}

// New builds a Mailer from the mail configuration.
func New(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers an HTML-body message with the given subject. A transport
// failure is returned wrapped in ErrNotify; it never panics past this
// boundary.
func (m *Mailer) Send(subject, htmlBody string) error {
	fromAddr, fromName := SplitAddress(m.cfg.From)
	fromHeader := fromAddr
	if fromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, fromAddr)
	}

	toAddr, _ := SplitAddress(m.cfg.To)

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}

	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(m.cfg.SMTPPort))
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		fromHeader, toAddr, subject, htmlBody))

	if err := smtp.SendMail(addr, auth, fromAddr, []string{toAddr}, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrNotify, err)
	}
	return nil
}
