// Package mail sends transactional email (OTP codes, imported credentials, allocation notices).
package mail

import (
	"context"
	"net/mail"
	"strings"
)

// Message is a rendered email addressed to a single recipient.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MaskAddress hides the local part of an email after its first two characters,
// e.g. "ab***@domain.com". Local parts of two characters or fewer keep at most one.
func MaskAddress(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	switch {
	case at < 0:
		return "***"
	case at <= 2:
		return addr[:min(at, 1)] + "***" + addr[at:]
	}
	return addr[:2] + "***" + addr[at:]
}
