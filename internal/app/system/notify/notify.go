// Package notify delivers recovery codes by email and SMS.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Email is one outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// SMS is one outgoing text message. To is in E.164 form.
type SMS struct {
	To   string
	Body string
}

// EmailSender sends email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Email) error
}

// SMSSender sends text messages.
type SMSSender interface {
	SendSMS(ctx context.Context, msg SMS) error
}

// Console writes messages to the log instead of delivering them. It serves
// development and tests.
type Console struct {
	Log *zap.Logger
}

func (c Console) SendEmail(_ context.Context, msg Email) error {
	c.Log.Info("email (console)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody))
	return nil
}

func (c Console) SendSMS(_ context.Context, msg SMS) error {
	c.Log.Info("sms (console)",
		zap.String("to", Mask(msg.To)),
		zap.String("body", msg.Body))
	return nil
}

// Mask hides all but the last four characters of s.
func Mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// E164 joins a dialing code such as "+57" and a local number into "+57...".
// A number that already starts with "+" is returned as is.
func E164(dialCode, number string) (string, error) {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "+") {
		return number, nil
	}
	code := strings.TrimPrefix(strings.TrimSpace(dialCode), "+")
	code = strings.ReplaceAll(code, "-", "")
	if code == "" || number == "" {
		return "", fmt.Errorf("cannot build phone number from %q and %q", dialCode, number)
	}
	return "+" + code + number, nil
}
