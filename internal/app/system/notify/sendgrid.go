package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGrid delivers email through the SendGrid v3 API.
type SendGrid struct {
	key  string
	from *sgmail.Email
	host string
	log  *zap.Logger
}

func NewSendGrid(key, fromName, fromAddr string, logger *zap.Logger) *SendGrid {
	return &SendGrid{
		key:  key,
		from: sgmail.NewEmail(fromName, fromAddr),
		host: sendgridHost,
		log:  logger,
	}
}

func (s *SendGrid) message(msg Email) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}
	return m
}

// SendEmail posts msg. The SendGrid client call is not context-aware.
func (s *SendGrid) SendEmail(_ context.Context, msg Email) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.message(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.log.Error("sendgrid rejected message",
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body))
		return fmt.Errorf("sendgrid send: status %d", res.StatusCode)
	}
	return nil
}
