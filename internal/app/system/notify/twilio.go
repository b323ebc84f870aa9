package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const twilioURL = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"

var sidRe = regexp.MustCompile(`^AC[0-9a-fA-F]{32}$`)

// Twilio sends SMS through the Twilio Messages API.
type Twilio struct {
	url        string
	accountSID string
	authToken  string
	sender     string
	client     *http.Client
	log        *zap.Logger
}

// NewTwilio checks the credentials and returns a sender.
func NewTwilio(accountSID, authToken, sender string, logger *zap.Logger) (*Twilio, error) {
	if !sidRe.MatchString(accountSID) {
		return nil, errors.New("invalid twilio account SID")
	}
	if authToken == "" {
		return nil, errors.New("twilio auth token is required")
	}
	if sender == "" {
		return nil, errors.New("twilio sender is required")
	}
	return &Twilio{
		url:        fmt.Sprintf(twilioURL, accountSID),
		accountSID: accountSID,
		authToken:  authToken,
		sender:     sender,
		client:     &http.Client{},
		log:        logger,
	}, nil
}

func (t *Twilio) SendSMS(ctx context.Context, msg SMS) error {
	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", t.sender)
	form.Set("Body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		t.log.Error("twilio rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("to", Mask(msg.To)),
			zap.String("response", string(body)))
		return fmt.Errorf("twilio send: status %d", resp.StatusCode)
	}
	return nil
}
