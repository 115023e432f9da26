package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
)

// SMSSender delivers messages through a Twilio-compatible REST gateway.
type SMSSender struct {
	http       adapter.HTTPClient
	apiURL     string
	accountSID string
	authToken  string
	from       string
}

// NewSMSSender creates an SMS sender
func NewSMSSender(http adapter.HTTPClient, apiURL, accountSID, authToken, from string) *SMSSender {
	return &SMSSender{
		http:       http,
		apiURL:     apiURL,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

// Send delivers one message to the given phone number.
func (s *SMSSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.apiURL, s.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	auth := base64.StdEncoding.EncodeToString([]byte(s.accountSID + ":" + s.authToken))
	headers := map[string]string{
		"Content-Type":  "application/x-www-form-urlencoded",
		"Authorization": "Basic " + auth,
	}

	if _, err := s.http.PostForm(ctx, endpoint, headers, strings.NewReader(form.Encode())); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	return nil
}
