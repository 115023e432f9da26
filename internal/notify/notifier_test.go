package notify_test

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/mocks"
	"github.com/reliefcoin/reliefcoin-backend/internal/notify"
)

const (
	uploadURL = "https://img.example.com/upload"
	smsAPIURL = "https://sms.example.com"
	qrLink    = "https://img.example.com/i/abc.png"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newNotifier(http *mocks.MockHTTPClient) *notify.Notifier {
	qr := notify.NewQRUploader(http, uploadURL, "img-key", 256)
	sms := notify.NewSMSSender(http, smsAPIURL, "AC123", "token", "+15550000000")
	return notify.New(nil, qr, sms)
}

func issuedEvent() *domain.AidEvent {
	return &domain.AidEvent{
		Type:          domain.TransactionTypeMint,
		TxHash:        "0xabc",
		Amount:        amount.MustParse("50").BaseString(),
		BeneficiaryID: "b-1",
		Beneficiary:   "Amina",
		Phone:         "+15551112222",
	}
}

func TestHandle_IssuedSendsQRAndSMS(t *testing.T) {
	ctx := context.Background()
	httpClient := new(mocks.MockHTTPClient)

	httpClient.On("PostForm", ctx, uploadURL, mock.MatchedBy(func(h map[string]string) bool {
		return h["Content-Type"] == "image/png" && h["Authorization"] == "Bearer img-key"
	}), mock.Anything).Return([]byte(`{"url":"`+qrLink+`"}`), nil).Once()

	var smsBody string
	httpClient.On("PostForm", ctx, smsAPIURL+"/2010-04-01/Accounts/AC123/Messages.json",
		mock.MatchedBy(func(h map[string]string) bool {
			return strings.HasPrefix(h["Authorization"], "Basic ")
		}),
		mock.MatchedBy(func(r io.Reader) bool {
			raw, err := io.ReadAll(r)
			if err != nil {
				return false
			}
			form, err := url.ParseQuery(string(raw))
			if err != nil {
				return false
			}
			smsBody = form.Get("Body")
			return form.Get("To") == "+15551112222" && form.Get("From") == "+15550000000"
		})).Return([]byte(`{"sid":"SM1"}`), nil).Once()

	n := newNotifier(httpClient)
	require.NoError(t, n.Handle(ctx, issuedEvent()))

	assert.Contains(t, smsBody, "50 RC")
	assert.Contains(t, smsBody, qrLink)
	httpClient.AssertExpectations(t)
}

func TestHandle_RedeemedSendsReceiptOnly(t *testing.T) {
	ctx := context.Background()
	httpClient := new(mocks.MockHTTPClient)

	httpClient.On("PostForm", ctx, smsAPIURL+"/2010-04-01/Accounts/AC123/Messages.json",
		mock.Anything, mock.Anything).Return([]byte(`{"sid":"SM2"}`), nil).Once()

	event := issuedEvent()
	event.Type = domain.TransactionTypeRedeem
	event.VendorID = "v-1"

	n := newNotifier(httpClient)
	require.NoError(t, n.Handle(ctx, event))

	// No QR upload on redemption
	httpClient.AssertNumberOfCalls(t, "PostForm", 1)
}

// A recovery alert is operator-facing: it is logged and acknowledged, never
// sent to the beneficiary and never redelivered.
func TestHandle_RecoveryAlertIsAckedWithoutSending(t *testing.T) {
	ctx := context.Background()
	httpClient := new(mocks.MockHTTPClient)

	event := issuedEvent()
	event.RecoveryNeeded = true

	n := newNotifier(httpClient)
	require.NoError(t, n.Handle(ctx, event))

	httpClient.AssertNotCalled(t, "PostForm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_NoPhoneSkips(t *testing.T) {
	ctx := context.Background()
	httpClient := new(mocks.MockHTTPClient)

	event := issuedEvent()
	event.Phone = ""

	n := newNotifier(httpClient)
	require.NoError(t, n.Handle(ctx, event))

	httpClient.AssertNotCalled(t, "PostForm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A failed delivery propagates so the broker redelivers the event.
func TestHandle_DeliveryFailurePropagates(t *testing.T) {
	ctx := context.Background()
	httpClient := new(mocks.MockHTTPClient)

	httpClient.On("PostForm", ctx, uploadURL, mock.Anything, mock.Anything).
		Return(nil, errors.New("image host down"))

	n := newNotifier(httpClient)
	require.Error(t, n.Handle(ctx, issuedEvent()))
}
