// Package notify turns recorded aid events into beneficiary-facing messages:
// a QR code of the beneficiary's account id (what a vendor scans at
// redemption time) and an SMS carrying the amount and the QR link.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/messaging"
)

// Notifier consumes aid events and sends notifications. Notification is a
// side channel: it never feeds back into the accounting path.
type Notifier struct {
	subscriber messaging.Subscriber
	qr         *QRUploader
	sms        *SMSSender
}

// New creates a notifier
func New(subscriber messaging.Subscriber, qr *QRUploader, sms *SMSSender) *Notifier {
	return &Notifier{
		subscriber: subscriber,
		qr:         qr,
		sms:        sms,
	}
}

// Run consumes aid events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	return n.subscriber.SubscribeAidEvents(ctx, func(event *domain.AidEvent) error {
		return n.Handle(ctx, event)
	})
}

// Handle processes one aid event. Returning an error leaves the message
// unacknowledged for redelivery.
func (n *Notifier) Handle(ctx context.Context, event *domain.AidEvent) error {
	// A confirmed transfer with no off-chain record. Nothing to send the
	// beneficiary; surface it loudly for the operator instead.
	if event.RecoveryNeeded {
		logger.ErrorCtx(ctx, fmt.Errorf("off-chain record missing for confirmed transfer"),
			zap.String("tx_hash", event.TxHash),
			zap.String("type", string(event.Type)),
			zap.String("beneficiary_id", event.BeneficiaryID))
		return nil
	}

	if event.Phone == "" {
		logger.WarnCtx(ctx, "Aid event has no phone number, skipping notification",
			zap.String("tx_hash", event.TxHash))
		return nil
	}

	amt, err := amount.FromBaseString(event.Amount)
	if err != nil {
		// A redelivery cannot fix a malformed event.
		logger.ErrorCtx(ctx, err, zap.String("tx_hash", event.TxHash))
		return nil
	}

	switch event.Type {
	case domain.TransactionTypeMint:
		return n.notifyIssued(ctx, event, amt)
	case domain.TransactionTypeRedeem:
		return n.notifyRedeemed(ctx, event, amt)
	default:
		logger.WarnCtx(ctx, "Unknown aid event type", zap.String("type", string(event.Type)))
		return nil
	}
}

func (n *Notifier) notifyIssued(ctx context.Context, event *domain.AidEvent, amt amount.Amount) error {
	qrURL, err := n.qr.Upload(ctx, event.BeneficiaryID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Hello %s, you have received %s RC in aid. Show this code to a participating vendor to redeem: %s",
		event.Beneficiary, amt.Decimal(), qrURL)
	if err := n.sms.Send(ctx, event.Phone, body); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Sent issuance notification",
		zap.String("tx_hash", event.TxHash),
		zap.String("beneficiary_id", event.BeneficiaryID))

	return nil
}

func (n *Notifier) notifyRedeemed(ctx context.Context, event *domain.AidEvent, amt amount.Amount) error {
	body := fmt.Sprintf("Hello %s, you have redeemed %s RC with a vendor. Thank you.",
		event.Beneficiary, amt.Decimal())
	if err := n.sms.Send(ctx, event.Phone, body); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Sent redemption notification",
		zap.String("tx_hash", event.TxHash),
		zap.String("beneficiary_id", event.BeneficiaryID))

	return nil
}
