package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/lock"
	"github.com/diviso/diviso/internal/models"
)

// Outcome is what a webhook delivery did.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeAlreadyCompleted Outcome = "already_completed"
	OutcomeIgnored          Outcome = "ignored"
)

// Store is the persistence the processor needs.
type Store interface {
	GetPurchase(ctx context.Context, purchaseID string) (*models.CreditPurchase, error)
	CompletePurchase(ctx context.Context, purchaseID, paymentID string, at int64) (completed bool, err error)
}

// Notifier is told about completed purchases.
type Notifier interface {
	Send(ctx context.Context, userID string, typ models.NotificationType, fields map[string]interface{})
}

// Processor completes purchases from verified payments.
type Processor struct {
	store    Store
	gateway  Gateway
	locker   lock.Locker
	notifier Notifier
	logger   *slog.Logger
}

// NewProcessor creates a processor. notifier may be nil.
func NewProcessor(store Store, gateway Gateway, locker lock.Locker, notifier Notifier, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, gateway: gateway, locker: locker, notifier: notifier, logger: logger}
}

// HandlePayment re-reads paymentID from the gateway and, if it is paid,
// completes the purchase named in its metadata. Webhook bodies are never
// trusted for status or amount. Replays of a completed purchase succeed
// without granting credits twice.
func (p *Processor) HandlePayment(ctx context.Context, paymentID string) (Outcome, error) {
	payment, err := p.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if payment.Status != StatusPaid {
		p.logger.Info("ignoring unpaid payment", "payment_id", payment.ID, "status", payment.Status)
		return OutcomeIgnored, nil
	}

	purchaseID := payment.Metadata["purchase_id"]
	if purchaseID == "" {
		return "", apperr.InvalidArgument("payment %s has no purchase_id metadata", payment.ID)
	}

	var outcome Outcome
	var purchase *models.CreditPurchase
	err = p.locker.Do(ctx, "purchase:"+purchaseID, func(ctx context.Context) error {
		purchase, err = p.store.GetPurchase(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase.Status == models.PurchaseCompleted {
			outcome = OutcomeAlreadyCompleted
			return nil
		}
		if payment.Amount != purchase.AmountMinor || !strings.EqualFold(payment.Currency, purchase.Currency) {
			return apperr.InvalidArgument("payment %d %s does not match purchase %d %s",
				payment.Amount, payment.Currency, purchase.AmountMinor, purchase.Currency)
		}

		completed, err := p.store.CompletePurchase(ctx, purchaseID, payment.ID, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to complete purchase: %w", err)
		}
		outcome = OutcomeCompleted
		if !completed {
			outcome = OutcomeAlreadyCompleted
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if outcome == OutcomeCompleted {
		p.logger.Info("credit purchase completed", "purchase_id", purchaseID, "payment_id", payment.ID, "credits", purchase.Credits)
		if p.notifier != nil {
			p.notifier.Send(ctx, purchase.UserID, models.NotifyCreditsPurchased, map[string]interface{}{
				"purchase_id":  purchaseID,
				"package_code": purchase.PackageCode,
				"credits":      purchase.Credits,
			})
		}
	}
	return outcome, nil
}
