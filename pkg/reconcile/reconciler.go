// Package reconcile contains the single settlement funnel shared by the
// webhook handler and the status-poll handler. Every provider signal that
// could settle a deposit passes through AttemptSettlement, so the
// compare-and-swap guard in the storage layer can never be bypassed.
package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/notify"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
)

// Outcome describes what a settlement attempt did.
type Outcome string

const (
	// OutcomeCredited means this attempt won the terminal transition and the
	// account was credited.
	OutcomeCredited Outcome = "credited"
	// OutcomeAlreadySettled means the deposit was terminal before or during
	// the attempt; nothing was mutated.
	OutcomeAlreadySettled Outcome = "already_settled"
	// OutcomeProgress means confirmations are still accumulating.
	OutcomeProgress Outcome = "progress"
	// OutcomeFailed means the provider reported an error or expiry and the
	// deposit was moved to FAILED.
	OutcomeFailed Outcome = "failed"
)

// Settler is the interface handlers depend on, implemented by Reconciler.
type Settler interface {
	AttemptSettlement(ctx context.Context, dep *models.Deposit, status provider.PaymentStatus) (Outcome, error)
}

// Reconciler applies provider signals to deposit records.
type Reconciler struct {
	Store                 storage.CreditStore
	Publisher             notify.Publisher
	ConfirmationThreshold int32
	Logger                *slog.Logger
}

// New creates a Reconciler. A threshold below 1 is raised to 1.
func New(store storage.CreditStore, publisher notify.Publisher, confirmationThreshold int32, logger *slog.Logger) *Reconciler {
	if confirmationThreshold < 1 {
		confirmationThreshold = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		Store:                 store,
		Publisher:             publisher,
		ConfirmationThreshold: confirmationThreshold,
		Logger:                logger,
	}
}

// Make sure we conform to the interface
var _ Settler = (*Reconciler)(nil)

// AttemptSettlement reconciles one provider signal against a deposit.
// It is safe to call concurrently from the webhook and poll paths for the
// same deposit: the storage layer's conditional transition decides a single
// winner, and every other caller observes OutcomeAlreadySettled.
func (r *Reconciler) AttemptSettlement(ctx context.Context, dep *models.Deposit, status provider.PaymentStatus) (Outcome, error) {
	// Terminal records are immutable; log the late signal for audit and stop.
	if dep.Status.IsTerminal() {
		r.Logger.Info("ignoring provider signal for terminal deposit",
			"deposit_id", dep.Id, "status", dep.Status, "provider_status", status.Status)
		return OutcomeAlreadySettled, nil
	}

	// Provider gave up on the payment.
	if provider.IsFailure(status.Status) {
		if err := r.Store.FailDeposit(ctx, dep.Id); err != nil {
			if errors.Is(err, storage.ErrDepositTerminal) {
				r.Logger.Info("deposit reached a terminal state before failure could be recorded",
					"deposit_id", dep.Id)
				return OutcomeAlreadySettled, nil
			}
			return "", err
		}
		r.Logger.Info("deposit failed", "deposit_id", dep.Id, "provider_status", status.Status)
		return OutcomeFailed, nil
	}

	// Full settlement: take the terminal transition and credit exactly once.
	if provider.IsSettled(status.Status) && status.Confirmations >= r.ConfirmationThreshold {
		credited, err := r.Store.CompleteDeposit(ctx, dep, status.Confirmations, status.PaidAmount)
		if err != nil {
			return "", err
		}
		if !credited {
			// A concurrent webhook or poll won the transition.
			r.Logger.Info("deposit settled by a concurrent handler", "deposit_id", dep.Id)
			return OutcomeAlreadySettled, nil
		}

		r.Logger.Info("deposit credited",
			"deposit_id", dep.Id, "account_id", dep.AccountId,
			"amount_cents", dep.AmountCents, "paid_amount", status.PaidAmount)

		r.publishSettlement(ctx, dep)
		return OutcomeCredited, nil
	}

	// Partial confirmation: record progress only. Partial confirmations
	// never trigger a partial credit.
	if err := r.Store.UpdateDepositProgress(ctx, dep.Id, status.Confirmations, status.PaidAmount); err != nil {
		if errors.Is(err, storage.ErrDepositTerminal) {
			r.Logger.Info("deposit reached a terminal state before progress could be recorded",
				"deposit_id", dep.Id)
			return OutcomeAlreadySettled, nil
		}
		return "", err
	}

	return OutcomeProgress, nil
}

// publishSettlement emits the downstream settlement event. Publish failures
// never fail a committed settlement.
func (r *Reconciler) publishSettlement(ctx context.Context, dep *models.Deposit) {
	if r.Publisher == nil {
		return
	}

	event := &notify.SettlementEvent{
		DepositId:   dep.Id,
		AccountId:   dep.AccountId,
		UserId:      dep.UserId,
		AmountCents: dep.AmountCents,
		Currency:    dep.Currency,
	}
	if dep.CompletedAt != nil {
		event.CompletedAt = *dep.CompletedAt
	}

	if err := r.Publisher.PublishSettlement(ctx, event); err != nil {
		r.Logger.Error("CRITICAL: deposit credited but settlement event not published",
			"deposit_id", dep.Id, "error", err)
	}
}
