package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments that have a
// gateway token and asks the gateway for their real outcome. This covers the
// case where the webhook was lost or the process crashed mid-completion.
type PaymentReconciler struct {
	uc         usecase.PurchaseUseCase
	payments   repository.PaymentRepository
	gateway    adapter.PaymentGateway
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	uc usecase.PurchaseUseCase,
	payments repository.PaymentRepository,
	gateway adapter.PaymentGateway,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PaymentReconciler{
		uc:         uc,
		payments:   payments,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list pending failed")
		return
	}
	for _, p := range pending {
		if p.GatewayToken == "" {
			// never reached checkout; nothing to ask the gateway about
			continue
		}
		outcome, err := w.gateway.CheckPayment(ctx, p.GatewayToken)
		if err != nil {
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconciler: gateway check failed")
			continue
		}
		if !outcome.Success {
			// still unpaid at the gateway; leave it pending
			continue
		}
		if _, err := w.uc.Complete(ctx, usecase.SystemActor(p.UserID), usecase.CompleteRequest{
			PaymentID:            p.ID,
			GatewayTransactionID: outcome.GatewayTransactionID,
		}); err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Msg("reconciler: completion failed")
			continue
		}
		w.log.Info().Str("payment_id", p.ID).Msg("reconciler: payment completed from gateway state")
	}
}
