package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/infra/metrics"
	"course-marketplace/internal/usecase"
)

const maxWebhookBody = 64 << 10

// handleWebhook ingests the raw gateway callback. No authentication header is
// trusted; integrity rests entirely on the payload checksum. The gateway is
// always acknowledged with 200 once processing finishes, success or not, so
// it stops retrying; business failures travel via events and logs.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, reason := "ok", ""
	defer func() {
		metrics.WebhookRequests.WithLabelValues(result, reason).Inc()
		metrics.WebhookDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		result, reason = "fail", "bad_payload"
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	verified, outcome, err := s.gateway.VerifyWebhook(raw)
	if err != nil {
		result, reason = "fail", "bad_payload"
		s.log.Warn().Err(err).Msg("webhook payload unreadable")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	if !verified {
		// Acknowledge but do not act; no detail leaks to the caller.
		result, reason = "fail", "bad_checksum"
		s.log.Warn().Str("order_id", outcome.OrderID).Msg("webhook checksum mismatch, discarded")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	ctx := r.Context()
	if !outcome.Success {
		if _, err := s.purchaseUC.Fail(ctx, outcome.OrderID, outcome.GatewayTransactionID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				result, reason = "fail", "unknown_order"
			} else {
				result, reason = "fail", "fail_error"
			}
			s.log.Error().Err(err).Str("order_id", outcome.OrderID).Msg("webhook failure outcome not recorded")
		}
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	// Success outcome: complete as a system principal resolved from the
	// payment's own owner; idempotent on replayed deliveries.
	res, err := s.purchaseUC.Complete(ctx, usecase.SystemActor(""), usecase.CompleteRequest{
		PaymentID:            outcome.OrderID,
		GatewayToken:         outcome.Token,
		GatewayTransactionID: outcome.GatewayTransactionID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			result, reason = "fail", "unknown_order"
		} else {
			result, reason = "fail", "complete_error"
		}
		s.log.Error().Err(err).Str("order_id", outcome.OrderID).Msg("webhook completion failed")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	s.log.Info().
		Str("payment_id", res.Payment.ID).
		Str("gateway_ref", outcome.GatewayTransactionID).
		Msg("webhook processed")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
