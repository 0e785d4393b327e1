package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/redis"
	"course-marketplace/internal/usecase"
)

// ===== DTOs =====

type initiateRequest struct {
	CourseID      string `json:"courseId,omitempty"`
	PlanID        string `json:"planId,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

type paymentResponse struct {
	PaymentID   string `json:"paymentId"`
	Title       string `json:"title"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	Token       string `json:"token,omitempty"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		PaymentID:   p.ID,
		Title:       p.Title,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      string(p.Status),
		CheckoutURL: p.CheckoutURL,
		Token:       p.GatewayToken,
	}
}

type checkoutRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type completeRequest struct {
	PaymentID            string `json:"paymentId"`
	GatewayTransactionID string `json:"gatewayTransactionId"`
	GatewayName          string `json:"gatewayName"`
}

type transactionResponse struct {
	ID                   string  `json:"id"`
	PaymentID            string  `json:"paymentId"`
	Amount               int64   `json:"amount"`
	Currency             string  `json:"currency"`
	Status               string  `json:"status"`
	GatewayTransactionID string  `json:"gatewayTransactionId"`
	GatewayName          string  `json:"gatewayName"`
	RefundOfID           *string `json:"refundOfId,omitempty"`
}

func toTransactionResponse(t *model.Transaction) *transactionResponse {
	if t == nil {
		return nil
	}
	return &transactionResponse{
		ID:                   t.ID,
		PaymentID:            t.PaymentID,
		Amount:               t.Amount,
		Currency:             t.Currency,
		Status:               string(t.Status),
		GatewayTransactionID: t.GatewayTransactionID,
		GatewayName:          t.GatewayName,
		RefundOfID:           t.RefundOfID,
	}
}

type enrollmentResponse struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

func toEnrollmentResponse(e *model.Enrollment) *enrollmentResponse {
	if e == nil {
		return nil
	}
	return &enrollmentResponse{ID: e.ID, CourseID: e.CourseID, EnrolledAt: e.EnrolledAt}
}

type refundRequest struct {
	TransactionID string `json:"transactionId"`
	Reason        string `json:"reason"`
}

// ===== helpers =====

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the domain error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSONError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrAlreadyRefunded),
		errors.Is(err, domain.ErrPaymentNotPending),
		errors.Is(err, domain.ErrPaymentNotComplete):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrGatewayUnavailable):
		writeJSONError(w, http.StatusBadGateway, "payment gateway unavailable, retry later")
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// ===== handlers =====

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.purchaseUC.Initiate(r.Context(), claims.UserID, usecase.InitiateRequest{
		CourseID:      req.CourseID,
		PlanID:        req.PlanID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	paymentID := chi.URLParam(r, "paymentID")

	if s.limiter != nil {
		ok, err := s.limiter.Allow(r.Context(), redis.CheckoutKey(claims.UserID), s.checkoutLimit, time.Minute)
		if err != nil {
			s.log.Warn().Err(err).Msg("checkout rate limit check failed")
		} else if !ok {
			writeJSONError(w, http.StatusTooManyRequests, "too many checkout attempts")
			return
		}
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.purchaseUC.Checkout(r.Context(), claims.UserID, paymentID, adapter.CustomerInfo{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"checkoutUrl": p.CheckoutURL,
		"token":       p.GatewayToken,
	})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.purchaseUC.Complete(r.Context(), usecase.Actor{UserID: claims.UserID, IsAdmin: claims.IsAdmin()}, usecase.CompleteRequest{
		PaymentID:            req.PaymentID,
		GatewayTransactionID: req.GatewayTransactionID,
		GatewayName:          req.GatewayName,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payment":             toPaymentResponse(res.Payment),
		"transaction":         toTransactionResponse(res.Transaction),
		"enrollment":          toEnrollmentResponse(res.Enrollment),
		"subscriptionUpdated": res.SubscriptionUpdated,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	paymentID := chi.URLParam(r, "paymentID")

	res, err := s.purchaseUC.Status(r.Context(), claims.UserID, paymentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payment":     toPaymentResponse(res.Payment),
		"transaction": toTransactionResponse(res.Transaction),
		"enrollment":  toEnrollmentResponse(res.Enrollment),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := s.purchaseUC.History(r.Context(), claims.UserID, offset, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]*transactionResponse, 0, len(entries))
	for _, t := range entries {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": out})
}

type planResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DurationDays int    `json:"durationDays"`
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.purchaseUC.ListPlans(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{ID: p.ID, Name: p.Name, DurationDays: p.DurationDays, Price: p.Price, Currency: p.Currency})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": out})
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}

	total, err := s.purchaseUC.Revenue(r.Context(), usecase.Actor{UserID: claims.UserID, IsAdmin: claims.IsAdmin()}, period)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"period": period, "total": total})
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refund, err := s.purchaseUC.Refund(r.Context(), usecase.Actor{UserID: claims.UserID, IsAdmin: claims.IsAdmin()}, req.TransactionID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction": toTransactionResponse(refund),
	})
}
