package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/freelancehub/wallet-ledger/internal/models"
	"github.com/freelancehub/wallet-ledger/internal/service"
)

// OrderHandler exposes order creation, status transitions and reviews.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderBody struct {
	ServiceID    int64  `json:"service_id"`
	FreelancerID int64  `json:"freelancer_id"`
	PackagePrice int64  `json:"package_price"`
	ServiceFee   int64  `json:"service_fee"`
	Requirements string `json:"requirements"`
}

// Create handles POST /v1/orders. The caller becomes the order's client.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req createOrderBody
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.ServiceID <= 0 || req.FreelancerID <= 0 {
		RespondError(w, r, http.StatusBadRequest, "request/missing-fields", "service_id and freelancer_id are required")
		return
	}

	order, err := h.orders.Create(r.Context(), service.CreateOrderInput{
		ClientID:     actor.ID,
		FreelancerID: req.FreelancerID,
		ServiceID:    req.ServiceID,
		PackagePrice: req.PackagePrice,
		ServiceFee:   req.ServiceFee,
		Requirements: req.Requirements,
	})
	if err != nil {
		respondServiceError(w, r, err, "order/create-failed", "failed to create order")
		return
	}
	RespondJSON(w, http.StatusCreated, order)
}

// Get handles GET /v1/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, orderID, ok := h.target(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Get(r.Context(), actor, orderID)
	if err != nil {
		respondServiceError(w, r, err, "order/read-failed", "failed to load order")
		return
	}
	RespondJSON(w, http.StatusOK, order)
}

type orderAction func(ctx context.Context, actor service.Actor, orderID int64) (*models.Order, error)

// Transition adapts a body-less order action into a handler.
func (h *OrderHandler) Transition(action orderAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, ok := h.target(w, r)
		if !ok {
			return
		}
		order, err := action(r.Context(), actor, orderID)
		if err != nil {
			respondServiceError(w, r, err, "order/transition-failed", "failed to update order")
			return
		}
		RespondJSON(w, http.StatusOK, order)
	}
}

func (h *OrderHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.Transition(h.orders.Start)(w, r)
}

func (h *OrderHandler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	h.Transition(h.orders.SubmitForReview)(w, r)
}

func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.Transition(h.orders.Deliver)(w, r)
}

func (h *OrderHandler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	h.Transition(h.orders.RequestRevision)(w, r)
}

func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.Transition(h.orders.Complete)(w, r)
}

func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	h.Transition(h.orders.VerifyPayment)(w, r)
}

type reasonBody struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /v1/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.orders.Cancel)
}

// RejectPayment handles POST /v1/admin/orders/{id}/reject-payment.
func (h *OrderHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.orders.RejectPayment)
}

func (h *OrderHandler) withReason(w http.ResponseWriter, r *http.Request, action func(context.Context, service.Actor, int64, string) (*models.Order, error)) {
	actor, orderID, ok := h.target(w, r)
	if !ok {
		return
	}
	var req reasonBody
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	order, err := action(r.Context(), actor, orderID, req.Reason)
	if err != nil {
		respondServiceError(w, r, err, "order/transition-failed", "failed to update order")
		return
	}
	RespondJSON(w, http.StatusOK, order)
}

type reviewBody struct {
	Rating  int32  `json:"rating"`
	Comment string `json:"comment"`
}

// Review handles POST /v1/orders/{id}/review.
func (h *OrderHandler) Review(w http.ResponseWriter, r *http.Request) {
	actor, orderID, ok := h.target(w, r)
	if !ok {
		return
	}
	var req reviewBody
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	review, err := h.orders.SubmitReview(r.Context(), actor, orderID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(w, r, err, "review/create-failed", "failed to submit review")
		return
	}
	RespondJSON(w, http.StatusCreated, review)
}

// FreelancerStats handles GET /v1/freelancers/{id}/stats.
func (h *OrderHandler) FreelancerStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid user ID")
		return
	}
	stats, err := h.orders.FreelancerStats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "stats/read-failed", "failed to load freelancer stats")
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

func (h *OrderHandler) target(w http.ResponseWriter, r *http.Request) (service.Actor, int64, bool) {
	actor, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return service.Actor{}, 0, false
	}
	orderID, ok := pathID(r, "id")
	if !ok {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-id", "Invalid order ID")
		return service.Actor{}, 0, false
	}
	return actor, orderID, true
}
