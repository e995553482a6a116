package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/retail-backend/internal/order"
)

type OrderHandler struct {
	workflow *order.Workflow
}

func NewOrderHandler(workflow *order.Workflow) *OrderHandler {
	return &OrderHandler{workflow: workflow}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var in struct {
		ShippingAddress string `json:"shippingAddress"`
		PaymentMethod   string `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.workflow.PlaceOrder(r.Context(), p.UserID, in.ShippingAddress, in.PaymentMethod)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"orderId":     o.ID,
		"totalAmount": o.TotalAmount,
		"status":      o.Status,
		"items":       o.Items,
	})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	o, err := h.workflow.GetOrder(r.Context(), p.UserID, chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	orders, err := h.workflow.ListOrders(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmptyOrders(orders))
}

// UpdateStatus is admin-only and deliberately skips the ownership
// check: status management is cross-user.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID := chi.URLParam(r, "orderId")
	status, err := order.ParseStatus(in.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.workflow.UpdateStatus(r.Context(), orderID, status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"orderId":   orderID,
		"newStatus": string(status),
	})
}

func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.workflow.ListAllOrders(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmptyOrders(orders))
}

func (h *OrderHandler) AdminListByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := order.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	orders, err := h.workflow.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmptyOrders(orders))
}

func orEmptyOrders(orders []order.Order) []order.Order {
	if orders == nil {
		return []order.Order{}
	}
	return orders
}
