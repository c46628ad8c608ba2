package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	sessions Sessions
	catalog  catalog.Source
	timeout  time.Duration
	maxBody  int64
	log      logrus.FieldLogger
}

func NewCartHandler(sessions Sessions, source catalog.Source, timeout time.Duration, maxBody int64, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  source,
		timeout:  timeout,
		maxBody:  maxBody,
		log:      log,
	}
}

// CartResponse mirrors what the storefront pages read: total_cart is the
// number of entries, quantity the number of units.
type CartResponse struct {
	Items     []lineitem.Item `json:"items"`
	TotalCart int             `json:"total_cart"`
	Quantity  int             `json:"quantity"`
	Total     float64         `json:"total"`
}

type UpdateQuantityRequestDTO struct {
	Qty *int `json:"qty"`
}

func cartResponse(c *cart.Store) CartResponse {
	return CartResponse{
		Items:     c.Items(),
		TotalCart: c.Count(),
		Quantity:  c.Quantity(),
		Total:     c.Total(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var resp CartResponse
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		resp = cartResponse(s.Cart)
		return nil
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var raw lineitem.Raw
	if !decodeJSON(w, r, h.maxBody, &raw) {
		return
	}
	if !hasProductID(raw) {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	raw, err := resolveProduct(ctx, h.catalog, raw)
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	var res lineitem.Result
	err = h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		var err error
		res, err = s.Cart.Add(ctx, raw)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	status := http.StatusOK
	if res.Outcome == lineitem.Added {
		status = http.StatusCreated
	}
	respondResult(w, status, res)
}

// PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	if req.Qty == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "qty is required")
		return
	}

	var res lineitem.Result
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		var err error
		res, err = s.Cart.SetQuantity(ctx, chi.URLParam(r, "id"), *req.Qty)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondResult(w, http.StatusOK, res)
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var res lineitem.Result
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		var err error
		res, err = s.Cart.Remove(ctx, chi.URLParam(r, "id"))
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondResult(w, http.StatusOK, res)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var res lineitem.Result
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		var err error
		res, err = s.Cart.Clear(ctx)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondResult(w, http.StatusOK, res)
}

// POST /api/v1/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var snapshot cart.Snapshot
	err := h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		var err error
		snapshot, err = s.Checkout(ctx)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, snapshot)
}
