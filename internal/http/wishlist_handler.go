package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type WishlistHandler struct {
	sessions Sessions
	catalog  catalog.Source
	timeout  time.Duration
	maxBody  int64
	log      logrus.FieldLogger
}

func NewWishlistHandler(sessions Sessions, source catalog.Source, timeout time.Duration, maxBody int64, log logrus.FieldLogger) *WishlistHandler {
	return &WishlistHandler{
		sessions: sessions,
		catalog:  source,
		timeout:  timeout,
		maxBody:  maxBody,
		log:      log,
	}
}

type WishlistResponse struct {
	Items []lineitem.Item `json:"items"`
	Count int             `json:"count"`
}

type ContainsResponse struct {
	ProductID  string `json:"product_id"`
	InWishlist bool   `json:"in_wishlist"`
}

// withLogin runs fn on the caller's session once the login has been checked.
func (h *WishlistHandler) withLogin(ctx context.Context, r *http.Request, fn func(*storefront.Session) error) error {
	return h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		if err := requireLogin(ctx, s, r); err != nil {
			return err
		}
		return fn(s)
	})
}

// GET /api/v1/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var resp WishlistResponse
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		resp = WishlistResponse{Items: s.Wishlist.Items(), Count: s.Wishlist.Count()}
		return nil
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
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
	err = h.withLogin(ctx, r, func(s *storefront.Session) error {
		var err error
		res, err = s.Wishlist.Add(ctx, raw)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondResult(w, http.StatusCreated, res)
}

// DELETE /api/v1/wishlist/items/{id}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var res lineitem.Result
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		var err error
		res, err = s.Wishlist.Remove(ctx, chi.URLParam(r, "id"))
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondResult(w, http.StatusOK, res)
}

// DELETE /api/v1/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var res lineitem.Result
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		var err error
		res, err = s.Wishlist.Clear(ctx)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondResult(w, http.StatusOK, res)
}

// GET /api/v1/wishlist/contains/{productID}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "productID")
	var found bool
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		found = s.Wishlist.Contains(productID)
		return nil
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ContainsResponse{ProductID: productID, InWishlist: found})
}
