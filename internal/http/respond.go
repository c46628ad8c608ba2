package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/address"
	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/upstream"
	"github.com/fjod/go_cart/storefront/internal/wishlist"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// respondResult writes a collection mutation result, turning the non-error
// outcomes NotFound and AlreadyExists into 404 and 409.
func respondResult(w http.ResponseWriter, okStatus int, res lineitem.Result) {
	switch res.Outcome {
	case lineitem.NotFound:
		respondError(w, http.StatusNotFound, "not_found", res.Message)
	case lineitem.AlreadyExists:
		respondError(w, http.StatusConflict, "already_exists", res.Message)
	default:
		respondJSON(w, okStatus, res)
	}
}

// handleError converts domain and upstream errors to HTTP responses.
func handleError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var validation *auth.ValidationError
	var upErr *upstream.Error

	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "invalid_argument",
			Details: validation.Error(),
		})
	case errors.Is(err, address.ErrInvalid):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid address",
			Code:    "invalid_argument",
			Details: err.Error(),
		})
	case errors.Is(err, lineitem.ErrNoProductID):
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, auth.ErrNotLoggedIn), errors.Is(err, wishlist.ErrSignedOut):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, cart.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
	case errors.As(err, &upErr):
		handleUpstreamError(w, log, upErr)
	default:
		log.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func handleUpstreamError(w http.ResponseWriter, log logrus.FieldLogger, err *upstream.Error) {
	var httpStatus int
	var code string

	switch err.StatusCode {
	case http.StatusNotFound:
		httpStatus = http.StatusNotFound
		code = "not_found"
	case http.StatusServiceUnavailable:
		httpStatus = http.StatusServiceUnavailable
		code = "service_unavailable"
	case http.StatusGatewayTimeout:
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		httpStatus = http.StatusBadGateway
		code = "bad_gateway"
	}

	log.WithError(err).WithField("upstream", err.Upstream).Warn("upstream call failed")
	respondJSON(w, httpStatus, ErrorResponse{
		Error:   err.Upstream + " is unavailable",
		Code:    code,
		Details: err.Error(),
	})
}

// decodeJSON reads at most limit bytes of JSON from r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
