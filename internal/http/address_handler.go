package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/address"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// GeoLookup serves the country, state and city pickers of the address form.
type GeoLookup interface {
	Countries(ctx context.Context) ([]address.Country, error)
	States(ctx context.Context, country string) ([]address.State, error)
	Cities(ctx context.Context, country, state string) ([]address.City, error)
}

type AddressHandler struct {
	sessions Sessions
	geo      GeoLookup
	timeout  time.Duration
	maxBody  int64
	log      logrus.FieldLogger
}

func NewAddressHandler(sessions Sessions, geo GeoLookup, timeout time.Duration, maxBody int64, log logrus.FieldLogger) *AddressHandler {
	return &AddressHandler{
		sessions: sessions,
		geo:      geo,
		timeout:  timeout,
		maxBody:  maxBody,
		log:      log,
	}
}

type AddressesResponse struct {
	Addresses []address.Address `json:"addresses"`
}

type GeoResponse[T any] struct {
	Data []T `json:"data"`
}

func (h *AddressHandler) withLogin(ctx context.Context, r *http.Request, fn func(*storefront.Session) error) error {
	return h.sessions.With(ctx, getSessionID(r.Context()), func(s *storefront.Session) error {
		if err := requireLogin(ctx, s, r); err != nil {
			return err
		}
		return fn(s)
	})
}

func addressID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// GET /api/v1/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var list []address.Address
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		list = s.Addresses.List()
		return nil
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, AddressesResponse{Addresses: list})
}

// GET /api/v1/addresses/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := addressID(w, r)
	if !ok {
		return
	}
	var found *address.Address
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		found = s.Addresses.Get(id)
		return nil
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	if found == nil {
		respondError(w, http.StatusNotFound, "not_found", "address not found")
		return
	}
	respondJSON(w, http.StatusOK, found)
}

// POST /api/v1/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req address.Address
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	var created address.Address
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		var err error
		created, err = s.Addresses.Add(ctx, req)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// PUT /api/v1/addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := addressID(w, r)
	if !ok {
		return
	}
	var req address.Address
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	var updated address.Address
	var found bool
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		var err error
		updated, found, err = s.Addresses.Update(ctx, id, req)
		return err
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "address not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := addressID(w, r)
	if !ok {
		return
	}
	err := h.withLogin(ctx, r, func(s *storefront.Session) error {
		return s.Addresses.Delete(ctx, id)
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/geo/countries
func (h *AddressHandler) Countries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	countries, err := h.geo.Countries(ctx)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, GeoResponse[address.Country]{Data: countries})
}

// GET /api/v1/geo/countries/{country}/states
func (h *AddressHandler) States(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	states, err := h.geo.States(ctx, chi.URLParam(r, "country"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, GeoResponse[address.State]{Data: states})
}

// GET /api/v1/geo/countries/{country}/cities[?state=name]
func (h *AddressHandler) Cities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cities, err := h.geo.Cities(ctx, chi.URLParam(r, "country"), r.URL.Query().Get("state"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, GeoResponse[address.City]{Data: cities})
}
