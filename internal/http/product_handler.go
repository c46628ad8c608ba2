package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	defaultTopCategories = 4
	defaultRelated       = 4
)

type ProductHandler struct {
	source  catalog.Source
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewProductHandler(source catalog.Source, timeout time.Duration, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{
		source:  source,
		timeout: timeout,
		log:     log,
	}
}

type ProductsResponse struct {
	Products []lineitem.Raw `json:"products"`
}

type CategoriesResponse struct {
	Categories []catalog.Category `json:"categories"`
}

// GET /api/v1/products[?category=slug]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var products []lineitem.Raw
	var err error
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.source.ProductsByCategory(ctx, category)
	} else {
		products, err = h.source.Products(ctx)
	}
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: nonNil(products)})
}

// GET /api/v1/products/category/{name}
func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.source.ProductsByCategory(ctx, chi.URLParam(r, "name"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: nonNil(products)})
}

// GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.source.Product(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// GET /api/v1/products/{id}/related[?limit=n]
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.source.Product(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	related, err := catalog.Related(ctx, h.source, product, queryInt(r, "limit", defaultRelated))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: related})
}

// GET /api/v1/products/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.categories(w, r, 0)
}

// GET /api/v1/products/categories/top[?limit=n]
func (h *ProductHandler) TopCategories(w http.ResponseWriter, r *http.Request) {
	h.categories(w, r, queryInt(r, "limit", defaultTopCategories))
}

func (h *ProductHandler) categories(w http.ResponseWriter, r *http.Request, limit int) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names, err := h.source.Categories(ctx)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &CategoriesResponse{Categories: catalog.FormatCategories(names, limit)})
}

func nonNil(products []lineitem.Raw) []lineitem.Raw {
	if products == nil {
		return []lineitem.Raw{}
	}
	return products
}
