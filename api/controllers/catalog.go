package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/forcedotcom/commerce-vercel/api/responses"
	"github.com/forcedotcom/commerce-vercel/api/validators"
	"github.com/forcedotcom/commerce-vercel/internal/catalog"
	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

const maxProductsLimit = 200

// requestSession falls back to an anonymous session so catalog reads work
// even on routes the gate does not cover.
func requestSession(ctx context.Context) commerce.Session {
	if jar, ok := session.FromContext(ctx); ok {
		return jar
	}
	return commerce.Anonymous
}

func degraded(ctx context.Context, logg *logger.Logger, event string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Warn(logg.WithField(ctx, "error", err.Error()), event)
}

// CatalogCategories lists navigational categories. Platform failures degrade to an empty list.
func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.Categories(r.Context(), requestSession(r.Context()))
		if err != nil {
			degraded(r.Context(), logg, "catalog.categories.degraded", err)
			categories = []catalog.Category{}
		}
		responses.WriteSuccess(w, categories)
	}
}

// CatalogProducts lists products of one category, or the featured selection when
// no category is given. Platform failures degrade to an empty list.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxProductsLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryRecordID(r, "category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess := requestSession(r.Context())
		var products []catalog.Product
		if categoryID == "" {
			products, err = svc.FeaturedProducts(r.Context(), sess)
		} else {
			products, err = svc.ProductsByCategory(r.Context(), sess, categoryID, limit)
		}
		if err != nil {
			degraded(r.Context(), logg, "catalog.products.degraded", err)
			products = []catalog.Product{}
		}
		responses.WriteSuccess(w, products)
	}
}

// CatalogFeatured lists products from the leading categories.
func CatalogFeatured(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.FeaturedProducts(r.Context(), requestSession(r.Context()))
		if err != nil {
			degraded(r.Context(), logg, "catalog.featured.degraded", err)
			products = []catalog.Product{}
		}
		responses.WriteSuccess(w, products)
	}
}

// CatalogProduct returns one product. Missing products are 404 and platform
// failures surface as 503.
func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if !validators.IsRecordID(productID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		product, err := svc.Product(r.Context(), requestSession(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
