package catalog

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	"github.com/forcedotcom/commerce-vercel/pkg/config"
	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/types"
)

// Service defines the catalog reads exposed to controllers.
type Service interface {
	Categories(ctx context.Context, sess commerce.Session) ([]Category, error)
	ProductsByCategory(ctx context.Context, sess commerce.Session, categoryID string, limit int) ([]Product, error)
	FeaturedProducts(ctx context.Context, sess commerce.Session) ([]Product, error)
	FeaturedFrom(ctx context.Context, sess commerce.Session, categories []Category) ([]Product, error)
	Product(ctx context.Context, sess commerce.Session, productID string) (*Product, error)
}

type caller interface {
	Call(ctx context.Context, sess commerce.Session, method, endpoint string, body any) (*commerce.Response, error)
}

type service struct {
	client    caller
	endpoints commerce.Endpoints
	cache     CategoryCache
	cfg       config.CatalogConfig
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	Client    caller
	Endpoints commerce.Endpoints
	Cache     CategoryCache
	Config    config.CatalogConfig
	Logger    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("commerce client is required")
	}
	if params.Cache == nil {
		params.Cache = NewMemoryCache()
	}
	if params.Config.CategoryCacheTTL <= 0 {
		params.Config.CategoryCacheTTL = 5 * time.Minute
	}
	if params.Config.FanOutConcurrency <= 0 {
		params.Config.FanOutConcurrency = 8
	}
	return &service{
		client:    params.Client,
		endpoints: params.Endpoints,
		cache:     params.Cache,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

// Categories returns navigational parents and their children sorted by name.
// A failing child branch is skipped; a failing parent fetch returns the error
// and is not cached.
func (s *service) Categories(ctx context.Context, sess commerce.Session) ([]Category, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}

	var parents categoriesPayload
	resp, err := s.client.Call(ctx, sess, http.MethodGet, s.endpoints.ParentCategories(), nil)
	if err != nil {
		return []Category{}, err
	}
	if err := resp.Decode(&parents); err != nil {
		return []Category{}, err
	}
	parentList := parentCategories(parents)

	children := make([][]Category, len(parentList))
	var (
		mu      sync.Mutex
		skipped error
	)
	var g errgroup.Group
	g.SetLimit(s.cfg.FanOutConcurrency)
	for i, parent := range parentList {
		i, parent := i, parent
		g.Go(func() error {
			var payload categoriesPayload
			resp, err := s.client.Call(ctx, sess, http.MethodGet, s.endpoints.ChildCategories(parent.ID), nil)
			if err == nil {
				err = resp.Decode(&payload)
			}
			if err != nil {
				mu.Lock()
				skipped = multierr.Append(skipped, fmt.Errorf("children of %s: %w", parent.ID, err))
				mu.Unlock()
				return nil
			}
			children[i] = childCategories(payload, parent)
			return nil
		})
	}
	_ = g.Wait()
	s.logSkipped(ctx, "catalog.categories.partial", skipped)

	all := append([]Category{}, parentList...)
	for _, c := range children {
		all = append(all, c...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})

	s.cache.Set(ctx, all, s.cfg.CategoryCacheTTL)
	return all, nil
}

// LimitedCategories takes categories in order while the running product count
// stays within maxProducts. The first category is always included.
func LimitedCategories(categories []Category, maxProducts int) []Category {
	var selected []Category
	total := 0
	for _, c := range categories {
		if len(selected) > 0 && total+c.NumberOfProducts > maxProducts {
			break
		}
		selected = append(selected, c)
		total += c.NumberOfProducts
	}
	return selected
}

func (s *service) ProductsByCategory(ctx context.Context, sess commerce.Session, categoryID string, limit int) ([]Product, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if limit <= 0 {
		limit = s.cfg.CategoryPageSize
	}
	return s.productsFor(ctx, sess, []string{categoryID}, limit)
}

// FeaturedProducts lists products from the leading categories whose product
// counts fit the featured budget.
func (s *service) FeaturedProducts(ctx context.Context, sess commerce.Session) ([]Product, error) {
	categories, err := s.Categories(ctx, sess)
	if err != nil {
		return []Product{}, err
	}
	return s.FeaturedFrom(ctx, sess, categories)
}

// FeaturedFrom selects featured products from an already fetched category list.
func (s *service) FeaturedFrom(ctx context.Context, sess commerce.Session, categories []Category) ([]Product, error) {
	limited := LimitedCategories(categories, s.cfg.FeaturedMaxItems)
	ids := make([]string, 0, len(limited))
	for _, c := range limited {
		ids = append(ids, c.ID)
	}
	return s.productsFor(ctx, sess, ids, s.cfg.CategoryPageSize)
}

func (s *service) productsFor(ctx context.Context, sess commerce.Session, categoryIDs []string, pageSize int) ([]Product, error) {
	branches := make([][]Product, len(categoryIDs))
	var (
		mu      sync.Mutex
		skipped error
	)
	var g errgroup.Group
	g.SetLimit(s.cfg.FanOutConcurrency)
	for i, id := range categoryIDs {
		i, id := i, id
		g.Go(func() error {
			var payload searchPayload
			resp, err := s.client.Call(ctx, sess, http.MethodGet, s.endpoints.CategoryProducts(id, pageSize), nil)
			if err == nil {
				err = resp.Decode(&payload)
			}
			if err != nil {
				mu.Lock()
				skipped = multierr.Append(skipped, fmt.Errorf("products of %s: %w", id, err))
				mu.Unlock()
				return nil
			}
			branches[i] = searchProducts(payload)
			return nil
		})
	}
	_ = g.Wait()
	s.logSkipped(ctx, "catalog.products.partial", skipped)

	products := []Product{}
	for _, b := range branches {
		products = append(products, b...)
	}
	if len(products) == 0 {
		if skipped != nil && len(multierr.Errors(skipped)) == len(categoryIDs) {
			return products, skipped
		}
		return products, nil
	}

	ids := make([]string, 0, len(products))
	seen := map[string]struct{}{}
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	prices, err := s.pricing(ctx, sess, ids)
	if err != nil {
		s.logSkipped(ctx, "catalog.pricing.failed", err)
	}
	for i := range products {
		if pr, ok := prices[products[i].ID]; ok {
			products[i].PriceRange = &pr
		}
	}
	return products, nil
}

func (s *service) pricing(ctx context.Context, sess commerce.Session, productIDs []string) (map[string]types.PriceRange, error) {
	if len(productIDs) == 0 {
		return map[string]types.PriceRange{}, nil
	}
	resp, err := s.client.Call(ctx, sess, http.MethodGet, s.endpoints.Pricing(productIDs), nil)
	if err != nil {
		return map[string]types.PriceRange{}, err
	}
	var payload pricingPayload
	if err := resp.Decode(&payload); err != nil {
		return map[string]types.PriceRange{}, err
	}
	return priceRanges(payload), nil
}

// Product fetches details and pricing concurrently. Missing pricing falls back
// to zero USD; a missing product is NOT_FOUND.
func (s *service) Product(ctx context.Context, sess commerce.Session, productID string) (*Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var (
		details productPayload
		prices  map[string]types.PriceRange
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.client.Call(gctx, sess, http.MethodGet, s.endpoints.Product(productID), nil)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
			}
			return err
		}
		return resp.Decode(&details)
	})
	g.Go(func() error {
		var err error
		prices, err = s.pricing(gctx, sess, []string{productID})
		if err != nil {
			s.logSkipped(ctx, "catalog.pricing.failed", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if details.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	price, ok := prices[productID]
	if !ok {
		zero := types.ParseMoney("0", types.DefaultCurrency)
		price = types.PriceRange{MinVariantPrice: zero, MaxVariantPrice: zero}
	}
	prod := productDetail(details, price)
	return &prod, nil
}

func (s *service) logSkipped(ctx context.Context, event string, err error) {
	if err == nil || s.logg == nil {
		return
	}
	logCtx := s.logg.WithField(ctx, "failures", len(multierr.Errors(err)))
	s.logg.Error(logCtx, event, err)
}
