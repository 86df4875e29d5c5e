package cart

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/forcedotcom/commerce-vercel/internal/session"
	"github.com/forcedotcom/commerce-vercel/pkg/commerce"
	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

const productLineType = "Product"

// Service exposes the current-cart operations for one browser session.
type Service interface {
	Create(ctx context.Context, jar *session.Jar) (*Cart, error)
	Get(ctx context.Context, jar *session.Jar) (*Cart, error)
	AddItem(ctx context.Context, jar *session.Jar, merchandiseID string, quantity int) (*Cart, error)
	UpdateItemQuantity(ctx context.Context, jar *session.Jar, merchandiseID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, jar *session.Jar, merchandiseID string) (*Cart, error)
}

type caller interface {
	Call(ctx context.Context, sess commerce.Session, method, endpoint string, body any) (*commerce.Response, error)
}

type service struct {
	client    caller
	endpoints commerce.Endpoints
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Client    caller
	Endpoints commerce.Endpoints
	Logger    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("commerce client is required")
	}
	return &service{client: params.Client, endpoints: params.Endpoints, logg: params.Logger}, nil
}

// Create opens the current cart on the platform and remembers its id.
func (s *service) Create(ctx context.Context, jar *session.Jar) (*Cart, error) {
	resp, err := s.client.Call(ctx, jar, http.MethodPut, s.endpoints.CurrentCart(), nil)
	if err != nil {
		return nil, err
	}
	var payload cartPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	cart := mapCart(payload)
	if cart.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart create returned no id")
	}
	jar.SetCartID(cart.ID)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "cart_id", cart.ID), "cart.created")
	}
	return cart, nil
}

// Get loads the cart summary and its items together. A session without a
// platform cart returns nil.
func (s *service) Get(ctx context.Context, jar *session.Jar) (*Cart, error) {
	var (
		summary cartPayload
		items   cartItemsPayload
		missing bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.client.Call(gctx, jar, http.MethodGet, s.endpoints.CurrentCart(), nil)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				missing = true
				return nil
			}
			return err
		}
		return resp.Decode(&summary)
	})
	g.Go(func() error {
		resp, err := s.client.Call(gctx, jar, http.MethodGet, s.endpoints.CartItems(), nil)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil
			}
			return err
		}
		return resp.Decode(&items)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if missing || summary.CartID == "" {
		return nil, nil
	}

	cart := mapCart(summary)
	for _, wrapper := range items.CartItems {
		cart.Lines = append(cart.Lines, mapCartItem(wrapper.CartItem))
	}
	return cart, nil
}

// AddItem adds quantity units of a product, creating the cart first when the
// browser has none.
func (s *service) AddItem(ctx context.Context, jar *session.Jar, merchandiseID string, quantity int) (*Cart, error) {
	merchandiseID = strings.TrimSpace(merchandiseID)
	if merchandiseID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchandise id is required")
	}
	if quantity <= 0 {
		quantity = 1
	}
	if jar.CartID() == "" {
		if _, err := s.Create(ctx, jar); err != nil {
			return nil, err
		}
	}
	body := addItemPayload{ProductID: merchandiseID, Quantity: quantity, Type: productLineType}
	if _, err := s.client.Call(ctx, jar, http.MethodPost, s.endpoints.CartItems(), body); err != nil {
		return nil, err
	}
	return s.Get(ctx, jar)
}

// UpdateItemQuantity removes the line at zero, updates an existing line, and
// adds the product when it is not in the cart yet.
func (s *service) UpdateItemQuantity(ctx context.Context, jar *session.Jar, merchandiseID string, quantity int) (*Cart, error) {
	merchandiseID = strings.TrimSpace(merchandiseID)
	if merchandiseID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchandise id is required")
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	cart, err := s.Get(ctx, jar)
	if err != nil {
		return nil, err
	}
	line := findLine(cart, merchandiseID)

	switch {
	case line != nil && quantity == 0:
		if _, err := s.client.Call(ctx, jar, http.MethodDelete, s.endpoints.CartItem(line.ID), nil); err != nil {
			return nil, err
		}
	case line != nil:
		if _, err := s.client.Call(ctx, jar, http.MethodPatch, s.endpoints.CartItem(line.ID), updateItemPayload{Quantity: quantity}); err != nil {
			return nil, err
		}
	case quantity > 0:
		return s.AddItem(ctx, jar, merchandiseID, quantity)
	default:
		return cart, nil
	}
	return s.Get(ctx, jar)
}

func (s *service) RemoveItem(ctx context.Context, jar *session.Jar, merchandiseID string) (*Cart, error) {
	cart, err := s.Get(ctx, jar)
	if err != nil {
		return nil, err
	}
	line := findLine(cart, strings.TrimSpace(merchandiseID))
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
	}
	if _, err := s.client.Call(ctx, jar, http.MethodDelete, s.endpoints.CartItem(line.ID), nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, jar)
}

func findLine(cart *Cart, merchandiseID string) *CartItem {
	if cart == nil {
		return nil
	}
	for i := range cart.Lines {
		if cart.Lines[i].Merchandise.ID == merchandiseID && cart.Lines[i].ID != "" {
			return &cart.Lines[i]
		}
	}
	return nil
}
