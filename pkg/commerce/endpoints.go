package commerce

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/forcedotcom/commerce-vercel/pkg/config"
)

// Endpoints builds webstore URLs for one configured store.
type Endpoints struct {
	webruntime string
	webstore   string
}

func NewEndpoints(cfg config.CommerceConfig) Endpoints {
	return Endpoints{
		webruntime: cfg.WebruntimeURL(),
		webstore:   cfg.WebstoresURL() + "/" + url.PathEscape(cfg.WebstoreID),
	}
}

func (e Endpoints) SessionContext() string {
	return e.webstore + "/session-context"
}

func (e Endpoints) ParentCategories() string {
	return e.webstore + "/product-categories/children"
}

func (e Endpoints) ChildCategories(parentID string) string {
	return e.webstore + "/product-categories/children?parentProductCategoryId=" + url.QueryEscape(parentID)
}

func (e Endpoints) CategoryProducts(categoryID string, pageSize int) string {
	endpoint := e.webstore + "/search/products?categoryId=" + url.QueryEscape(categoryID)
	if pageSize > 0 {
		endpoint += "&pageSize=" + strconv.Itoa(pageSize)
	}
	return endpoint
}

func (e Endpoints) Pricing(productIDs []string) string {
	escaped := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		escaped = append(escaped, url.QueryEscape(id))
	}
	return e.webstore + "/pricing/products?productIds=" + strings.Join(escaped, ",")
}

func (e Endpoints) Product(productID string) string {
	return e.webstore + "/products/" + url.PathEscape(productID)
}

func (e Endpoints) CurrentCart() string {
	return e.webstore + "/carts/current"
}

func (e Endpoints) CartItems() string {
	return e.CurrentCart() + "/cart-items"
}

func (e Endpoints) CartItem(cartItemID string) string {
	return e.CartItems() + "/" + url.PathEscape(cartItemID)
}

func (e Endpoints) ApexExecute() string {
	return e.webruntime + "/api/apex/execute"
}

func (e Endpoints) CSRFToken(path string) string {
	return e.webruntime + "/" + strings.TrimLeft(path, "/")
}
