package cart

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/forcedotcom/commerce-vercel/pkg/types"
)

type cartPayload struct {
	CartID            string     `json:"cartId"`
	CurrencyIsoCode   string     `json:"currencyIsoCode"`
	GrandTotalAmount  flexString `json:"grandTotalAmount"`
	TotalTaxAmount    flexString `json:"totalTaxAmount"`
	TotalProductCount flexString `json:"totalProductCount"`
}

type cartItemsPayload struct {
	CartItems []struct {
		CartItem cartItemPayload `json:"cartItem"`
	} `json:"cartItems"`
}

type cartItemPayload struct {
	CartItemID      string     `json:"cartItemId"`
	Quantity        flexString `json:"quantity"`
	TotalAmount     flexString `json:"totalAmount"`
	CurrencyIsoCode string     `json:"currencyIsoCode"`
	ProductID       string     `json:"productId"`
	Name            string     `json:"name"`
	ProductDetails  struct {
		ProductID      string `json:"productId"`
		Name           string `json:"name"`
		ThumbnailImage *struct {
			URL           string `json:"url"`
			AlternateText string `json:"alternateText"`
		} `json:"thumbnailImage"`
		VariationAttributes map[string]struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"variationAttributes"`
	} `json:"productDetails"`
}

type addItemPayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Type      string `json:"type"`
}

type updateItemPayload struct {
	Quantity int `json:"quantity"`
}

// flexString accepts the platform's amounts and counts as strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func toInt(raw flexString) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func mapCart(p cartPayload) *Cart {
	return &Cart{
		ID: p.CartID,
		Cost: Cost{
			SubtotalAmount: types.ParseMoney("0", p.CurrencyIsoCode),
			TotalAmount:    types.ParseMoney(string(p.GrandTotalAmount), p.CurrencyIsoCode),
			TotalTaxAmount: types.ParseMoney(string(p.TotalTaxAmount), p.CurrencyIsoCode),
		},
		Lines:         []CartItem{},
		TotalQuantity: toInt(p.TotalProductCount),
	}
}

func mapCartItem(p cartItemPayload) CartItem {
	keys := make([]string, 0, len(p.ProductDetails.VariationAttributes))
	for k := range p.ProductDetails.VariationAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	options := make([]SelectedOption, 0, len(keys))
	for _, k := range keys {
		attr := p.ProductDetails.VariationAttributes[k]
		options = append(options, SelectedOption{Name: attr.Label, Value: attr.Value})
	}

	product := Product{ID: p.ProductDetails.ProductID, Title: p.ProductDetails.Name}
	if img := p.ProductDetails.ThumbnailImage; img != nil {
		product.ImageURL = img.URL
		product.ImageAltText = img.AlternateText
	}

	return CartItem{
		ID:          p.CartItemID,
		Quantity:    toInt(p.Quantity),
		TotalAmount: types.ParseMoney(string(p.TotalAmount), p.CurrencyIsoCode),
		Merchandise: Merchandise{
			ID:              p.ProductID,
			Title:           p.Name,
			SelectedOptions: options,
			Product:         product,
		},
	}
}
