package cart

import "github.com/forcedotcom/commerce-vercel/pkg/types"

type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	Cost          Cost       `json:"cost"`
	Lines         []CartItem `json:"lines"`
	TotalQuantity int        `json:"totalQuantity"`
}

type Cost struct {
	SubtotalAmount types.Money `json:"subtotalAmount"`
	TotalAmount    types.Money `json:"totalAmount"`
	TotalTaxAmount types.Money `json:"totalTaxAmount"`
}

type CartItem struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	TotalAmount types.Money `json:"totalAmount"`
	Merchandise Merchandise `json:"merchandise"`
}

type Merchandise struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
	Product         Product          `json:"product"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Product struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ImageURL     string `json:"imageUrl,omitempty"`
	ImageAltText string `json:"imageAltText,omitempty"`
}

// AddItemRequest adds a product to the current cart.
type AddItemRequest struct {
	MerchandiseID string `json:"merchandiseId" validate:"required,max=64"`
	Quantity      int    `json:"quantity" validate:"omitempty,min=1,max=999"`
}

// UpdateItemRequest sets a line's quantity; zero removes it.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=999"`
}
