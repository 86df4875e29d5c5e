package catalog

import "github.com/forcedotcom/commerce-vercel/pkg/types"

type Category struct {
	ID                 string `json:"categoryId"`
	Name               string `json:"categoryName"`
	ParentCategoryID   string `json:"parentCategoryId,omitempty"`
	ParentCategoryName string `json:"parentCategoryName,omitempty"`
	NumberOfProducts   int    `json:"numberOfProducts"`
	Path               string `json:"path"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
	Price            types.Money      `json:"price"`
}

type Product struct {
	ID               string            `json:"id"`
	Handle           string            `json:"handle"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	AvailableForSale bool              `json:"availableForSale"`
	FeaturedImage    Image             `json:"featuredImage"`
	Images           []Image           `json:"images,omitempty"`
	Options          []ProductOption   `json:"options,omitempty"`
	Variants         []Variant         `json:"variants,omitempty"`
	PriceRange       *types.PriceRange `json:"priceRange,omitempty"`
}
