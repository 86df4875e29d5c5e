package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/forcedotcom/commerce-vercel/pkg/types"
)

type categoriesPayload struct {
	ProductCategories []struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	} `json:"productCategories"`
}

type searchPayload struct {
	ProductsPage *struct {
		Products []struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Fields map[string]struct {
				Value any `json:"value"`
			} `json:"fields"`
			DefaultImage *imagePayload `json:"defaultImage"`
		} `json:"products"`
	} `json:"productsPage"`
}

type imagePayload struct {
	URL           string `json:"url"`
	AlternateText string `json:"alternateText"`
}

type pricingPayload struct {
	CurrencyIsoCode        string `json:"currencyIsoCode"`
	PricingLineItemResults []struct {
		ProductID string `json:"productId"`
		ListPrice any    `json:"listPrice"`
		UnitPrice any    `json:"unitPrice"`
	} `json:"pricingLineItemResults"`
}

type productPayload struct {
	ID               string                         `json:"id"`
	Fields           map[string]any                 `json:"fields"`
	DefaultImage     *imagePayload                  `json:"defaultImage"`
	AttributeSetInfo map[string]attributeSetPayload `json:"attributeSetInfo"`
}

type attributeSetPayload struct {
	AttributeInfo map[string]struct {
		FieldEnumOrID string `json:"fieldEnumOrId"`
		Label         string `json:"label"`
		Options       []struct {
			Label string `json:"label"`
		} `json:"options"`
	} `json:"attributeInfo"`
}

// fieldString flattens the loosely typed values the platform puts in "fields".
func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func fieldInt(v any) int {
	n, err := strconv.Atoi(strings.TrimSpace(fieldString(v)))
	if err != nil {
		return 0
	}
	return n
}

func parentCategories(p categoriesPayload) []Category {
	seen := map[string]int{}
	out := make([]Category, 0, len(p.ProductCategories))
	for _, c := range p.ProductCategories {
		name := fieldString(c.Fields["Name"])
		if fieldString(c.Fields["IsNavigational"]) != "true" || c.ID == "" || name == "" {
			continue
		}
		cat := Category{
			ID:               c.ID,
			Name:             name,
			NumberOfProducts: fieldInt(c.Fields["NumberOfProducts"]),
			Path:             "search/" + c.ID,
		}
		if i, ok := seen[c.ID]; ok {
			out[i] = cat
			continue
		}
		seen[c.ID] = len(out)
		out = append(out, cat)
	}
	return out
}

func childCategories(p categoriesPayload, parent Category) []Category {
	seen := map[string]int{}
	out := make([]Category, 0, len(p.ProductCategories))
	for _, c := range p.ProductCategories {
		name := fieldString(c.Fields["Name"])
		if c.ID == "" || name == "" {
			continue
		}
		cat := Category{
			ID:                 c.ID,
			Name:               name,
			ParentCategoryID:   parent.ID,
			ParentCategoryName: parent.Name,
			NumberOfProducts:   fieldInt(c.Fields["NumberOfProducts"]),
			Path:               "search/" + c.ID,
		}
		if i, ok := seen[c.ID]; ok {
			out[i] = cat
			continue
		}
		seen[c.ID] = len(out)
		out = append(out, cat)
	}
	return out
}

func searchProducts(p searchPayload) []Product {
	if p.ProductsPage == nil {
		return nil
	}
	out := make([]Product, 0, len(p.ProductsPage.Products))
	for _, sp := range p.ProductsPage.Products {
		prod := Product{
			ID:               sp.ID,
			Handle:           sp.ID,
			Title:            sp.Name,
			Description:      fieldString(sp.Fields["Description"].Value),
			AvailableForSale: true,
			FeaturedImage:    image(sp.DefaultImage),
		}
		out = append(out, prod)
	}
	return out
}

func image(p *imagePayload) Image {
	if p == nil {
		return Image{}
	}
	return Image{URL: p.URL, AltText: p.AlternateText}
}

func priceRanges(p pricingPayload) map[string]types.PriceRange {
	out := make(map[string]types.PriceRange, len(p.PricingLineItemResults))
	for _, item := range p.PricingLineItemResults {
		out[item.ProductID] = types.PriceRange{
			MinVariantPrice: types.ParseMoney(fieldString(item.ListPrice), p.CurrencyIsoCode),
			MaxVariantPrice: types.ParseMoney(fieldString(item.UnitPrice), p.CurrencyIsoCode),
		}
	}
	return out
}

func productDetail(p productPayload, price types.PriceRange) Product {
	img := image(p.DefaultImage)
	prod := Product{
		ID:               p.ID,
		Handle:           p.ID,
		Title:            fieldString(p.Fields["Name"]),
		Description:      fieldString(p.Fields["Description"]),
		AvailableForSale: true,
		FeaturedImage:    img,
		Images:           []Image{img},
		Options:          productOptions(p.AttributeSetInfo),
		PriceRange:       &price,
	}
	if len(p.AttributeSetInfo) == 0 {
		prod.Variants = []Variant{{
			ID:               p.ID,
			Title:            prod.Title,
			AvailableForSale: true,
			SelectedOptions:  []SelectedOption{},
			Price:            price.MaxVariantPrice,
		}}
	}
	return prod
}

func productOptions(sets map[string]attributeSetPayload) []ProductOption {
	setKeys := make([]string, 0, len(sets))
	for k := range sets {
		setKeys = append(setKeys, k)
	}
	sort.Strings(setKeys)

	var out []ProductOption
	for _, sk := range setKeys {
		attrs := sets[sk].AttributeInfo
		attrKeys := make([]string, 0, len(attrs))
		for k := range attrs {
			attrKeys = append(attrKeys, k)
		}
		sort.Strings(attrKeys)
		for _, ak := range attrKeys {
			attr := attrs[ak]
			values := make([]string, 0, len(attr.Options))
			for _, o := range attr.Options {
				values = append(values, o.Label)
			}
			out = append(out, ProductOption{ID: attr.FieldEnumOrID, Name: attr.Label, Values: values})
		}
	}
	return out
}
