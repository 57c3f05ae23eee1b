package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a validated product in the e-shop wire schema
type Product struct {
	SKU   string
	Title string
	Price decimal.Decimal
	Stock int
	Color string
}

type wireProduct struct {
	SKU   string      `json:"sku"`
	Title string      `json:"title"`
	Price json.Number `json:"price"`
	Stock int         `json:"stock"`
	Color string      `json:"color"`
}

// MarshalJSON encodes the product as {sku,title,price,stock,color} with price as a number
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireProduct{
		SKU:   p.SKU,
		Title: p.Title,
		Price: json.Number(p.Price.StringFixed(2)),
		Stock: p.Stock,
		Color: p.Color,
	})
}

// UnmarshalJSON decodes the wire schema
func (p *Product) UnmarshalJSON(data []byte) error {
	var w wireProduct
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	price, err := decimal.NewFromString(w.Price.String())
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", w.Price, err)
	}

	*p = Product{SKU: w.SKU, Title: w.Title, Price: price, Stock: w.Stock, Color: w.Color}
	return nil
}
