package catalog

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	// DefaultColor is used when a record has no color attribute
	DefaultColor = "N/A"

	colorAttribute = "color"
)

// DefaultVATRate is the tax rate applied to pre-tax prices
var DefaultVATRate = decimal.RequireFromString("0.21")

// Transformer validates raw records and converts them to products
type Transformer struct {
	vatRate      decimal.Decimal
	defaultColor string
}

// TransformerOption configures a Transformer
type TransformerOption func(*Transformer)

// WithVATRate overrides the tax rate
func WithVATRate(rate decimal.Decimal) TransformerOption {
	return func(t *Transformer) {
		t.vatRate = rate
	}
}

// WithDefaultColor overrides the color used when none is set
func WithDefaultColor(color string) TransformerOption {
	return func(t *Transformer) {
		if color != "" {
			t.defaultColor = color
		}
	}
}

// NewTransformer creates a Transformer with a 0.21 VAT rate and "N/A" as default color
func NewTransformer(opts ...TransformerOption) *Transformer {
	t := &Transformer{
		vatRate:      DefaultVATRate,
		defaultColor: DefaultColor,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Normalize converts a record into a product. It returns nil when the
// record has no usable price; the returned diagnostics explain why.
func (t *Transformer) Normalize(r RawRecord) (*Product, []Diagnostic) {
	var diags []Diagnostic

	price := gjson.Parse(r.Price)
	switch {
	case r.Price == "" || price.Type == gjson.Null:
		return nil, append(diags, newDiagnostic(KindValidationSkip, r.ID, "price is missing"))
	case price.Type != gjson.Number:
		return nil, append(diags, newDiagnostic(KindValidationSkip, r.ID, "price is not a number: %s", r.Price))
	}

	excl, err := decimal.NewFromString(price.Raw)
	if err != nil {
		excl = decimal.NewFromFloat(price.Float())
	}
	if excl.IsNegative() {
		return nil, append(diags, newDiagnostic(KindValidationSkip, r.ID, "negative price: %s", excl))
	}

	stock := 0
	for _, q := range r.Stocks {
		n, err := parseQuantity(q.Raw)
		switch {
		case errors.Is(err, errQuantityOverflow):
			diags = append(diags, newDiagnostic(KindCoercionDefault, r.ID,
				"stock value %s at %q is out of range, treating as 0", q.Raw, q.Location))
			continue
		case err != nil:
			diags = append(diags, newDiagnostic(KindCoercionDefault, r.ID,
				"non-numeric stock value %s at %q, treating as 0", q.Raw, q.Location))
			continue
		case n < 0:
			diags = append(diags, newDiagnostic(KindCoercionDefault, r.ID,
				"negative stock value %d at %q, treating as 0", n, q.Location))
			continue
		case n > math.MaxInt-stock:
			diags = append(diags, newDiagnostic(KindCoercionDefault, r.ID,
				"stock total overflows at %q, treating %s as 0", q.Location, q.Raw))
			continue
		}
		stock += n
	}

	color := r.Attributes[colorAttribute]
	if color == "" {
		color = t.defaultColor
	}

	return &Product{
		SKU:   r.ID,
		Title: r.Title,
		Price: excl.Mul(decimal.NewFromInt(1).Add(t.vatRate)).Round(2),
		Stock: stock,
		Color: color,
	}, diags
}

// LoadAndNormalize loads an export and returns the valid products in
// first-seen order together with every diagnostic raised on the way.
func (t *Transformer) LoadAndNormalize(data []byte) ([]Product, []Diagnostic, error) {
	records, diags, err := LoadRecords(data)
	if err != nil {
		return nil, nil, err
	}

	products := make([]Product, 0, len(records))
	for _, r := range records {
		p, recordDiags := t.Normalize(r)
		diags = append(diags, recordDiags...)
		if p != nil {
			products = append(products, *p)
		}
	}

	return products, diags, nil
}

var (
	errNotNumeric       = errors.New("not numeric")
	errQuantityOverflow = errors.New("out of range")
)

// parseQuantity reads a stock quantity. JSON numbers are truncated toward
// zero, numeric strings must hold an integer. Values outside the int range
// yield errQuantityOverflow, anything else that is not a number errNotNumeric.
func parseQuantity(raw string) (int, error) {
	v := gjson.Parse(raw)
	switch v.Type {
	case gjson.Number:
		n, err := strconv.Atoi(v.Raw)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, errQuantityOverflow
		}
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, errNotNumeric
		}
		if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
			return 0, errQuantityOverflow
		}
		return int(f), nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if errors.Is(err, strconv.ErrRange) {
			return 0, errQuantityOverflow
		}
		if err != nil {
			return 0, errNotNumeric
		}
		return n, nil
	default:
		return 0, errNotNumeric
	}
}
