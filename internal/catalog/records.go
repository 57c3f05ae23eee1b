package catalog

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidSource is returned when the export is not a JSON array
var ErrInvalidSource = errors.New("invalid catalog source")

// StockQuantity is the quantity reported for one location. Raw holds the
// JSON text of the value as found in the export.
type StockQuantity struct {
	Location string
	Raw      string
}

// RawRecord is one product as exported by the ERP.
// Price holds the raw JSON text of price_vat_excl and is empty when the field is absent.
type RawRecord struct {
	ID         string
	Title      string
	Price      string
	Stocks     []StockQuantity
	Attributes map[string]string
}

// LoadRecords parses a JSON array export and removes duplicate ids.
// The first occurrence of an id wins, later ones are reported as duplicates
// even when the first one later fails validation.
func LoadRecords(data []byte) ([]RawRecord, []Diagnostic, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("%w: malformed JSON", ErrInvalidSource)
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, nil, fmt.Errorf("%w: expected a JSON array, got %s", ErrInvalidSource, root.Type)
	}

	var (
		records []RawRecord
		diags   []Diagnostic
		seen    = make(map[string]struct{})
		index   int
	)

	root.ForEach(func(_, item gjson.Result) bool {
		defer func() { index++ }()

		if !item.IsObject() {
			diags = append(diags, newDiagnostic(KindValidationSkip, "", "record %d is not an object", index))
			return true
		}

		id := item.Get("id")
		if !id.Exists() || id.Type == gjson.Null || id.String() == "" {
			diags = append(diags, newDiagnostic(KindValidationSkip, "", "record %d has no id", index))
			return true
		}

		sku := id.String()
		if _, dup := seen[sku]; dup {
			diags = append(diags, newDiagnostic(KindDuplicate, sku, "duplicate id, keeping first occurrence"))
			return true
		}
		seen[sku] = struct{}{}

		records = append(records, parseRecord(sku, item))
		return true
	})

	return records, diags, nil
}

func parseRecord(sku string, item gjson.Result) RawRecord {
	rec := RawRecord{
		ID:    sku,
		Title: item.Get("title").String(),
	}

	if price := item.Get("price_vat_excl"); price.Exists() {
		rec.Price = price.Raw
	}

	if stocks := item.Get("stocks"); stocks.IsObject() {
		stocks.ForEach(func(location, value gjson.Result) bool {
			rec.Stocks = append(rec.Stocks, StockQuantity{Location: location.String(), Raw: value.Raw})
			return true
		})
	}

	if attrs := item.Get("attributes"); attrs.IsObject() {
		rec.Attributes = make(map[string]string)
		attrs.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.Null {
				rec.Attributes[key.String()] = value.String()
			}
			return true
		})
	}

	return rec
}
