package catalog

import (
	"fmt"
	"log/slog"
)

// Kind classifies a Diagnostic
type Kind string

const (
	// KindValidationSkip means the record failed validation and was dropped
	KindValidationSkip Kind = "validation_skip"
	// KindCoercionDefault means a value could not be parsed and a default was used
	KindCoercionDefault Kind = "coercion_default"
	// KindDuplicate means a later record with an already seen id was dropped
	KindDuplicate Kind = "duplicate"
	// KindRecordFailed means a product could not be synchronized in this run
	KindRecordFailed Kind = "record_failed"
)

// Diagnostic is a non-fatal problem found while processing one record
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// String returns a human readable form of the diagnostic
func (d Diagnostic) String() string {
	if d.SKU == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Kind, d.SKU, d.Message)
}

// LogValue implements slog.LogValuer
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(d.Kind)),
		slog.String("sku", d.SKU),
		slog.String("message", d.Message),
	)
}

func newDiagnostic(kind Kind, sku, format string, args ...any) Diagnostic {
	d := Diagnostic{Kind: kind, SKU: sku, Message: fmt.Sprintf(format, args...)}
	slog.Warn("Catalog record diagnostic", "kind", d.Kind, "sku", d.SKU, "message", d.Message)
	return d
}

// CountByKind tallies diagnostics per kind
func CountByKind(diags []Diagnostic) map[Kind]int {
	counts := make(map[Kind]int, len(diags))
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}
