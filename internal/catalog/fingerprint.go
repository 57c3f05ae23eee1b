package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint returns the SHA-256 hex digest of the canonical JSON form of p.
// Keys are sorted and HTML characters are not escaped, so the digest only
// depends on field values.
func Fingerprint(p Product) string {
	fields := map[string]any{
		"sku":   p.SKU,
		"title": p.Title,
		"price": json.Number(p.Price.StringFixed(2)),
		"stock": p.Stock,
		"color": p.Color,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding strings, ints and a well-formed json.Number cannot fail
	_ = enc.Encode(fields)

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])
}
