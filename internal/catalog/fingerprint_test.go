package catalog

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(stock int) Product {
	return Product{SKU: "SKU-001", Title: "A", Price: decimal.RequireFromString("121"), Stock: stock, Color: "N/A"}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	t.Run("same data same digest", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, Fingerprint(product(5)), Fingerprint(product(5)))
	})

	t.Run("digest is 64 hex characters", func(t *testing.T) {
		t.Parallel()
		fp := Fingerprint(product(0))
		assert.Len(t, fp, 64)
		assert.Regexp(t, "^[0-9a-f]{64}$", fp)
	})

	t.Run("any field change changes digest", func(t *testing.T) {
		t.Parallel()

		base := product(5)
		variants := []Product{product(6)}

		v := base
		v.SKU = "SKU-002"
		variants = append(variants, v)
		v = base
		v.Title = "B"
		variants = append(variants, v)
		v = base
		v.Price = decimal.RequireFromString("121.01")
		variants = append(variants, v)
		v = base
		v.Color = "red"
		variants = append(variants, v)

		for _, variant := range variants {
			assert.NotEqual(t, Fingerprint(base), Fingerprint(variant))
		}
	})

	t.Run("equal prices with different scale match", func(t *testing.T) {
		t.Parallel()

		a := product(1)
		b := product(1)
		b.Price = decimal.RequireFromString("121.000")
		assert.Equal(t, Fingerprint(a), Fingerprint(b))
	})

	t.Run("key order in the input does not matter", func(t *testing.T) {
		t.Parallel()

		var p1, p2 Product
		require.NoError(t, json.Unmarshal([]byte(`{"sku":"SKU-001","title":"A","price":121.0,"stock":5,"color":"N/A"}`), &p1))
		require.NoError(t, json.Unmarshal([]byte(`{"color":"N/A","stock":5,"price":121.0,"title":"A","sku":"SKU-001"}`), &p2))
		assert.Equal(t, Fingerprint(p1), Fingerprint(p2))
	})

	t.Run("html characters are not escaped", func(t *testing.T) {
		t.Parallel()

		p := product(1)
		p.Title = "<b>&</b>"
		assert.Len(t, Fingerprint(p), 64)
		assert.NotEqual(t, Fingerprint(product(1)), Fingerprint(p))
	})
}

func TestProduct_MarshalJSON(t *testing.T) {
	t.Parallel()

	p := Product{SKU: "SKU-1", Title: "Kávovar <x>", Price: decimal.RequireFromString("121"), Stock: 5, Color: "N/A"}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sku":"SKU-1","title":"Kávovar <x>","price":121.00,"stock":5,"color":"N/A"}`, string(data))

	var decoded Product
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, p.Price.Equal(decoded.Price))
	assert.Equal(t, p.SKU, decoded.SKU)
}
