// Package eshop routes normalized products to the e-shop catalog API.
package eshop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stacklok/catalog-sync/internal/catalog"
	"github.com/stacklok/catalog-sync/internal/httpclient"
)

// APIKeyHeader carries the e-shop API key
const APIKeyHeader = "X-Api-Key"

// Client sends products to the e-shop products endpoint
type Client struct {
	baseURL string
	doer    httpclient.Doer
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, doer httpclient.Doer) (*Client, error) {
	if doer == nil {
		return nil, fmt.Errorf("doer is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
	}, nil
}

// SendProduct creates the product with POST {base}/products/ when isNew is
// set, otherwise updates it with PATCH {base}/products/{sku}/
func (c *Client) SendProduct(ctx context.Context, p catalog.Product, isNew bool) (*httpclient.Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product %s: %w", p.SKU, err)
	}

	method, target := c.route(p.SKU, isNew)
	resp, err := c.doer.Do(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) route(sku string, isNew bool) (string, string) {
	if isNew {
		return http.MethodPost, c.baseURL + "/products/"
	}
	return http.MethodPatch, c.baseURL + "/products/" + url.PathEscape(sku) + "/"
}
