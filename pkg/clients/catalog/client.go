package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/northriverboats/gear-inventory-check/internal/config"
	"github.com/northriverboats/gear-inventory-check/internal/domain/models"
)

// ErrTransport indicates the catalog endpoint was unreachable or returned a
// non-success status.
var ErrTransport = errors.New("catalog transport error")

// ErrMalformedResponse indicates the catalog returned a payload we could not
// make sense of, including variation trees deeper or larger than any sane
// catalog produces.
var ErrMalformedResponse = errors.New("malformed catalog response")

const (
	productTypeSimple   = "simple"
	productTypeVariable = "variable"

	// Guards on variation-tree expansion. The upstream catalog nests at
	// most two levels in practice; anything past these limits is treated
	// as a malformed payload rather than recursed into.
	maxVariationDepth = 8
	maxVariationNodes = 10000
)

// product mirrors the catalog API's product/variation object shape.
// stock_quantity is null for entries with unmanaged stock.
type product struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	StockQuantity *float64 `json:"stock_quantity"`
	Variations    []int64  `json:"variations"`
}

func (p product) quantity() float64 {
	if p.StockQuantity == nil {
		return 0
	}
	return *p.StockQuantity
}

// Client fetches stock quantities from the product catalog.
type Client interface {
	FetchInventory(ctx context.Context) ([]models.StockRecord, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a catalog API client using the provided configuration values.
func NewClient(cfg config.APIConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetBasicAuth(cfg.Username, cfg.Password).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{httpClient: restyClient}
}

// FetchInventory requests the full product collection and flattens variable
// products into their leaf variations. Variation trees are walked with an
// explicit work queue so an unexpectedly deep or cyclic tree fails with
// ErrMalformedResponse instead of growing the stack without bound. The order
// of the returned records is unspecified.
func (c *APIClient) FetchInventory(ctx context.Context) ([]models.StockRecord, error) {
	var listing []product
	if err := c.get(ctx, "/products/", &listing); err != nil {
		return nil, err
	}

	type workItem struct {
		id    int64
		depth int
	}

	records := make([]models.StockRecord, 0, len(listing))
	seen := make(map[int64]bool, len(listing))
	var queue []workItem

	for _, p := range listing {
		switch p.Type {
		case productTypeVariable:
			for _, id := range p.Variations {
				queue = append(queue, workItem{id: id, depth: 1})
			}
		default:
			// Simple products carry their own stock.
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			records = append(records, models.StockRecord{ID: p.ID, Name: p.Name, Quantity: p.quantity()})
		}
	}

	fetched := 0
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth > maxVariationDepth {
			return nil, fmt.Errorf("%w: variation %d nested deeper than %d levels", ErrMalformedResponse, item.id, maxVariationDepth)
		}
		if seen[item.id] {
			continue
		}
		seen[item.id] = true

		if fetched++; fetched > maxVariationNodes {
			return nil, fmt.Errorf("%w: variation tree exceeds %d nodes", ErrMalformedResponse, maxVariationNodes)
		}

		var node product
		if err := c.get(ctx, fmt.Sprintf("/products/%d", item.id), &node); err != nil {
			return nil, err
		}

		if len(node.Variations) == 0 {
			records = append(records, models.StockRecord{ID: node.ID, Name: node.Name, Quantity: node.quantity()})
			continue
		}
		for _, id := range node.Variations {
			queue = append(queue, workItem{id: id, depth: item.depth + 1})
		}
	}

	return records, nil
}

func (c *APIClient) get(ctx context.Context, path string, out any) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", ErrTransport, path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: get %s: status %d", ErrTransport, path, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}
