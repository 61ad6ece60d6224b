// Package square provides a client for the Square POS API covering the
// endpoints the CostFX agents consume: locations, catalog items and
// inventory counts. All outbound calls run through a retry policy and a
// client-side rate limiter.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/akisma/CostFX-sub001/agent"
	"github.com/akisma/CostFX-sub001/retry"
)

// Default client configuration.
const (
	DefaultBaseURL    = "https://connect.squareup.com"
	defaultTimeout    = 30 * time.Second
	defaultRatePerSec = 10
	apiVersion        = "2024-01-18"
)

// Location is a Square business location.
type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// CatalogItem is a sellable item with its first variation's price.
type CatalogItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceAmount int64  `json:"priceAmount"`
	Currency    string `json:"currency"`
}

// InventoryCount is the on-hand quantity of a catalog object at a location.
type InventoryCount struct {
	CatalogObjectID string    `json:"catalog_object_id"`
	LocationID      string    `json:"location_id"`
	State           string    `json:"state"`
	Quantity        string    `json:"quantity"`
	CalculatedAt    time.Time `json:"calculated_at"`
}

// Config holds configuration for creating a Client.
type Config struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
	Policy      *retry.Policy
	RatePerSec  float64
	Burst       int
	Logger      agent.Logger
}

// Client calls the Square API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     *retry.Policy
	limiter    *rate.Limiter
	logger     agent.Logger
}

// NewClient creates a Square client with the given configuration.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if config.Logger == nil {
		config.Logger = agent.NewDefaultLogger()
	}
	if config.Policy == nil {
		config.Policy = retry.New(retry.Options{Logger: config.Logger})
	}
	if config.RatePerSec <= 0 {
		config.RatePerSec = defaultRatePerSec
	}
	if config.Burst <= 0 {
		config.Burst = int(config.RatePerSec)
	}

	return &Client{
		baseURL:    config.BaseURL,
		token:      config.AccessToken,
		httpClient: config.HTTPClient,
		policy:     config.Policy,
		limiter:    rate.NewLimiter(rate.Limit(config.RatePerSec), config.Burst),
		logger:     config.Logger,
	}
}

// RetryStats exposes the retry policy counters for observability.
func (c *Client) RetryStats() retry.Stats {
	return c.policy.Stats()
}

// ListLocations returns all locations of the merchant.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var resp struct {
		Locations []Location `json:"locations"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/locations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

// ListCatalogItems returns every ITEM catalog object, following pagination
// cursors until the catalog is exhausted.
func (c *Client) ListCatalogItems(ctx context.Context) ([]CatalogItem, error) {
	var items []CatalogItem
	cursor := ""

	for {
		path := "/v2/catalog/list?types=ITEM"
		if cursor != "" {
			path += "&cursor=" + cursor
		}

		var resp catalogListResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}

		for _, obj := range resp.Objects {
			if obj.Type != "ITEM" || obj.ItemData == nil {
				continue
			}
			item := CatalogItem{
				ID:   obj.ID,
				Name: obj.ItemData.Name,
			}
			if len(obj.ItemData.Variations) > 0 {
				if v := obj.ItemData.Variations[0].ItemVariationData; v != nil && v.PriceMoney != nil {
					item.PriceAmount = v.PriceMoney.Amount
					item.Currency = v.PriceMoney.Currency
				}
			}
			items = append(items, item)
		}

		if resp.Cursor == "" {
			return items, nil
		}
		cursor = resp.Cursor
	}
}

// BatchRetrieveInventoryCounts returns current inventory counts for the
// given locations.
func (c *Client) BatchRetrieveInventoryCounts(ctx context.Context, locationIDs []string) ([]InventoryCount, error) {
	body := map[string]any{
		"location_ids": locationIDs,
		"states":       []string{"IN_STOCK"},
	}

	var resp struct {
		Counts []InventoryCount `json:"counts"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/inventory/counts/batch-retrieve", body, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

// do performs one API call through the rate limiter and retry policy,
// decoding a 2xx response body into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	label := method + " " + path
	_, err := c.policy.Execute(ctx, label, func(ctx context.Context) (any, error) {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			reader = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Square-Version", apiVersion)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, parseAPIError(resp.StatusCode, raw)
		}

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil, nil
	})

	return err
}

// Catalog wire shapes, reduced to the fields the agents consume.
type catalogListResponse struct {
	Objects []catalogObject `json:"objects"`
	Cursor  string          `json:"cursor"`
}

type catalogObject struct {
	ID                string       `json:"id"`
	Type              string       `json:"type"`
	ItemData          *catalogItem `json:"item_data"`
	ItemVariationData *variation   `json:"item_variation_data"`
}

type catalogItem struct {
	Name       string          `json:"name"`
	Variations []catalogObject `json:"variations"`
}

type variation struct {
	PriceMoney *money `json:"price_money"`
}

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
