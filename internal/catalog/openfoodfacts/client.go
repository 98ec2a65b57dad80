// Package openfoodfacts is a small client for the Open Food Facts product API.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	ErrInvalidBarcode  = errors.New("barcode must contain only digits")
	ErrProductNotFound = errors.New("product not found in open food facts")
)

// Product is the subset of the Open Food Facts product document we use.
type Product struct {
	Code           string   `json:"code"`
	ProductName    string   `json:"product_name"`
	ProductNamePT  string   `json:"product_name_pt"`
	GenericName    string   `json:"generic_name"`
	GenericNamePT  string   `json:"generic_name_pt"`
	Brands         string   `json:"brands"`
	Quantity       string   `json:"quantity"`
	CategoriesTags []string `json:"categories_tags"`
	ImageURL       string   `json:"image_url"`
	ImageFrontURL  string   `json:"image_front_url"`
}

type productResponse struct {
	Status        int     `json:"status"`
	StatusVerbose string  `json:"status_verbose"`
	Product       Product `json:"product"`
}

type Config struct {
	BaseURL   string        // default https://br.openfoodfacts.org
	Timeout   time.Duration // default 10s
	UserAgent string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://br.openfoodfacts.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "receipt-ledger/1.0"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

// ValidBarcode reports whether s is a non-empty string of ASCII digits.
func ValidBarcode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// GetProduct fetches one product by barcode. A product the API does not know
// is ErrProductNotFound.
func (c *Client) GetProduct(ctx context.Context, barcode string) (*Product, error) {
	if !ValidBarcode(barcode) {
		return nil, fmt.Errorf("%q: %w", barcode, ErrInvalidBarcode)
	}
	start := time.Now()
	url := fmt.Sprintf("%s/api/v0/product/%s.json", strings.TrimRight(c.cfg.BaseURL, "/"), barcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("off.http.send_error", "barcode", barcode, "error", err)
		return nil, fmt.Errorf("open food facts request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("off.http.response_body_close_error", "error", err)
		}
	}(resp.Body)

	c.logger.Info("off.http.response",
		"barcode", barcode,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", barcode, ErrProductNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("open food facts status %d", resp.StatusCode)
	}

	var pr productResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode open food facts response: %w", err)
	}
	if pr.Status != 1 {
		return nil, fmt.Errorf("%s (%s): %w", barcode, pr.StatusVerbose, ErrProductNotFound)
	}
	if pr.Product.Code == "" {
		pr.Product.Code = barcode
	}
	return &pr.Product, nil
}
