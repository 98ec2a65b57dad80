package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/llm"
)

// Config holds extraction behavior.
type Config struct {
	Timeout time.Duration // bounds one provider call; 0 leaves the caller's deadline
}

// Client turns a receipt image into a validated SaleExtraction.
type Client struct {
	logger   *slog.Logger
	cfg      Config
	source   ImageSource
	provider llm.VisionProvider
	prompt   string
	schema   map[string]any
}

func NewClient(source ImageSource, provider llm.VisionProvider, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger:   logger,
		cfg:      cfg,
		source:   source,
		provider: provider,
		prompt:   llm.BuildExtractionPrompt(),
		schema:   llm.BuildSaleJSONSchema(),
	}
}

type wireItem struct {
	ItemCode      string          `json:"item_code"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Discount      decimal.Decimal `json:"discount"`
}

type wireSale struct {
	SaleDate string     `json:"sale_date"`
	Items    []wireItem `json:"items"`
}

// Extract asks the vision provider to read img. Every failure is returned as a
// *Failure; nothing is written anywhere.
func (c *Client) Extract(ctx context.Context, img entity.Image) (*entity.SaleExtraction, error) {
	start := time.Now()
	log := c.logger.With("image_id", img.ID, "provider", c.provider.Name())

	if _, ok := c.source.DisplayURL(img); !ok {
		log.Warn("extract.no_display_url", "locator", img.StorageLocator)
		return nil, fail(constants.FailureNoAccessibleImage, "image has no accessible URL", nil)
	}

	mimeType := constants.NormalizeMimeType(img.MimeType)
	if !constants.IsSupportedImageMimeType(mimeType) {
		log.Warn("extract.unsupported_mime", "mime_type", img.MimeType)
		return nil, fail(constants.FailureUnsupportedMimeType, fmt.Sprintf("unsupported image type %q", img.MimeType), nil)
	}

	data, err := c.source.Read(ctx, img.StorageLocator)
	if err != nil {
		log.Error("extract.read_failed", "locator", img.StorageLocator, "error", err)
		return nil, fail(constants.FailureNoAccessibleImage, "read image", err)
	}
	if len(data) == 0 {
		return nil, fail(constants.FailureNoAccessibleImage, "image is empty", nil)
	}

	callCtx, cancel := common.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	log.Info("extract.start", "mime_type", mimeType, "bytes", len(data))
	text, err := c.provider.Generate(callCtx, llm.VisionRequest{
		Image:            data,
		MimeType:         mimeType,
		Instructions:     c.prompt,
		Temperature:      0,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		log.Error("extract.provider_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fail(constants.FailureProviderError, err.Error(), err)
	}

	sale, err := c.parse(text, log)
	if err != nil {
		return nil, err
	}

	log.Info("extract.ok",
		"sale_date", sale.SaleDateRaw,
		"items", len(sale.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return sale, nil
}

func (c *Client) parse(text string, log *slog.Logger) (*entity.SaleExtraction, error) {
	content := llm.StripCodeFences(text)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &keys); err != nil {
		log.Error("extract.malformed", "error", err, "content", truncate(content, 500))
		return nil, fail(constants.FailureMalformedResponse, "response is not a JSON object", err)
	}
	for _, key := range []string{"sale_date", "items"} {
		if v, ok := keys[key]; !ok || string(v) == "null" {
			log.Error("extract.malformed", "missing", key)
			return nil, fail(constants.FailureMalformedResponse, fmt.Sprintf("response has no %q", key), nil)
		}
	}

	cleaned, _, err := llm.NormalizeSaleJSON([]byte(content), log)
	if err != nil {
		return nil, fail(constants.FailureMalformedResponse, "normalize response", err)
	}
	if err := llm.ValidateJSONAgainstSchema(c.schema, cleaned); err != nil {
		log.Error("extract.schema_validation_failed", "error", err, "content", truncate(string(cleaned), 500))
		return nil, fail(constants.FailureMalformedResponse, "response does not match the sale schema", err)
	}

	var ws wireSale
	if err := json.Unmarshal(cleaned, &ws); err != nil {
		return nil, fail(constants.FailureMalformedResponse, "decode sale", err)
	}

	sale := &entity.SaleExtraction{
		SaleDateRaw: ws.SaleDate,
		Items:       make([]*entity.ExtractedItem, 0, len(ws.Items)),
	}
	for _, it := range ws.Items {
		sale.Items = append(sale.Items, &entity.ExtractedItem{
			ItemCode:       it.ItemCode,
			Barcode:        it.Barcode,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitOfMeasure:  it.UnitOfMeasure,
			UnitPrice:      it.UnitPrice,
			TotalPrice:     it.TotalPrice,
			Discount:       it.Discount,
			ExtractedTotal: it.TotalPrice,
		})
	}
	return sale, nil
}

// ParseSaleDate parses the model's sale_date in llm.SaleDateLayout. Runs of
// whitespace are collapsed first; any other shape is an error.
func ParseSaleDate(raw string) (time.Time, error) {
	s := strings.Join(strings.Fields(raw), " ")
	t, err := time.Parse(llm.SaleDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sale date %q: %w", raw, err)
	}
	return t, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
