package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/llm"
)

const userNote = "The receipt image is attached. Return ONLY the JSON object."

// Generate implements llm.VisionProvider using chat/completions with the image
// attached as a base64 data URL.
func (c *Client) Generate(ctx context.Context, req llm.VisionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"provider", c.Name(),
		"model", c.cfg.Model,
		"temp", req.Temperature,
		"mime_type", req.MimeType,
		"image_bytes", len(req.Image),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": req.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": req.Instructions},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": userNote},
				{"type": "image_url", "image_url": map[string]any{
					"url":    llm.DataURL(req.MimeType, req.Image),
					"detail": "high",
				}},
			}},
		},
	}
	if req.ResponseMIMEType == "application/json" {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var raw []byte
	err := llm.WithRetry(ctx, func() error {
		b, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
		if err != nil {
			return llm.StatusError(status, err)
		}
		raw = b
		return nil
	}, c.cfg.Retry, c.logger)
	if err != nil {
		c.logger.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai chat/completions: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}
	if r := cc.Choices[0].Message.Refusal; r != "" {
		return "", fmt.Errorf("openai refused: %s", r)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"provider", c.Name(),
		"chars", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
