package gemini

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

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate implements llm.VisionProvider with models/{model}:generateContent,
// sending the image inline next to the instructions.
func (c *Client) Generate(ctx context.Context, req llm.VisionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"provider", c.Name(),
		"model", c.cfg.Model,
		"mime_type", req.MimeType,
		"image_bytes", len(req.Image),
	)

	genCfg := map[string]any{"temperature": req.Temperature}
	if req.ResponseMIMEType != "" {
		genCfg["responseMimeType"] = req.ResponseMIMEType
	}
	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": req.Instructions},
					{"inline_data": map[string]any{
						"mime_type": req.MimeType,
						"data":      llm.EncodeBase64(req.Image),
					}},
				},
			},
		},
		"generationConfig": genCfg,
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	var raw []byte
	err := llm.WithRetry(ctx, func() error {
		b, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
		if err != nil {
			return llm.StatusError(status, describeError(b, err))
		}
		raw = b
		return nil
	}, c.cfg.Retry, c.logger)
	if err != nil {
		c.logger.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("gemini generateContent: %w", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Error("llm.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked the prompt: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", errors.New("no candidates in gemini response")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("empty gemini candidate (finish reason %q)", gr.Candidates[0].FinishReason)
	}

	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"provider", c.Name(),
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// describeError prefers the API's own error message over the raw body snippet.
func describeError(body []byte, err error) error {
	var er errorResponse
	if len(body) > 0 && json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
		return fmt.Errorf("%s (%s): %w", er.Error.Message, er.Error.Status, err)
	}
	return err
}
