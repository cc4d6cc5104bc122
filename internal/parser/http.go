package parser

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/common"
)

// HTTPParser calls a remote parsing service. The structured-PDF and
// vision-model backends both speak this contract: POST the document, get
// {text, confidence} back.
type HTTPParser struct {
	id     constants.ParserID
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewHTTPParser(id constants.ParserID, url string, timeout time.Duration, logger *slog.Logger) *HTTPParser {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPParser{
		id:     id,
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *HTTPParser) ID() constants.ParserID { return p.id }

// Parse uploads the document and decodes the service response. Any transport
// or service error is a per-attempt parse failure; the quality gate decides
// whether a fallback runs.
func (p *HTTPParser) Parse(ctx context.Context, path string) (Result, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}

	body := map[string]any{
		"parser":      string(p.id),
		"filename":    filepath.Base(path),
		"content_b64": base64.StdEncoding.EncodeToString(raw),
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bs))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	p.logger.Info("parser.http.request",
		"req_id", reqID, "parser", p.id, "url", p.url, "bytes", len(raw))

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("parser.http.send_error",
			"req_id", reqID, "parser", p.id, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, common.NewAppError("PARSE_FAILURE", fmt.Sprintf("parser %s: %v", p.id, err), common.ErrParseFailure)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.Warn("parser.http.body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		p.logger.Error("parser.http.status_error",
			"req_id", reqID, "parser", p.id, "status", resp.StatusCode,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("parser %s: status %d", p.id, resp.StatusCode), common.ErrParseFailure)
	}

	var out Result
	if err := json.Unmarshal(payload, &out); err != nil {
		return Result{}, common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("parser %s: decode response: %v", p.id, err), common.ErrParseFailure)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return Result{}, common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("parser %s: confidence %v out of [0,1]", p.id, out.Confidence), common.ErrParseFailure)
	}

	p.logger.Info("parser.http.response",
		"req_id", reqID, "parser", p.id,
		"text_len", len(out.Text), "confidence", out.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}
