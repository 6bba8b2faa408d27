package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Deividgaston/gastos-app/internal/capture"
	"github.com/Deividgaston/gastos-app/internal/metrics"
)

// AttemptFailure records why a single model target did not produce a usable
// extraction. Transport faults, non-2xx statuses, and unparsable bodies all
// land here; the distinction only matters for logging.
type AttemptFailure struct {
	Target  ModelTarget
	Reason  string
	RawBody string
}

func (f *AttemptFailure) Error() string {
	return fmt.Sprintf("target %s: %s", f.Target, f.Reason)
}

// ExtractionError is the single aggregated failure raised when every target
// in the chain has been tried. Its reason is the last observed one.
type ExtractionError struct {
	Attempts []*AttemptFailure
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("all %d model targets failed: %s", len(e.Attempts), e.Reason())
}

// Reason returns the failure reason of the last attempted target.
func (e *ExtractionError) Reason() string {
	if len(e.Attempts) == 0 {
		return "no model targets configured"
	}
	return e.Attempts[len(e.Attempts)-1].Reason
}

// Client calls the Gemini generateContent API directly over HTTP. The wire
// protocol is spoken by hand rather than through the SDK because the
// fallback chain needs per-target endpoint bases and access to the raw
// status and error body for failure reasons.
type Client struct {
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client. The HTTP client carries a hard timeout so a
// hung target fails over to the next one instead of stalling the run.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// generateRequest is the generateContent request body: the fixed prompt
// plus the inlined image payload.
type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Role  string        `json:"role"`
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Extract tries each target in order and returns the first answer that
// sanitizes into the expected shape. There is no backoff and no retry of a
// target: per-request cost and model availability make sequential
// trial-until-success the right trade. Per-attempt failures are logged and
// swallowed; only the aggregated ExtractionError escapes.
func (c *Client) Extract(ctx context.Context, img *capture.EncodedImage, targets []ModelTarget) (*RawExtraction, error) {
	if len(targets) == 0 {
		return nil, &ExtractionError{}
	}

	var attempts []*AttemptFailure
	for i, target := range targets {
		raw, failure := c.tryTarget(ctx, target, img)
		if failure == nil {
			return raw, nil
		}

		slog.Warn("Model target failed, falling back",
			"target", target.String(),
			"attempt", i+1,
			"of", len(targets),
			"reason", failure.Reason,
		)
		metrics.ExtractionFailures.WithLabelValues(target.ModelID).Inc()
		attempts = append(attempts, failure)

		if ctx.Err() != nil {
			break
		}
		if i < len(targets)-1 {
			metrics.ExtractionFallbacks.Inc()
		}
	}

	return nil, &ExtractionError{Attempts: attempts}
}

// tryTarget issues one inference request and defensively parses the answer.
func (c *Client) tryTarget(ctx context.Context, target ModelTarget, img *capture.EncodedImage) (*RawExtraction, *AttemptFailure) {
	metrics.ExtractionAttempts.WithLabelValues(target.ModelID).Inc()

	reqBody := generateRequest{
		Contents: []requestContent{{
			Role: "user",
			Parts: []requestPart{
				{Text: extractionPrompt},
				{InlineData: &inlineData{MimeType: img.MimeType, Data: img.Data}},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &AttemptFailure{Target: target, Reason: fmt.Sprintf("marshaling request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL(c.apiKey), bytes.NewReader(payload))
	if err != nil {
		return nil, &AttemptFailure{Target: target, Reason: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AttemptFailure{Target: target, Reason: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AttemptFailure{Target: target, Reason: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := apiErrorMessage(body)
		if reason == "" {
			reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &AttemptFailure{Target: target, Reason: reason, RawBody: string(body)}
	}

	text, source := resolvePayload(body)
	obj, err := Sanitize(text)
	if err != nil {
		return nil, &AttemptFailure{Target: target, Reason: err.Error(), RawBody: string(body)}
	}

	var raw RawExtraction
	if err := json.Unmarshal(obj, &raw); err != nil {
		return nil, &AttemptFailure{Target: target, Reason: fmt.Sprintf("unexpected response shape: %v", err), RawBody: string(body)}
	}

	slog.Debug("Extraction succeeded",
		"target", target.String(),
		"payload_source", source.String(),
	)
	return &raw, nil
}
