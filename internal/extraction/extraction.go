package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Deividgaston/gastos-app/internal/capture"
)

// extractionPrompt is the fixed instruction sent alongside every receipt
// image, regardless of which model target ends up answering.
const extractionPrompt = `You are analyzing a photographed purchase receipt. Carefully read all text in the image and extract the following information:

1. **Date**: the transaction or purchase date, converted to ISO 8601 format (YYYY-MM-DD).

2. **Provider**: the store, merchant, or business name, usually the largest text at the top of the receipt.

3. **Amount**: the final total or amount due, usually at the bottom, often labeled "TOTAL" or similar.

Return ONLY valid JSON in this exact format:
{
  "date": "YYYY-MM-DD",
  "provider": "Store or merchant name",
  "amount": 0.00
}

Important:
- Use a period as the decimal separator
- If a field cannot be found, use "" for strings and 0.00 for the amount
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// DefaultEndpointBase is the endpoint used for model targets that do not
// name one explicitly.
const DefaultEndpointBase = "https://generativelanguage.googleapis.com/v1beta"

// ModelTarget identifies one model/endpoint combination in the fallback
// chain. The list of targets is static configuration; its order is the
// fallback priority and is never reordered at runtime.
type ModelTarget struct {
	EndpointBase string
	ModelID      string
}

// URL builds the generateContent endpoint for this target.
func (t ModelTarget) URL(apiKey string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		t.EndpointBase, t.ModelID, url.QueryEscape(apiKey))
}

func (t ModelTarget) String() string {
	return fmt.Sprintf("%s@%s", t.ModelID, t.EndpointBase)
}

// ParseTargets parses a comma-separated target list. Each item is either a
// bare model ID ("gemini-2.0-flash") or "endpointBase|modelID" for targets
// living on a different API base. Order is preserved.
func ParseTargets(list string) ([]ModelTarget, error) {
	var targets []ModelTarget
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		base, model := DefaultEndpointBase, item
		if i := strings.IndexByte(item, '|'); i >= 0 {
			base = strings.TrimSpace(item[:i])
			model = strings.TrimSpace(item[i+1:])
		}
		if base == "" || model == "" {
			return nil, fmt.Errorf("invalid model target %q", item)
		}

		targets = append(targets, ModelTarget{
			EndpointBase: strings.TrimRight(base, "/"),
			ModelID:      model,
		})
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one model target is required")
	}
	return targets, nil
}

// RawExtraction is the model's answer as-is: every field is untrusted and
// must go through the normalizers before anything is persisted. Amount is
// kept as a raw JSON token because models return it as either a string or
// a number.
type RawExtraction struct {
	Date     string          `json:"date"`
	Provider string          `json:"provider"`
	Amount   json.RawMessage `json:"amount"`
}

// AmountText returns the amount as text for normalization: the unquoted
// string if the model answered with a string, the raw token otherwise, and
// "" for null or absent values.
func (r *RawExtraction) AmountText() string {
	if len(r.Amount) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Amount, &s); err == nil {
		return s
	}
	token := strings.TrimSpace(string(r.Amount))
	if token == "null" {
		return ""
	}
	return token
}

// Extractor runs one extraction across an ordered list of model targets.
type Extractor interface {
	Extract(ctx context.Context, img *capture.EncodedImage, targets []ModelTarget) (*RawExtraction, error)
}
