package extraction

import "encoding/json"

// PayloadSource names where in a generateContent response the usable text
// payload was found. The three sources form a fixed priority: the nested
// candidate part text wins over a top-level text field, which wins over
// the raw body.
type PayloadSource int

const (
	PayloadCandidateText PayloadSource = iota
	PayloadTopLevelText
	PayloadRawBody
)

func (s PayloadSource) String() string {
	switch s {
	case PayloadCandidateText:
		return "candidate_text"
	case PayloadTopLevelText:
		return "top_level_text"
	default:
		return "raw_body"
	}
}

// generateResponse covers the response shapes the API has been observed to
// return, success and failure alike.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Text  string    `json:"text"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

// resolvePayload picks the text payload from a success response body by
// priority and reports which source matched.
func resolvePayload(body []byte) (string, PayloadSource) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		if len(resp.Candidates) > 0 {
			parts := resp.Candidates[0].Content.Parts
			if len(parts) > 0 && parts[0].Text != "" {
				return parts[0].Text, PayloadCandidateText
			}
		}
		if resp.Text != "" {
			return resp.Text, PayloadTopLevelText
		}
	}
	return string(body), PayloadRawBody
}

// apiErrorMessage extracts error.message from a failure body, or "" when
// the body carries no structured error.
func apiErrorMessage(body []byte) string {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Message
}
