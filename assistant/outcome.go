package assistant

import (
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Outcome classifies a single attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRateLimited
	OutcomeServiceUnavailable
	OutcomeUnauthorized
	OutcomeQuotaExhausted
	OutcomeHTTPError
	OutcomeTimeout
	OutcomeNetworkError
	OutcomeEmptyResponse
	// OutcomeUnexpected marks a call that failed before any attempt was made.
	OutcomeUnexpected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeServiceUnavailable:
		return "service_unavailable"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeQuotaExhausted:
		return "quota_exhausted"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeEmptyResponse:
		return "empty_response"
	case OutcomeUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Attempt records one HTTP try inside a single call.
type Attempt struct {
	Index      int           `json:"index"`
	Outcome    Outcome       `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	Err        error         `json:"-"`
}

// quotaMarker appears in the message of a 400 returned once a free tier is used up.
const quotaMarker = "free inference limit"

// Classify maps an HTTP reply to an outcome. For OutcomeSuccess the trimmed reply
// text is returned as well.
func Classify(status int, body []byte) (Outcome, string) {
	switch {
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited, ""
	case status == http.StatusServiceUnavailable:
		return OutcomeServiceUnavailable, ""
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return OutcomeUnauthorized, ""
	case status < 200 || status > 299:
		if status == http.StatusBadRequest && isQuotaError(body) {
			return OutcomeQuotaExhausted, ""
		}
		return OutcomeHTTPError, ""
	}

	text := ExtractText(body)
	if text == "" {
		return OutcomeEmptyResponse, ""
	}
	return OutcomeSuccess, text
}

// ExtractText accepts both the native `{"content": ...}` shape and the
// OpenAI-compatible `{"choices":[{"message":{"content": ...}}]}` shape.
func ExtractText(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"content", "choices.0.message.content"} {
		r := gjson.GetBytes(body, path)
		if r.Type == gjson.String && r.Str != "" {
			return strings.TrimSpace(r.Str)
		}
	}
	return ""
}

func isQuotaError(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	for _, path := range []string{"message", "error.message"} {
		if strings.Contains(gjson.GetBytes(body, path).String(), quotaMarker) {
			return true
		}
	}
	return false
}
