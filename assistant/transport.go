package assistant

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
)

const completionsPath = "/chat/completions"

// Request is one attempt's worth of input for a Transport. Body is Payload already
// encoded as JSON.
type Request struct {
	Credential string
	Payload    ChatRequest
	Body       []byte
}

// Reply is any HTTP response, successful or not.
type Reply struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single POST to the completion endpoint. It returns an error
// only when no HTTP response was obtained.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Reply, error)
}

// HTTPTransport posts the pre-encoded body with resty. Retries are left to the Client.
type HTTPTransport struct {
	rc *resty.Client
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		rc: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetDisableWarn(true),
	}
}

func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Reply, error) {
	resp, err := t.rc.R().
		SetContext(ctx).
		SetAuthToken(req.Credential).
		SetBody(req.Body).
		Post(completionsPath)
	if err != nil {
		return nil, err
	}
	return &Reply{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}
