// internal/adapters/hostaway/client.go
package hostaway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"owner_portal/internal/adapters/observability"
	"owner_portal/internal/domain"
)

// requestTimeout is the hard deadline for a single vendor call. It is the
// only cancellation mechanism; inbound disconnects are not propagated.
const requestTimeout = 30 * time.Second

// Client executes vendor requests with bearer auth from the TokenSource and
// client-side rate limiting. It classifies every failure into a
// domain.VendorError and never retries; retry policy belongs to callers.
type Client struct {
	base   string
	hc     *http.Client
	tokens *TokenSource
	rl     *rate.Limiter
}

func New(base string, tokens *TokenSource, rps int) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("hostaway: token source is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: requestTimeout},
		tokens: tokens,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) Execute(ctx context.Context, req domain.VendorRequest) (json.RawMessage, error) {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.base+req.Path+queryString(req), bodyReader)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		observability.ObserveVendor(req.Path, 0, time.Since(start))
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()
	observability.ObserveVendor(req.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, domain.NewVendorError(domain.VendorNoResponse, resp.StatusCode, "",
				"no response from vendor, check connectivity")
		}
		return raw, nil
	}

	return nil, c.classifyStatus(resp, req.Path)
}

// queryString builds the ordered query, injecting userId when the request
// acts on behalf of a vendor-side user.
func queryString(req domain.VendorRequest) string {
	params := req.Query
	if req.ActingUserID != "" {
		params = append(append([]domain.QueryParam{}, params...), domain.QueryParam{Key: "userId", Value: req.ActingUserID})
	}
	if len(params) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range params {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// classifyStatus maps a non-2xx vendor response onto the error taxonomy.
// 401 also invalidates the cached token so the caller's single re-invocation
// exchanges fresh credentials.
func (c *Client) classifyStatus(resp *http.Response, endpoint string) *domain.VendorError {
	vendorMsg := readVendorMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.tokens.Invalidate()
		return domain.NewVendorError(domain.VendorAuth, resp.StatusCode, vendorMsg,
			"vendor authentication failed, retry")
	case http.StatusNotFound:
		return domain.NewVendorError(domain.VendorNotFound, resp.StatusCode, vendorMsg,
			"resource not found: %s", endpoint)
	case http.StatusTooManyRequests:
		return domain.NewVendorError(domain.VendorRateLimit, resp.StatusCode, vendorMsg,
			"vendor rate limited, retry later")
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.NewVendorError(domain.VendorUnavailable, resp.StatusCode, vendorMsg,
			"vendor unavailable, retry later")
	default:
		if vendorMsg != "" {
			return domain.NewVendorError(domain.VendorProtocol, resp.StatusCode, vendorMsg, "%s", vendorMsg)
		}
		return domain.NewVendorError(domain.VendorProtocol, resp.StatusCode, "",
			"vendor request failed with status %d", resp.StatusCode)
	}
}

// classifyTransport distinguishes the three transport failures the taxonomy
// cares about: deadline exceeded, connection never established, and request
// sent but nothing came back.
func classifyTransport(err error) *domain.VendorError {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.NewVendorError(domain.VendorTimeout, 0, "",
			"vendor request timed out after %s", requestTimeout)
	}
	var oe *net.OpError
	if errors.As(err, &oe) && oe.Op == "dial" {
		return domain.NewVendorError(domain.VendorNetwork, 0, "",
			"could not connect to vendor: %v", oe.Err)
	}
	return domain.NewVendorError(domain.VendorNoResponse, 0, "",
		"no response from vendor, check connectivity")
}

// readVendorMessage pulls a human message out of a vendor error body, which
// is sometimes {"message": ...}, sometimes {"result": {"message": ...}},
// sometimes not JSON at all.
func readVendorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	if len(b) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Result  struct {
			Message string `json:"message"`
		} `json:"result"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Result.Message != "" {
			return body.Result.Message
		}
	}
	return ""
}
