package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	domrepo "MarketDash/internal/domain/repository"
	"MarketDash/pkg/config"
	xhttp "MarketDash/pkg/http"
)

// HTTPServiceBase centralizes client construction and JSON GET handling
// for the market backend.
type HTTPServiceBase struct {
	baseURL string
	timeout time.Duration
	client  *xhttp.Client
	metrics domrepo.Metrics
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL from config.
func NewHTTPServiceBase(cfg *config.Config, m domrepo.Metrics) *HTTPServiceBase {
	timeout := cfg.Upstream.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ceiling := timeout
	if cfg.Upstream.DecisionTimeout > ceiling {
		ceiling = cfg.Upstream.DecisionTimeout
	}
	if m == nil {
		m = domrepo.NopMetrics{}
	}
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(cfg.Upstream.BaseURL, "/"),
		timeout: timeout,
		client:  xhttp.NewClient(xhttp.WithTimeout(ceiling), xhttp.WithUserAgent("marketdash/1.0")),
		metrics: m,
	}
}

// GetJSON issues GET baseURL+path and decodes the body into dest. The call is
// bounded by timeout (the base timeout when zero) and recorded under endpoint.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, endpoint, path string, query url.Values, timeout time.Duration, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("upstream http client not initialized")
	}
	if timeout <= 0 {
		timeout = b.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
	}, dest)
	err = wrap(endpoint, err)
	b.metrics.RecordUpstream(endpoint, time.Since(start).Seconds(), err)
	return err
}

func wrap(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &Error{Endpoint: endpoint, Status: se.Status, Body: se.Body, Err: err}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Endpoint: endpoint, Timeout: true, Err: err}
	}
	return &Error{Endpoint: endpoint, Err: err}
}
