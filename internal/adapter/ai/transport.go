package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

// NewHTTPClient builds the HTTP client adapters share: bounded timeout and
// an otelhttp transport so provider calls show up in traces.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("AI %s %s", r.Method, r.URL.Host)
		}),
	)
	return &http.Client{Timeout: timeout, Transport: transport}
}

// ClassifyTransportError maps a client-side transport failure onto the
// closed error-kind set so the retry loop never inspects message strings.
func ClassifyTransportError(provider string, err error) *domain.ProviderError {
	kind := domain.KindConnReset
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.KindTimeout
	case isTimeout(err):
		kind = domain.KindTimeout
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		kind = domain.KindConnReset
	}
	return domain.NewProviderError(provider, kind, 0, "transport failure", err)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
