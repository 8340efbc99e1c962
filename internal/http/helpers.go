package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"salescharts/internal/chart"
	"salescharts/internal/core"
	"salescharts/internal/services"
)

// statusFor maps a handler error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadParam),
		errors.Is(err, chart.ErrUnknownKind),
		errors.Is(err, chart.ErrUnknownFormat),
		errors.Is(err, core.ErrInvalidMetric),
		errors.Is(err, core.ErrInvalidYear):
		return http.StatusBadRequest
	case errors.Is(err, chart.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text shown to clients. Server-side failures
// are not detailed.
func publicMessage(status int, err error) string {
	switch {
	case status < 500:
		return err.Error()
	case status == http.StatusBadGateway:
		return "sales source unavailable"
	case status == http.StatusGatewayTimeout:
		return "sales source timed out"
	default:
		return "internal error"
	}
}

// wantsHTML reports whether the response goes into an HTMX swap.
func wantsHTML(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || strings.HasPrefix(r.URL.Path, "/ui/")
}

// formatMetric renders a value for tables: thousands separators, and two
// decimals for amounts.
func formatMetric(v float64, metric core.Metric) string {
	if metric == core.MetricQuantity {
		return humanize.Comma(int64(math.Round(v)))
	}
	return humanize.FormatFloat("#,###.##", v)
}

// growthPercent is nil when growth is undefined, so JSON carries null.
func growthPercent(g core.Growth) *float64 {
	if !g.Defined {
		return nil
	}
	p := math.Round(g.Percent*10) / 10
	return &p
}
