package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"salescharts/internal/chart"
	"salescharts/internal/core"
	"salescharts/internal/services"
)

// maxBodyBytes bounds admin request bodies.
const maxBodyBytes = 64 << 10

// ErrBadParam marks a malformed query parameter.
var ErrBadParam = errors.New("bad parameter")

// ChartParams holds the parsed year/metric/compare query parameters.
type ChartParams struct {
	Year    int // 0 means latest
	Metric  core.Metric
	Compare bool
}

// ParseChartParams reads year, metric and compare from the query string.
// Missing values take defaults; present but invalid values are errors.
func ParseChartParams(query url.Values) (ChartParams, error) {
	var params ChartParams

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return ChartParams{}, fmt.Errorf("%w: year %q is not a number", ErrBadParam, v)
		}
		if err := core.ValidateYear(y); err != nil {
			return ChartParams{}, fmt.Errorf("%w: year %d: %w", ErrBadParam, y, err)
		}
		params.Year = y
	}

	m, err := core.ParseMetric(query.Get("metric"))
	if err != nil {
		return ChartParams{}, fmt.Errorf("%w: metric %q: %w", ErrBadParam, query.Get("metric"), err)
	}
	params.Metric = m

	params.Compare = parseBool(query.Get("compare"))
	return params, nil
}

// ParseChartFile splits a "{kind}.{format}" path segment.
func ParseChartFile(name string) (chart.Kind, chart.Format, error) {
	base, ext, found := strings.Cut(name, ".")
	if !found {
		ext = ""
	}
	kind, err := chart.ParseKind(base)
	if err != nil {
		return "", "", err
	}
	format, err := chart.ParseFormat(ext)
	if err != nil {
		return "", "", err
	}
	return kind, format, nil
}

// ChartQuery combines the path and query into a service query.
func (p ChartParams) ChartQuery(kind chart.Kind, format chart.Format) services.ChartQuery {
	return services.ChartQuery{Kind: kind, Year: p.Year, Metric: p.Metric, Format: format, Compare: p.Compare}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
