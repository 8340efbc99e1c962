package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(ok())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, name := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(name) == "" {
			t.Errorf("missing header %s", name)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestHeadersMiddlewareSkipsEmpty(t *testing.T) {
	h := NewHeadersMiddleware(HeadersConfig{XFrameOptions: "SAMEORIGIN"}).Middleware(ok())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Error("configured header not sent")
	}
	if _, set := rr.Header()["Content-Security-Policy"]; set {
		t.Error("empty CSP should not be sent")
	}
}

func TestCacheControl(t *testing.T) {
	rr := httptest.NewRecorder()
	CacheControl(3600, true)(ok()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=3600, immutable" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name      string
		method    string
		target    string
		agent     string
		wantFlags bool
	}{
		{"chart fetch", http.MethodGet, "/charts/bar.png?year=2024", "curl/8.0", false},
		{"path traversal", http.MethodGet, "/static/../../etc/passwd", "", true},
		{"dotenv probe", http.MethodGet, "/.env", "", true},
		{"injection in query", http.MethodGet, "/api/series?year=eval(1)", "", true},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("User-Agent", tt.agent)
			if got := d.DetectSuspiciousRequest(req); got != tt.wantFlags {
				t.Errorf("DetectSuspiciousRequest() = %v, want %v", got, tt.wantFlags)
			}
		})
	}
	if d.GetMetrics().SuspiciousRequests != 5 {
		t.Errorf("SuspiciousRequests = %d, want 5", d.GetMetrics().SuspiciousRequests)
	}
}

func TestDetectorMiddleware(t *testing.T) {
	d := NewDetector()
	req := httptest.NewRequest(http.MethodGet, "/wp-admin/", nil)

	rr := httptest.NewRecorder()
	d.Middleware(false)(ok()).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("log-only mode should serve the request, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	d.Middleware(true)(ok()).ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("blocking mode should reject, got %d", rr.Code)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(req); got != "203.0.113.9" {
		t.Errorf("untrusted peer must not be able to spoof, got %s", got)
	}

	req.RemoteAddr = "10.0.0.2:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")
	if got := d.ExtractClientIP(req); got != "198.51.100.1" {
		t.Errorf("trusted proxy forwarding ignored, got %s", got)
	}

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.7")
	if got := d.ExtractClientIP(req); got != "198.51.100.7" {
		t.Errorf("X-Real-IP ignored, got %s", got)
	}

	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("invalid CIDR should fail")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.2")
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatal(err)
	}
	if got := d.ExtractClientIP(req); got != "198.51.100.2" {
		t.Errorf("added proxy not trusted, got %s", got)
	}

	req.RemoteAddr = "not-an-ip"
	if got := d.ExtractClientIP(req); got != "not-an-ip" || d.GetMetrics().InvalidIPAttempts != 1 {
		t.Errorf("invalid peer should be returned as is and counted, got %s", got)
	}
}
