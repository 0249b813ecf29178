package httpclient

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"CaseSync/internal/config"

	"github.com/sirupsen/logrus"
)

func newTestClient() *http.Client {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewHTTPClient(&config.PJeSourceConfig{Timeout: 5}, l)
}

func TestGetDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("<html>ok</html>"))
		_ = gz.Close()
	}))
	defer srv.Close()

	resp, err := Get(context.Background(), newTestClient(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("body = %q", body)
	}
}

func TestGetRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := Get(context.Background(), newTestClient(), srv.URL); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestGetPlainBodyKeepsCallerUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("User-Agent", "casesync-test")
	resp, err := newTestClient().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "casesync-test" {
		t.Fatalf("server saw user agent %q", body)
	}
}
