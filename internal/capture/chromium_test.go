package capture

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOptionsNormalize(t *testing.T) {
	o := Options{URL: "http://127.0.0.1:8080/", OutputPath: "out.png"}
	if err := o.normalize(); err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight {
		t.Errorf("viewport = %dx%d", o.Width, o.Height)
	}
	if o.Timeout != DefaultTimeoutSec*time.Second {
		t.Errorf("timeout = %v", o.Timeout)
	}

	o = Options{URL: "u", OutputPath: "o", Width: 375, Height: 812, Timeout: time.Second}
	if err := o.normalize(); err != nil {
		t.Fatal(err)
	}
	if o.Width != 375 || o.Height != 812 || o.Timeout != time.Second {
		t.Errorf("explicit options overwritten: %+v", o)
	}
}

func TestCaptureRequiresTargets(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"no url", Options{OutputPath: "out.png"}, ErrNoURL},
		{"no output", Options{URL: "http://127.0.0.1/"}, ErrNoOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CapturePagePNG(context.Background(), tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHeadersCarryBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != "admin" || p != "s3cret:x" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`<div data-ready="true"></div>`))
	}))
	defer srv.Close()

	get := func(o Options) int {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		for k, v := range o.headers() {
			req.Header.Set(k, v.(string))
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"no credentials", Options{}, http.StatusUnauthorized},
		{"username only", Options{Username: "admin"}, http.StatusUnauthorized},
		{"credentials", Options{Username: "admin", Password: "s3cret:x"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := get(tt.opts); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
