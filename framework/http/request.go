package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// MaxBodyBytes caps request bodies read by Bind.
const MaxBodyBytes = 1 << 20 // 1 MB

// ErrEmptyBody is returned by Bind for a request without a body.
var ErrEmptyBody = errors.New("empty request body")

// Request wraps *http.Request with binding and parameter helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the request body into v.
// JSON bodies are decoded as-is; urlencoded forms are mapped through
// v's json tags.
func (req *Request) Bind(v any) error {
	if strings.Contains(req.ContentType(), "application/x-www-form-urlencoded") {
		if err := req.raw.ParseForm(); err != nil {
			return err
		}
		return bindForm(req.raw.PostForm, v)
	}
	return req.bindJSON(v)
}

func (req *Request) bindJSON(v any) error {
	if req.raw.Body == nil {
		return ErrEmptyBody
	}
	defer req.raw.Body.Close()
	body, err := io.ReadAll(io.LimitReader(req.raw.Body, MaxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if len(body) > MaxBodyBytes {
		return fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}
	return json.Unmarshal(body, v)
}

// bindForm maps single-valued fields to strings and repeated ones to lists,
// then decodes the result into v.
func bindForm(values map[string][]string, v any) error {
	m := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			m[k] = vals[0]
		} else {
			m[k] = vals
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// ContentType returns the Content-Type header value.
func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}
