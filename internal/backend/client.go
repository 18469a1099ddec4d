// Package backend is the transport to the transactional backend: bearer
// token injection, one refresh-and-replay on 401, envelope calls and
// multipart uploads.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"tripconsole/internal/domain"
	"tripconsole/internal/envelope"
	"tripconsole/internal/metrics"
)

const (
	maxResponseBytes = 32 << 20
	maxSnippet       = 200
)

// TokenSource supplies bearer tokens. Refresh is called after a 401 and
// must return a different token than the one that was rejected.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Tokens:  tokens,
	}
}

// Call posts one envelope. A transport failure is returned as
// domain.TransportError; business rejections are left in the Result for
// the caller to check with Result.Err.
func (c *Client) Call(ctx context.Context, path string, req envelope.Request) (envelope.Result, error) {
	op := req.Context.MessageType
	start := time.Now()

	body, err := envelope.Encode(req)
	if err != nil {
		return envelope.Result{}, err
	}
	raw, err := c.send(ctx, http.MethodPost, path, "application/json", body, op)
	if err != nil {
		metrics.ObserveBackend(op, "transport_error", time.Since(start))
		return envelope.Result{}, err
	}
	res, err := envelope.Decode(raw)
	if err != nil {
		metrics.ObserveBackend(op, "transport_error", time.Since(start))
		return envelope.Result{}, domain.TransportError{Op: op, Err: err}
	}
	outcome := "ok"
	if res.Err() != nil {
		outcome = "rejected"
	}
	metrics.ObserveBackend(op, outcome, time.Since(start))
	return res, nil
}

// Upload sends one file as multipart/form-data under the "file" field.
func (c *Client) Upload(ctx context.Context, path, filename string, content io.Reader) (envelope.Result, error) {
	const op = "Upload Attachment"
	start := time.Now()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return envelope.Result{}, domain.InternalError{Msg: "build upload", Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return envelope.Result{}, domain.InternalError{Msg: "read staged file", Err: err}
	}
	if err := mw.Close(); err != nil {
		return envelope.Result{}, domain.InternalError{Msg: "build upload", Err: err}
	}

	raw, err := c.send(ctx, http.MethodPost, path, mw.FormDataContentType(), buf.Bytes(), op)
	if err != nil {
		metrics.ObserveBackend(op, "transport_error", time.Since(start))
		return envelope.Result{}, err
	}
	res, err := envelope.Decode(raw)
	if err != nil {
		metrics.ObserveBackend(op, "transport_error", time.Since(start))
		return envelope.Result{}, domain.TransportError{Op: op, Err: err}
	}
	metrics.ObserveBackend(op, "ok", time.Since(start))
	return res, nil
}

// Get fetches a non-envelope resource such as the backend health probe.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Do sends body as JSON and returns the raw response body.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = envelope.Marshal(body); err != nil {
			return nil, domain.InternalError{Msg: "encode body", Err: err}
		}
	}
	return c.send(ctx, method, path, "application/json", payload, method+" "+path)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, op string) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, domain.TransportError{Op: op, Err: err}
	}
	resp, err := c.roundTrip(ctx, method, path, contentType, body, token)
	if err != nil {
		return nil, domain.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && c.Tokens != nil {
		drain(resp)
		metrics.TokenRefreshes.Inc()
		token, err = c.Tokens.Refresh(ctx)
		if err != nil {
			return nil, domain.TransportError{Op: op, Status: http.StatusUnauthorized, Err: err}
		}
		resp, err = c.roundTrip(ctx, method, path, contentType, body, token)
		if err != nil {
			return nil, domain.TransportError{Op: op, Err: err}
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(snippet(data))}
	}
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, contentType string, body []byte, token string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	return hc.Do(req)
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.Tokens == nil {
		return "", nil
	}
	return c.Tokens.Token(ctx)
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.BaseURL + "/" + strings.TrimLeft(path, "/")
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxSnippet {
		cut := maxSnippet
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return fmt.Sprintf("body: %s", s)
}
