package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/pkg/config"
)

const maxResponseBytes = 8 << 20

// Client cliente REST de ERPNext/Frappe con autenticación por API key.
// No reintenta: las escrituras (rename, submit) no son idempotentes.
type Client struct {
	baseURL    string
	auth       string
	httpClient *http.Client
	breaker    *CircuitBreaker
	log        zerolog.Logger
}

// NewClient construye el cliente a partir de la configuración de ERPNext.
func NewClient(cfg config.ERPNextConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		auth:       fmt.Sprintf("token %s:%s", cfg.APIKey, cfg.APISecret),
		httpClient: &http.Client{Timeout: timeout},
		breaker: NewCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold: cfg.CBFailureThreshold,
			SuccessThreshold: cfg.CBSuccessThreshold,
			OpenTimeout:      cfg.CBOpenTimeout,
		}, isUnavailable),
		log: log,
	}
}

// BreakerState estado del circuit breaker (para /health).
func (c *Client) BreakerState() CBState { return c.breaker.State() }

func isUnavailable(err error) bool { return errors.Is(err, domain.ErrUpstreamUnavailable) }

// ── Helpers de URL ────────────────────────────────────────────────────────────

func resourcePath(doctype string, name ...string) string {
	p := "/api/resource/" + url.PathEscape(doctype)
	if len(name) > 0 {
		p += "/" + url.PathEscape(name[0])
	}
	return p
}

func methodPath(method string) string { return "/api/method/" + method }

// listQuery filters/fields en JSON más limit_page_length=0 (sin paginar).
func listQuery(filters [][]any, fields []string) (url.Values, error) {
	q := url.Values{}
	if len(filters) > 0 {
		b, err := json.Marshal(filters)
		if err != nil {
			return nil, err
		}
		q.Set("filters", string(b))
	}
	if len(fields) > 0 {
		b, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		q.Set("fields", string(b))
	}
	q.Set("limit_page_length", "0")
	q.Set("order_by", "name asc")
	return q, nil
}

// ── Transporte ────────────────────────────────────────────────────────────────

// do ejecuta la llamada a través del breaker y decodifica data (o message) en out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	err := c.breaker.Execute(func() error {
		return c.roundTrip(ctx, method, path, query, body, out)
	})
	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ERPNext: serializar request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("ERPNext: crear request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: timeout o cancelación: %w", domain.ErrUpstreamUnavailable, ctx.Err())
		}
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstreamUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: leer respuesta: %w", domain.ErrUpstreamUnavailable, err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("ERPNext")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	case resp.StatusCode >= 500:
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Str("error", humanize(resp.StatusCode, raw).Message).
			Msg("ERPNext no disponible")
		return fmt.Errorf("%w: HTTP %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return humanize(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: respuesta no JSON: %w", domain.ErrUpstreamUnavailable, err)
	}
	payload := envelope.Data
	if len(payload) == 0 {
		payload = envelope.Message
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: respuesta sin data", domain.ErrUpstreamUnavailable)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("ERPNext: deserializar %s: %w", path, err)
	}
	return nil
}

// ── Operaciones genéricas ────────────────────────────────────────────────────

func (c *Client) getDoc(ctx context.Context, doctype, name string, out any) error {
	return c.do(ctx, http.MethodGet, resourcePath(doctype, name), nil, nil, out)
}

func (c *Client) listDocs(ctx context.Context, doctype string, filters [][]any, fields []string, out any) error {
	q, err := listQuery(filters, fields)
	if err != nil {
		return fmt.Errorf("ERPNext: filtros: %w", err)
	}
	return c.do(ctx, http.MethodGet, resourcePath(doctype), q, nil, out)
}

func (c *Client) insertDoc(ctx context.Context, doctype string, doc, out any) error {
	return c.do(ctx, http.MethodPost, resourcePath(doctype), nil, doc, out)
}

func (c *Client) updateDoc(ctx context.Context, doctype, name string, fields, out any) error {
	return c.do(ctx, http.MethodPut, resourcePath(doctype, name), nil, fields, out)
}

func (c *Client) call(ctx context.Context, method string, args, out any) error {
	return c.do(ctx, http.MethodPost, methodPath(method), nil, args, out)
}
