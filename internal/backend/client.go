package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// SignInPath is where handlers send the browser after the pipeline
// observes a 401. A hard redirect, not an in-app route change: the
// session the router relied on is already gone.
const SignInPath = "/auth/signin"

// Client performs JSON calls against the REST backend through the
// authenticated pipeline.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs a Client. The transport is expected to be an
// *AuthTransport so every call shares the same exclusion and teardown
// behaviour.
func NewClient(baseURL string, timeout time.Duration, transport http.RoundTripper, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
		logger:  logger,
	}
}

// GetJSON issues a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the response.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// PutJSON issues a PUT with a JSON body and decodes the response.
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE and discards the response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "Solicitud inválida", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindConnectivity, Message: "Error de conexión", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.Debug("backend call",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
	}

	if resp.StatusCode >= 400 {
		return classify(resp.StatusCode, serverMessage(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "Respuesta inválida del servidor", Err: err}
		}
	}
	return nil
}

// classifyTransport maps a transport-level failure onto the taxonomy:
// a timeout is a connectivity failure, anything else means the backend
// was unreachable.
func classifyTransport(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindConnectivity, Message: "Timeout: el servidor no respondió a tiempo", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindConnectivity, Message: "Timeout: el servidor no respondió a tiempo", Err: err}
	}
	return &Error{Kind: KindConnectivity, Message: "No se pudo conectar al servidor. Verifica tu conexión.", Err: err}
}

func serverMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
