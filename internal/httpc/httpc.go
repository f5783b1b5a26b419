// Package httpc builds HTTP clients and probes the service's health endpoint.
package httpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const defaultTimeout = 5 * time.Second

// Httpc holds client settings shared by probes.
type Httpc struct {
	TlsConfig *tls.Config
	Timeout   time.Duration
}

// New returns a resty.Client configured according to the receiver's settings.
// Defaults: MinVersion TLS1.2 when a TLS config without MinVersion is given.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.SetTimeout(timeout)
	cfg := h.TlsConfig
	if cfg == nil {
		return c
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	c.SetTLSClientConfig(cfg)
	return c
}

// Health is the decoded body of GET /health.
type Health struct {
	StatusCode int
	Status     string
	Database   string
	AppMode    string
}

// Healthy reports whether the service and its database are up.
func (h Health) Healthy() bool {
	return h.StatusCode == http.StatusOK && h.Status == "healthy"
}

// CheckHealth calls url (the full /health URL) and decodes the response.
func (h *Httpc) CheckHealth(ctx context.Context, url string) (Health, error) {
	resp, err := h.New().R().SetContext(ctx).SetHeader("Accept", "application/json").Get(url)
	if err != nil {
		return Health{}, fmt.Errorf("health request failed: %w", err)
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return Health{StatusCode: resp.StatusCode()}, fmt.Errorf("health endpoint returned non-JSON body (status %d)", resp.StatusCode())
	}
	res := gjson.ParseBytes(body)
	return Health{
		StatusCode: resp.StatusCode(),
		Status:     res.Get("status").String(),
		Database:   res.Get("database").String(),
		AppMode:    res.Get("app_mode").String(),
	}, nil
}
