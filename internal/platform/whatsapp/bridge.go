package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// bridgePort talks to the external WhatsApp gateway over HTTP. The gateway
// owns the actual device sessions; this side only drives pairing and sends.
type bridgePort struct {
	baseURL    string
	hospitalID string
	client     *http.Client
}

// NewBridgeFactory returns a PortFactory backed by the gateway at baseURL.
// A nil client gets a default with a 30s timeout.
func NewBridgeFactory(baseURL string, client *http.Client) PortFactory {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return func(hospitalID string) Port {
		return &bridgePort{baseURL: baseURL, hospitalID: hospitalID, client: client}
	}
}

func (p *bridgePort) url(path string) string {
	return p.baseURL + "/sessions/" + p.hospitalID + path
}

func (p *bridgePort) do(ctx context.Context, method, url string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp gateway: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoSession
	case resp.StatusCode >= 500:
		return fmt.Errorf("whatsapp gateway returned %d: %w", resp.StatusCode, ErrSessionUnavailable)
	case resp.StatusCode >= 400:
		return fmt.Errorf("whatsapp gateway returned %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (p *bridgePort) Open(ctx context.Context) (string, error) {
	var body struct {
		QR string `json:"qr"`
	}
	if err := p.do(ctx, http.MethodPost, p.url("/open"), nil, &body); err != nil {
		return "", err
	}
	return body.QR, nil
}

func (p *bridgePort) Ready(ctx context.Context) (bool, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := p.do(ctx, http.MethodGet, p.url("/status"), nil, &body); err != nil {
		return false, err
	}
	return body.Status == string(StatusActive), nil
}

func (p *bridgePort) Send(ctx context.Context, to, message string) error {
	payload := map[string]string{"to": to, "body": message}
	return p.do(ctx, http.MethodPost, p.url("/messages"), payload, nil)
}

func (p *bridgePort) Close(ctx context.Context) error {
	return p.do(ctx, http.MethodDelete, p.url(""), nil, nil)
}
