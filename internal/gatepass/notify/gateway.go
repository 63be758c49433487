package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type GatewayConfig struct {
	BaseURL string // e.g. https://api.coolsms.co.kr
	APIKey  string
	Sender  string // registered caller number
	Timeout time.Duration
}

// Gateway posts messages to an SMS/MMS HTTP API.
type Gateway struct {
	cfg    GatewayConfig
	client *http.Client
}

func NewGateway(cfg GatewayConfig, client *http.Client) (*Gateway, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("notify: gateway base_url is required")
	}
	if cfg.Sender == "" {
		return nil, errors.New("notify: gateway sender is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gateway{cfg: cfg, client: client}, nil
}

type gatewayAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type gatewayMessage struct {
	To         string             `json:"to"`
	From       string             `json:"from"`
	Text       string             `json:"text"`
	Type       string             `json:"type"`
	Attachment *gatewayAttachment `json:"attachment,omitempty"`
}

type gatewayRequest struct {
	Message gatewayMessage `json:"message"`
}

type gatewayResponse struct {
	MessageID     string `json:"messageId"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

func (g *Gateway) Send(ctx context.Context, m Message) (Receipt, error) {
	if err := m.Validate(); err != nil {
		return Receipt{}, err
	}

	body := gatewayRequest{Message: gatewayMessage{
		To:   m.To,
		From: g.cfg.Sender,
		Text: m.Text,
		Type: m.Type(),
	}}
	if a := m.Attachment; a != nil {
		body.Message.Attachment = &gatewayAttachment{
			Name:        a.Name,
			ContentType: a.ContentType,
			Data:        base64.StdEncoding.EncodeToString(a.Data),
		}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return Receipt{}, fmt.Errorf("notify: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/messages/v4/send", bytes.NewReader(b))
	if err != nil {
		return Receipt{}, fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, &GatewayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out gatewayResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return Receipt{}, fmt.Errorf("notify: decode reply: %w", err)
		}
	}
	return Receipt{MessageID: out.MessageID, Status: out.StatusCode}, nil
}
