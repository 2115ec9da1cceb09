package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// WahaConfig configures the WhatsApp HTTP API client.
type WahaConfig struct {
	BaseURL     string
	APIKey      string
	Session     string
	CountryCode string
	Timeout     time.Duration
}

// WahaNotifier sends reminders as WhatsApp messages through a WAHA server.
type WahaNotifier struct {
	cfg    WahaConfig
	client *http.Client
	logger *zap.Logger
}

func NewWahaNotifier(cfg WahaConfig, logger *zap.Logger) *WahaNotifier {
	if cfg.Session == "" {
		cfg.Session = "default"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &WahaNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (n *WahaNotifier) SendReminder(ctx context.Context, r Reminder) error {
	chatID := NormalizeChatID(r.Phone, n.cfg.CountryCode)
	if err := n.sendText(ctx, chatID, r.Message()); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	n.logger.Debug("reminder delivered", zap.String("chat_id", chatID))
	return nil
}

func (n *WahaNotifier) sendText(ctx context.Context, chatID, text string) error {
	return n.makeRequest(ctx, http.MethodPost, "/api/sendText", map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": n.cfg.Session,
	})
}

func (n *WahaNotifier) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, n.cfg.BaseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if n.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", n.cfg.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// NormalizeChatID turns a phone number into a WhatsApp chat id. Local numbers
// starting with 0 get countryCode; a leading + and separators are dropped.
func NormalizeChatID(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)

	if strings.HasSuffix(phone, "@g.us") {
		return phone
	}

	phone = strings.TrimSuffix(phone, "@c.us")
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	phone = strings.TrimPrefix(phone, "+")

	if strings.HasPrefix(phone, "0") && countryCode != "" {
		phone = countryCode + strings.TrimPrefix(phone, "0")
	}

	return phone + "@c.us"
}
