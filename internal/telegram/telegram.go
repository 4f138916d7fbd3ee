package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propertyreport/internal/models"
	"propertyreport/internal/pipeline"
	"propertyreport/internal/report"
)

const defaultAPIURL = "https://api.telegram.org"

type Service struct {
	logger *logrus.Logger
	client *http.Client

	mu     sync.RWMutex
	config models.TelegramConfig
}

func NewService(logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Service) UpdateConfig(config models.TelegramConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

func (s *Service) Config() models.TelegramConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(message string) error {
	cfg := s.Config()
	if !cfg.IsEnabled {
		return nil
	}

	if cfg.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if cfg.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	base := cfg.APIURL
	if base == "" {
		base = defaultAPIURL
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(base, "/"), cfg.BotToken)
	payload := map[string]interface{}{
		"chat_id":    cfg.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyReport sends a summary of a generated report
func (s *Service) NotifyReport(r *pipeline.Result) error {
	if r == nil || !s.Config().IsEnabled {
		return nil
	}
	if err := s.SendMessage(FormatReport(r)); err != nil {
		return err
	}
	s.logger.WithField("report_id", r.ID).Debug("Report notification sent")
	return nil
}

// FormatReport renders the notification text for a report.
func FormatReport(r *pipeline.Result) string {
	var b strings.Builder
	b.WriteString("<b>Investment Report Ready</b>\n\n")
	fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(r.Address))
	fmt.Fprintf(&b, "📄 %s (%d pages)\n", html.EscapeString(r.Filename), r.Pages)

	m := r.Metrics
	if m.Degraded {
		b.WriteString("⚠️ Investment figures unavailable\n")
	} else {
		fmt.Fprintf(&b, "💰 Total investment: %s\n", report.FormatGBP(m.TotalInvestment))
		fmt.Fprintf(&b, "📈 Yield %s | ROI %s\n", report.FormatPercent(m.RentalYieldPct), report.FormatPercent(m.ROIPct))
	}
	if r.Placeholder > 0 {
		fmt.Fprintf(&b, "🖼️ %d image placeholders\n", r.Placeholder)
	}
	return strings.TrimRight(b.String(), "\n")
}
