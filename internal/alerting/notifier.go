package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Alert 封装一条合格的奖励舱位告警。
type Alert struct {
	Origin         string
	Destination    string
	Date           string
	Cabin          string
	Source         string
	MileageCost    *int
	Taxes          *decimal.Decimal
	TaxesCurrency  string
	RemainingSeats *int
	Signature      string
	CycleID        string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, alert Alert) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(alert),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().
		Str("route", alert.Origin+"-"+alert.Destination).
		Str("date", alert.Date).
		Str("source", alert.Source).
		Msg("告警已发送 (Telegram)")
	return nil
}

func renderMessage(alert Alert) string {
	builder := strings.Builder{}
	builder.WriteString("[Award Seat Alert]\n")
	builder.WriteString(fmt.Sprintf("Route: %s -> %s\n", alert.Origin, alert.Destination))
	builder.WriteString(fmt.Sprintf("Date: %s\n", alert.Date))
	builder.WriteString(fmt.Sprintf("Cabin: %s\n", alert.Cabin))
	builder.WriteString(fmt.Sprintf("Program: %s\n", alert.Source))
	if alert.MileageCost != nil {
		builder.WriteString(fmt.Sprintf("Mileage: %s\n", formatMiles(*alert.MileageCost)))
	}
	if alert.Taxes != nil {
		currency := alert.TaxesCurrency
		if currency == "" {
			currency = "USD"
		}
		builder.WriteString(fmt.Sprintf("Taxes: %s %s\n", alert.Taxes.StringFixed(2), currency))
	}
	if alert.RemainingSeats != nil {
		builder.WriteString(fmt.Sprintf("Seats: %d\n", *alert.RemainingSeats))
	}
	builder.WriteString(fmt.Sprintf("Signature: %s\n", shortSignature(alert.Signature)))
	return builder.String()
}

func formatMiles(miles int) string {
	s := strconv.Itoa(miles)
	if len(s) <= 3 {
		return s
	}
	var out strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		out.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(s[i : i+3])
	}
	return out.String()
}

func shortSignature(sig string) string {
	if len(sig) > 12 {
		return sig[:12]
	}
	return sig
}

var _ Notifier = (*TelegramNotifier)(nil)
