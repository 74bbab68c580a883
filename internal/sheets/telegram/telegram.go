// Package telegram delivers alerts and digests as chat messages through the
// Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendwise/internal/core"
	ports "spendwise/internal/sheets"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const dateLayout = "Jan 2"

type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ ports.Exporter = (*Client)(nil)

// New connects to the Bot API and verifies the token with getMe.
func New(token string, chatID int64) (*Client, error) {
	return NewWithEndpoint(token, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: 15 * time.Second})
}

// NewWithEndpoint is New against a custom endpoint. endpoint is a format
// string taking the token and the method name.
func NewWithEndpoint(token string, chatID int64, endpoint string, httpClient tgbotapi.HTTPClient) (*Client, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	return &Client{bot: bot, chatID: chatID}, nil
}

// BotName is the username the token belongs to.
func (c *Client) BotName() string {
	return c.bot.Self.UserName
}

func (c *Client) ExportDigest(ctx context.Context, user core.User, d core.WeeklyDigest) (string, error) {
	return c.send(ctx, DigestText(user, d))
}

func (c *Client) ExportAlert(ctx context.Context, user core.User, a core.BudgetAlert) (string, error) {
	return c.send(ctx, AlertText(user, a))
}

func (c *Client) send(ctx context.Context, text string) (string, error) {
	// the bot library has no context support
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg, err := c.bot.Send(tgbotapi.NewMessage(c.chatID, text))
	if err != nil {
		return "", fmt.Errorf("telegram send: %w", err)
	}
	return fmt.Sprintf("tg:%d", msg.MessageID), nil
}

// DigestText renders a digest as a short multi-line message.
func DigestText(user core.User, d core.WeeklyDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly digest for %s (%s - %s)\n", user.Name,
		d.WeekStart.Format(dateLayout), d.WeekEnd.Format(dateLayout))
	fmt.Fprintf(&b, "Total: %s\n", d.TotalSpent.Dollars())
	if breakdown := ports.FormatBreakdown(d.CategoryBreakdown); breakdown != "" {
		b.WriteString(breakdown + "\n")
	}
	b.WriteString(d.Message)
	return strings.TrimRight(b.String(), "\n")
}

func AlertText(user core.User, a core.BudgetAlert) string {
	return fmt.Sprintf("Budget alert for %s: %s\nSpent %s of %s (%.1f%%)",
		user.Name, a.Message, a.Amount.Dollars(), a.Budget.Dollars(), a.Percentage)
}
