package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/eventease-dev/eventease/internal/metrics"
	"github.com/eventease-dev/eventease/internal/models"
	"go.uber.org/zap"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorGreen = 65280    // #00FF00 - Task completed
	ColorBlue  = 3447003  // #3498DB - Checklist generated
	ColorAmber = 16753920 // #FFA500 - Ownership changed

	Username = "EventEase"

	webhookTimeout = 10 * time.Second
)

// Webhook targets an event owner may configure.
const (
	TargetDiscord = "discord"
	TargetSlack   = "slack"
)

var webhookHosts = map[string][]string{
	TargetDiscord: {"discord.com", "discordapp.com", "ptb.discord.com", "canary.discord.com"},
	TargetSlack:   {"hooks.slack.com"},
}

var webhookPaths = map[string]string{
	TargetDiscord: "/api/webhooks/",
	TargetSlack:   "/services/",
}

// ValidWebhookURL reports whether raw is an https incoming-webhook URL of the
// given target. Empty means not configured.
func ValidWebhookURL(target, raw string) bool {
	if raw == "" {
		return true
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.User != nil || u.Port() != "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range webhookHosts[target] {
		if host == allowed {
			return strings.HasPrefix(u.Path, webhookPaths[target])
		}
	}
	return false
}

// Notification is one event activity message, rendered for both targets.
type Notification struct {
	Title       string
	Description string
	Color       int
	SlackColor  string
	SlackEmoji  string
	Fields      []DiscordWebhookField
}

var priorityNames = map[int]string{
	models.PriorityImportant: "Important",
	models.PriorityNecessary: "Necessary",
	models.PriorityNormal:    "Normal",
}

func TaskCompletedNotification(task models.Task, completedBy string) Notification {
	item := "None"
	if task.Item != nil {
		item = *task.Item
	}

	return Notification{
		Title:       "✅ **TASK COMPLETED**",
		Description: fmt.Sprintf("**%s** was checked off.", task.Description),
		Color:       ColorGreen,
		SlackColor:  "good",
		SlackEmoji:  ":white_check_mark:",
		Fields: []DiscordWebhookField{
			{Name: "📝 Task", Value: task.Description, Inline: false},
			{Name: "👤 Completed By", Value: completedBy, Inline: true},
			{Name: "⚠️ Priority", Value: priorityNames[task.Priority], Inline: true},
			{Name: "📦 Required Item", Value: item, Inline: true},
		},
	}
}

func ChecklistCreatedNotification(count int, createdBy string) Notification {
	return Notification{
		Title:       "📋 **CHECKLIST GENERATED**",
		Description: fmt.Sprintf("The assistant added %d tasks to the checklist.", count),
		Color:       ColorBlue,
		SlackColor:  "#3498DB",
		SlackEmoji:  ":clipboard:",
		Fields: []DiscordWebhookField{
			{Name: "👤 Requested By", Value: createdBy, Inline: true},
			{Name: "🔢 Tasks", Value: fmt.Sprintf("%d", count), Inline: true},
		},
	}
}

func OwnershipTransferredNotification(from, to string) Notification {
	return Notification{
		Title:       "🔑 **OWNERSHIP TRANSFERRED**",
		Description: fmt.Sprintf("**%s** handed the event over to **%s**.", from, to),
		Color:       ColorAmber,
		SlackColor:  "warning",
		SlackEmoji:  ":key:",
		Fields: []DiscordWebhookField{
			{Name: "Previous Owner", Value: from, Inline: true},
			{Name: "New Owner", Value: to, Inline: true},
		},
	}
}

// Notifier posts event activity to the Discord and Slack webhooks configured
// on each event.
type Notifier struct {
	client *http.Client
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewNotifier(client *http.Client, logger *zap.Logger) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: webhookTimeout}
	}
	return &Notifier{client: client, logger: logger}
}

// Dispatch sends in the background; failures are logged.
func (n *Notifier) Dispatch(event models.Event, notification Notification) {
	if event.DiscordWebhook == "" && event.SlackWebhook == "" {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()

		if err := n.Send(ctx, event, notification); err != nil {
			n.logger.Warn("Failed to deliver event webhook", zap.Uint("event_id", event.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until background deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) Send(ctx context.Context, event models.Event, notification Notification) error {
	if event.DiscordWebhook != "" {
		err := n.sendDiscord(ctx, event.DiscordWebhook, event, notification)
		metrics.Get().WebhooksTotal.WithLabelValues("discord", metrics.Outcome(err)).Inc()
		if err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if event.SlackWebhook != "" {
		err := n.sendSlack(ctx, event.SlackWebhook, event, notification)
		metrics.Get().WebhooksTotal.WithLabelValues("slack", metrics.Outcome(err)).Inc()
		if err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func (n *Notifier) sendDiscord(ctx context.Context, webhookURL string, event models.Event, notification Notification) error {
	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       notification.Title,
				Description: notification.Description,
				Color:       notification.Color,
				Fields:      notification.Fields,
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Event: %s | %s", event.Name, event.Date.Format("2006-01-02")),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	return n.post(ctx, webhookURL, payload)
}

func (n *Notifier) sendSlack(ctx context.Context, webhookURL string, event models.Event, notification Notification) error {
	fields := make([]SlackField, 0, len(notification.Fields))
	for _, f := range notification.Fields {
		fields = append(fields, SlackField{Title: f.Name, Value: f.Value, Short: f.Inline})
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: notification.SlackEmoji,
		Text:      notification.SlackEmoji + " " + notification.Title,
		Attachments: []SlackAttachment{
			{
				Color:     notification.SlackColor,
				Title:     event.Name,
				Text:      notification.Description,
				Fields:    fields,
				Footer:    fmt.Sprintf("Event date: %s", event.Date.Format("2006-01-02")),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return n.post(ctx, webhookURL, payload)
}

func (n *Notifier) post(ctx context.Context, webhookURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
