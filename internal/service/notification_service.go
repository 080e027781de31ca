package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/config"
	"github.com/why-platform/buzon-service/internal/domain"
)

// EscalationNotice is the payload fanned out over notification channels when
// a ticket escalates.
type EscalationNotice struct {
	TicketID   string
	Level      int
	Role       string
	Recipient  string
	Category   domain.Category
	Department string
	Priority   domain.Priority
	Reason     string
	SLAHours   int
	CreatedAt  time.Time
}

// NotificationChannel delivers an escalation notice over one medium.
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, notice EscalationNotice) error
}

// NotificationService fans an escalation out to the channels the ticket's
// priority warrants. A failed channel never blocks the others.
type NotificationService struct {
	channels []NotificationChannel
	logger   *zap.Logger
}

func NewNotificationService(cfg config.EscalationConfig, logger *zap.Logger) *NotificationService {
	channels := []NotificationChannel{
		newEmailChannel(cfg, logger),
	}
	if cfg.SlackWebhookURL != "" {
		channels = append(channels, newSlackChannel(cfg, logger))
	}
	if cfg.SMSAPIKey != "" {
		channels = append(channels, newSMSChannel(cfg, logger))
	}
	return &NotificationService{channels: channels, logger: logger}
}

// Dispatch sends the notice over every applicable channel, recording one
// outcome per channel. Email always goes out; Slack is skipped for low
// priority; SMS only fires for urgent tickets.
func (n *NotificationService) Dispatch(ctx context.Context, notice EscalationNotice) []domain.NotificationOutcome {
	outcomes := make([]domain.NotificationOutcome, 0, len(n.channels))
	for _, channel := range n.channels {
		if !channelApplies(channel.Name(), notice.Priority) {
			continue
		}
		outcome := domain.NotificationOutcome{
			Channel:   channel.Name(),
			Status:    "sent",
			Recipient: notice.Recipient,
			Timestamp: time.Now(),
		}
		if err := channel.Send(ctx, notice); err != nil {
			outcome.Status = "failed"
			outcome.Error = err.Error()
			n.logger.Warn("notification channel failed",
				zap.String("channel", channel.Name()),
				zap.String("ticket_id", notice.TicketID),
				zap.Error(err))
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func channelApplies(channel string, priority domain.Priority) bool {
	switch channel {
	case "slack":
		return priority != domain.PriorityLow
	case "sms":
		return priority == domain.PriorityUrgent
	default:
		return true
	}
}

// emailChannel logs the outgoing mail. It becomes a real sender once an SMTP
// relay is provisioned; the interface already carries everything needed.
type emailChannel struct {
	from   string
	logger *zap.Logger
}

func newEmailChannel(cfg config.EscalationConfig, logger *zap.Logger) *emailChannel {
	return &emailChannel{from: cfg.EmailFrom, logger: logger}
}

func (e *emailChannel) Name() string { return "email" }

func (e *emailChannel) Send(_ context.Context, notice EscalationNotice) error {
	e.logger.Info("escalation email dispatched",
		zap.String("from", e.from),
		zap.String("to", notice.Recipient),
		zap.String("ticket_id", notice.TicketID),
		zap.Int("level", notice.Level),
		zap.String("role", notice.Role))
	return nil
}

// slackChannel posts an attachment-style alert to the configured incoming
// webhook.
type slackChannel struct {
	webhookURL string
	channel    string
	dashboard  string
	httpClient *http.Client
	logger     *zap.Logger
}

func newSlackChannel(cfg config.EscalationConfig, logger *zap.Logger) *slackChannel {
	return &slackChannel{
		webhookURL: cfg.SlackWebhookURL,
		channel:    cfg.SlackChannel,
		dashboard:  cfg.DashboardURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *slackChannel) Name() string { return "slack" }

func (s *slackChannel) Send(ctx context.Context, notice EscalationNotice) error {
	text := fmt.Sprintf("🚨 Escalamiento Nivel %d — ticket %s (%s / %s) asignado a %s",
		notice.Level, notice.TicketID, notice.Category, notice.Department, notice.Role)
	payload := map[string]any{
		"channel": s.channel,
		"text":    text,
		"attachments": []map[string]any{
			{
				"color": slackColor(notice.Priority),
				"fields": []map[string]any{
					{"title": "Ticket", "value": notice.TicketID, "short": true},
					{"title": "Prioridad", "value": string(notice.Priority), "short": true},
					{"title": "Departamento", "value": notice.Department, "short": true},
					{"title": "SLA", "value": fmt.Sprintf("%dh", notice.SLAHours), "short": true},
					{"title": "Motivo", "value": notice.Reason, "short": false},
				},
			},
		},
	}
	if s.dashboard != "" {
		payload["attachments"].([]map[string]any)[0]["title_link"] = s.dashboard
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}

func slackColor(priority domain.Priority) string {
	switch priority {
	case domain.PriorityUrgent:
		return "#e01e5a"
	case domain.PriorityHigh:
		return "#e8912d"
	default:
		return "#2eb67d"
	}
}

// smsChannel logs the outgoing text. The provider integration lands when an
// API account exists; only urgent tickets ever reach this channel.
type smsChannel struct {
	apiKey string
	logger *zap.Logger
}

func newSMSChannel(cfg config.EscalationConfig, logger *zap.Logger) *smsChannel {
	return &smsChannel{apiKey: cfg.SMSAPIKey, logger: logger}
}

func (s *smsChannel) Name() string { return "sms" }

func (s *smsChannel) Send(_ context.Context, notice EscalationNotice) error {
	s.logger.Info("escalation sms dispatched",
		zap.String("to", notice.Recipient),
		zap.String("ticket_id", notice.TicketID),
		zap.Int("level", notice.Level))
	return nil
}
