package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/protocol"
	"github.com/smukkama/symptom-intel/internal/queue"
	"github.com/smukkama/symptom-intel/pkg/config"
)

// Gateway delivers one rendered message to one recipient. Callers treat it
// as fire-and-forget; errors are counted, never retried.
type Gateway interface {
	Send(ctx context.Context, recipient, message string) error
}

// LogGateway records notifications in the log instead of delivering them.
// Message bodies carry patient contact details, so only their size is logged.
type LogGateway struct {
	log *logger.Logger
}

func NewLogGateway(log *logger.Logger) *LogGateway {
	return &LogGateway{log: log}
}

func (g *LogGateway) Send(ctx context.Context, recipient, message string) error {
	g.log.Info("notification", "recipient", recipient, "length", utf8.RuneCountInString(message))
	return nil
}

// KafkaGateway queues notifications on the notifications topic for
// cmd/notifier. The key is the recipient so one phone stays ordered.
type KafkaGateway struct {
	publisher queue.Publisher
	now       func() time.Time
}

func NewKafkaGateway(publisher queue.Publisher) *KafkaGateway {
	return &KafkaGateway{publisher: publisher, now: time.Now}
}

func (g *KafkaGateway) Send(ctx context.Context, recipient, message string) error {
	msg := &protocol.NotificationMessage{
		ID:        uuid.New().String(),
		Recipient: recipient,
		Message:   message,
		CreatedAt: g.now().UTC(),
	}
	if err := queue.PublishJSON(ctx, g.publisher, recipient, msg); err != nil {
		return fmt.Errorf("%w: %v", model.ErrGatewayUnavailable, err)
	}
	return nil
}

// SMSGateway posts to a Twilio-compatible Messages endpoint
type SMSGateway struct {
	cfg    *config.SMSConfig
	client *http.Client
}

func NewSMSGateway(cfg *config.SMSConfig, timeout time.Duration) *SMSGateway {
	return &SMSGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *SMSGateway) Send(ctx context.Context, recipient, message string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json",
		strings.TrimRight(g.cfg.BaseURL, "/"), url.PathEscape(g.cfg.AccountSID))

	form := url.Values{}
	form.Set("To", recipient)
	form.Set("From", g.cfg.From)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(g.cfg.AccountSID, g.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: sms provider returned %d: %s",
			model.ErrGatewayUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
