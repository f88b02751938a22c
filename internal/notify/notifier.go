// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"loan-decision-pipeline/internal/common/config"
	"loan-decision-pipeline/internal/common/errors"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
)

// Mailer is the slice of the SES wrapper the notifier needs.
type Mailer interface {
	SendPlainText(ctx context.Context, sender, recipient, subject, body string) error
}

// Publisher is the slice of the SNS wrapper the notifier needs.
type Publisher interface {
	PublishMessage(ctx context.Context, topicARN, subject, message string) error
}

// EscalationNotifier alerts the operations mailbox and topic when a case
// lands in the declined high-risk lattice corner. Notification failures are
// logged and swallowed so they never affect the caller's response.
type EscalationNotifier struct {
	cfg    config.NotificationConfig
	mailer Mailer
	topic  Publisher
	logger logger.Logger
}

func NewEscalationNotifier(cfg config.NotificationConfig, mailer Mailer, topic Publisher, log logger.Logger) *EscalationNotifier {
	return &EscalationNotifier{
		cfg:    cfg,
		mailer: mailer,
		topic:  topic,
		logger: log.WithFields(map[string]interface{}{"component": "escalation-notifier"}),
	}
}

// NotifyEscalation sends the declined high-risk alert over both channels.
func (n *EscalationNotifier) NotifyEscalation(ctx context.Context, sessionID string, signals *models.Signals) {
	if !n.cfg.Enabled {
		return
	}
	if signals == nil || signals.Underwriting == nil || signals.Risk == nil {
		return
	}

	subject := fmt.Sprintf("Loan case escalated: session %s", sessionID)
	body := buildEscalationBody(sessionID, signals)

	if n.mailer != nil && n.cfg.OpsMailbox != "" {
		if err := n.mailer.SendPlainText(ctx, n.cfg.Sender, n.cfg.OpsMailbox, subject, body); err != nil {
			stdErr := errors.NewNotificationSendFailedError("ses", err)
			n.logger.WithError(stdErr).Warn("escalation email failed", map[string]interface{}{
				"sessionId": sessionID,
			})
		}
	}

	if n.topic != nil && n.cfg.SNSTopicARN != "" {
		if err := n.topic.PublishMessage(ctx, n.cfg.SNSTopicARN, subject, body); err != nil {
			stdErr := errors.NewNotificationSendFailedError("sns", err)
			n.logger.WithError(stdErr).Warn("escalation publish failed", map[string]interface{}{
				"sessionId": sessionID,
			})
		}
	}
}

// NotifyOffer announces a successfully generated offer on the operations
// topic. Fire and forget, same failure policy as escalations.
func (n *EscalationNotifier) NotifyOffer(ctx context.Context, sessionID string, signals *models.Signals) {
	if !n.cfg.Enabled {
		return
	}
	if signals == nil || signals.Offer == nil || !signals.Offer.OfferAvailable {
		return
	}

	subject := fmt.Sprintf("Loan offer generated: session %s", sessionID)
	body := buildOfferBody(sessionID, signals.Offer)

	if n.topic != nil && n.cfg.SNSTopicARN != "" {
		if err := n.topic.PublishMessage(ctx, n.cfg.SNSTopicARN, subject, body); err != nil {
			stdErr := errors.NewNotificationSendFailedError("sns", err)
			n.logger.WithError(stdErr).Warn("offer publish failed", map[string]interface{}{
				"sessionId": sessionID,
			})
		}
	}
}

func buildOfferBody(sessionID string, offer *models.OfferResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", sessionID)
	fmt.Fprintf(&b, "Amount: %.2f\n", offer.LoanAmount)
	fmt.Fprintf(&b, "Rate: %.1f%% over %d months\n", offer.InterestRate, offer.TenureMonths)
	return b.String()
}

func buildEscalationBody(sessionID string, signals *models.Signals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", sessionID)
	fmt.Fprintf(&b, "Decision: %s\n", signals.Underwriting.Decision)
	fmt.Fprintf(&b, "Risk band: %s (score %.2f)\n", signals.Risk.RiskBand, signals.Risk.RiskScore)
	if len(signals.Risk.Reasons) > 0 {
		fmt.Fprintf(&b, "Risk reasons: %s\n", strings.Join(signals.Risk.Reasons, "; "))
	}
	if len(signals.Underwriting.Reasons) > 0 {
		fmt.Fprintf(&b, "Underwriting reasons: %s\n", strings.Join(signals.Underwriting.Reasons, "; "))
	}
	b.WriteString("A human review is required before any further action.\n")
	return b.String()
}
