// internal/store/assessments.go
package store

import (
	"context"
	"time"

	"loan-decision-pipeline/internal/common/database"
	"loan-decision-pipeline/internal/common/errors"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const insertAssessmentSQL = `
	INSERT INTO loan_assessments (
		id, customer_id, intent, decision, risk_band, risk_score,
		emi_ratio, credit_score, offer_available, blocked_by,
		decision_confidence, reply_confidence, reasons, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// AssessmentStore persists one immutable row per completed pipeline run.
// Writes happen after the response is computed and never block it.
type AssessmentStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewAssessmentStore(db *database.PostgresClient, log logger.Logger) *AssessmentStore {
	return &AssessmentStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "assessment_store"}),
	}
}

// Save writes the decision snapshot for one orchestration run and returns
// the generated assessment ID.
func (s *AssessmentStore) Save(ctx context.Context, resp *models.OrchestratorResponse) (string, error) {
	id := uuid.NewString()

	var (
		intent         string
		decision       string
		riskBand       string
		riskScore      float64
		emiRatio       float64
		creditScore    float64
		offerAvailable bool
		blockedBy      string
		reasons        []string
	)

	if resp.Signals.Intent != nil {
		intent = resp.Signals.Intent.Intent
	}
	if uw := resp.Signals.Underwriting; uw != nil {
		decision = string(uw.Decision)
		emiRatio = uw.EMIRatio
		creditScore = uw.CreditScore
		reasons = uw.Reasons
	}
	if risk := resp.Signals.Risk; risk != nil {
		riskBand = string(risk.RiskBand)
		riskScore = risk.RiskScore
		reasons = append(reasons, risk.Reasons...)
	}
	if offer := resp.Signals.Offer; offer != nil {
		offerAvailable = offer.OfferAvailable
		blockedBy = offer.BlockedBy
	}

	_, err := s.db.Exec(ctx, insertAssessmentSQL,
		id,
		resp.Signals.CustomerID,
		intent,
		decision,
		riskBand,
		riskScore,
		emiRatio,
		creditScore,
		offerAvailable,
		blockedBy,
		resp.Confidence.DecisionConfidence,
		resp.Confidence.ReplyConfidence,
		pq.Array(reasons),
		time.Now().UTC(),
	)
	if err != nil {
		return "", errors.NewAssessmentPersistFailedError(err)
	}

	s.logger.Info("assessment persisted", map[string]interface{}{
		"assessment_id": id,
		"decision":      decision,
		"risk_band":     riskBand,
	})
	return id, nil
}
