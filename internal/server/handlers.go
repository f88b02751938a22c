// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"loan-decision-pipeline/internal/common/errors"
	"loan-decision-pipeline/internal/common/validation"
	"loan-decision-pipeline/internal/models"
	"loan-decision-pipeline/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

const (
	maxRequestBody = 1 << 20 // 1 MiB
	persistTimeout = 10 * time.Second
)

// handleProcess validates the payload, runs the pipeline synchronously, and
// hands persistence, indexing, and escalation off to a background goroutine
// so the caller never waits on storage.
func (s *Server) handleProcess(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	if err := validation.ValidateRequest(raw); err != nil {
		vErr := errors.NewRequestValidationFailedError(err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "details": vErr.Details})
		return
	}

	var req orchestrator.Request
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request fields"})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Server.RequestTimeout)*time.Millisecond)
		defer cancel()
	}

	resp, err := s.pipeline.Process(ctx, &req)
	if err != nil {
		s.logger.WithError(err).Error("pipeline run failed", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	go s.persistRun(resp)

	c.JSON(http.StatusOK, resp)
}

// persistRun stores the snapshot row, indexes the masked signals, and
// notifies operations on a declined high-risk outcome. Each step is best
// effort: a storage outage never affects the already-sent response.
func (s *Server) persistRun(resp *models.OrchestratorResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	assessmentID := ""
	if s.assessments != nil {
		id, err := s.assessments.Save(ctx, resp)
		if err != nil {
			s.logger.WithError(err).Error("failed to persist assessment", errorFields(err))
		} else {
			assessmentID = id
		}
	}

	if s.signals != nil {
		if err := s.signals.IndexSignals(ctx, assessmentID, resp.Signals); err != nil {
			s.logger.WithError(err).Error("failed to index signals", errorFields(err))
		}
	}

	if s.notifier != nil {
		if declinedHighRisk(resp) {
			s.notifier.NotifyEscalation(ctx, assessmentID, &resp.Signals)
		}
		if resp.Signals.Offer != nil && resp.Signals.Offer.OfferAvailable {
			s.notifier.NotifyOffer(ctx, assessmentID, &resp.Signals)
		}
	}
}

// errorFields classifies a storage failure for the log line.
func errorFields(err error) map[string]interface{} {
	var stdErr *errors.StandardError
	if !stderrors.As(err, &stdErr) {
		return nil
	}
	return map[string]interface{}{
		"category":  errors.GetErrorCategory(stdErr.Code),
		"retryable": stdErr.Retryable,
	}
}

func declinedHighRisk(resp *models.OrchestratorResponse) bool {
	return resp.Signals.Underwriting != nil &&
		resp.Signals.Underwriting.Decision == models.DecisionDeclined &&
		resp.Signals.Risk != nil &&
		resp.Signals.Risk.RiskBand == models.RiskHigh
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"app":     s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}
