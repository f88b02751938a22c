// internal/workers/loan-decision/handler.go
package loandecision

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"loan-decision-pipeline/internal/common/errors"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
	"loan-decision-pipeline/internal/orchestrator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "loan-decision"

// Processor runs one decision pipeline pass.
type Processor interface {
	Process(ctx context.Context, req *orchestrator.Request) (*models.OrchestratorResponse, error)
}

// Input mirrors the process-instance variables the job carries.
type Input struct {
	Message         string                 `json:"message"`
	CustomerID      string                 `json:"customer_id"`
	ApplicationData map[string]interface{} `json:"application_data"`
	Documents       map[string]interface{} `json:"documents"`
}

// Output is written back onto the process instance.
type Output struct {
	AssistantReply string                  `json:"assistant_reply"`
	Actions        []string                `json:"actions"`
	Confidence     models.ConfidenceScores `json:"confidence"`
	Decision       string                  `json:"decision"`
	RiskBand       string                  `json:"risk_band"`
	OfferAvailable bool                    `json:"offer_available"`
}

// Handler bridges Zeebe jobs onto the decision pipeline.
type Handler struct {
	pipeline Processor
	timeout  time.Duration
	logger   logger.Logger
}

func NewHandler(pipeline Processor, timeout time.Duration, log logger.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		timeout:  timeout,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	resp, err := h.pipeline.Process(ctx, &orchestrator.Request{
		Message:         input.Message,
		CustomerID:      input.CustomerID,
		ApplicationData: input.ApplicationData,
		Documents:       input.Documents,
	})
	if err != nil {
		h.failJob(client, job, err, retriesFor(err))
		return err
	}

	h.completeJob(client, job, buildOutput(resp))
	return nil
}

// retriesFor maps a pipeline error onto a Zeebe retry budget. Classified
// errors carry their own retry policy; anything else gets one more attempt.
func retriesFor(err error) int32 {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		if !errors.IsRetryableErrorCode(stdErr.Code) {
			return 0
		}
		return int32(errors.GetRetryCount(stdErr.Code))
	}
	return 1
}

func buildOutput(resp *models.OrchestratorResponse) *Output {
	out := &Output{
		AssistantReply: resp.AssistantReply,
		Actions:        resp.Actions,
		Confidence:     resp.Confidence,
	}
	if uw := resp.Signals.Underwriting; uw != nil {
		out.Decision = string(uw.Decision)
	}
	if risk := resp.Signals.Risk; risk != nil {
		out.RiskBand = string(risk.RiskBand)
	}
	if offer := resp.Signals.Offer; offer != nil {
		out.OfferAvailable = offer.OfferAvailable
	}
	return out
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey": job.Key,
		"error":  err.Error(),
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(err.Error()).
		Send(context.Background())
}
