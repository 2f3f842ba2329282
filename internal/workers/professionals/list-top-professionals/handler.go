// internal/workers/professionals/list-top-professionals/handler.go
package listtopprofessionals

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"estate-workers/internal/common/errors"
	"estate-workers/internal/common/logger"
	"estate-workers/internal/common/metrics"
	"estate-workers/internal/common/validation"
	"estate-workers/internal/models"
	"estate-workers/internal/session"
)

const (
	TaskType = "list-top-professionals"
)

type Ranker interface {
	ListTopProfessionals(ctx context.Context, limit int, refreshSeed *int64) ([]models.Professional, error)
}

type Handler struct {
	config       *Config
	ranker       Ranker
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, ranker Ranker, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ranker:       ranker,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	log := h.logger.WithFields(map[string]interface{}{
		"requestId": uuid.NewString(),
		"jobKey":    job.Key,
	})
	log.Info("processing job", map[string]interface{}{
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	start := time.Now()
	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	log.Info("top professionals listed", map[string]interface{}{
		"returned":    len(output.Professionals),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return errors.NewInternalError(err)
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return errors.NewInternalError(err)
	}
	return nil
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}

	result, err := validation.ValidateJSON(variables, GetInputSchema(h.config.MaxLimit))
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if !result.Valid {
		return nil, errors.NewInvalidRankingRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewParseError(err)
	}
	return &input, nil
}

// Execute returns the featured professionals for input. The session token in
// input, if any, identifies the caller.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := h.config.DefaultLimit
	if input.Limit != nil {
		if *input.Limit < 1 || (h.config.MaxLimit > 0 && *input.Limit > h.config.MaxLimit) {
			return nil, errors.NewInvalidRankingRequestError(fmt.Sprintf("limit must be between 1 and %d", h.config.MaxLimit))
		}
		limit = *input.Limit
	}
	if input.RefreshSeed != nil && *input.RefreshSeed < 0 {
		return nil, errors.NewInvalidRankingRequestError("refreshSeed must be >= 0")
	}

	ctx = session.ContextWithToken(ctx, input.SessionToken)
	top, err := h.ranker.ListTopProfessionals(ctx, limit, input.RefreshSeed)
	if err != nil {
		if stderrors.Is(err, session.ErrLookupFailed) {
			return nil, errors.NewSessionLookupFailedError(err)
		}
		return nil, errors.ClassifyDataError(TaskType, err)
	}

	metrics.RankingResultSize.WithLabelValues(TaskType, string(models.SortByRandom)).Observe(float64(len(top)))

	if top == nil {
		top = []models.Professional{}
	}
	return &Output{Professionals: top}, nil
}
