// internal/workers/professionals/list-professionals/handler.go
package listprofessionals

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
	"estate-workers/internal/ranking"
	"estate-workers/internal/session"
)

const (
	TaskType = "list-professionals"
)

// Ranker is the ranking operation this worker exposes.
type Ranker interface {
	ListProfessionals(ctx context.Context, req ranking.ListRequest) (*ranking.ListResult, error)
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
	output, err := h.execute(session.ContextWithToken(ctx, input.SessionToken), input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	log.Info("professionals listed", map[string]interface{}{
		"returned":    len(output.Professionals),
		"totalCount":  output.TotalCount,
		"currentPage": output.CurrentPage,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if err := h.completeJob(client, job, output); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

// parseInput validates the raw job variables before decoding them.
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	req, err := h.toRequest(input)
	if err != nil {
		return nil, err
	}

	result, err := h.ranker.ListProfessionals(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	metrics.RankingResultSize.WithLabelValues(TaskType, string(req.SortBy)).Observe(float64(len(result.Professionals)))

	professionals := result.Professionals
	if professionals == nil {
		professionals = []models.Professional{}
	}
	return &Output{
		Professionals:    professionals,
		TotalCount:       result.TotalCount,
		TotalPages:       result.TotalPages,
		ActualTotalPages: result.ActualTotalPages,
		CurrentPage:      result.CurrentPage,
		HasMore:          result.HasMore,
	}, nil
}

// toRequest applies defaults and rejects values the ranker does not accept.
func (h *Handler) toRequest(input *Input) (ranking.ListRequest, error) {
	req := ranking.ListRequest{
		Role:        models.RoleAll,
		Page:        1,
		Limit:       h.config.DefaultLimit,
		Search:      strings.TrimSpace(input.Search),
		SortBy:      models.SortByRandom,
		RefreshSeed: input.RefreshSeed,
	}

	if input.Role != "" {
		req.Role = models.Role(strings.ToUpper(input.Role))
		if !req.Role.Valid() {
			return req, errors.NewInvalidRankingRequestError(fmt.Sprintf("unknown role %q", input.Role))
		}
	}
	if input.SortBy != "" {
		req.SortBy = models.SortOption(input.SortBy)
		if !req.SortBy.Valid() {
			return req, errors.NewInvalidRankingRequestError(fmt.Sprintf("unknown sortBy %q", input.SortBy))
		}
	}
	if input.Page != nil {
		if *input.Page < 1 {
			return req, errors.NewInvalidRankingRequestError("page must be >= 1")
		}
		req.Page = *input.Page
	}
	if input.Limit != nil {
		if *input.Limit < 1 || (h.config.MaxLimit > 0 && *input.Limit > h.config.MaxLimit) {
			return req, errors.NewInvalidRankingRequestError(fmt.Sprintf("limit must be between 1 and %d", h.config.MaxLimit))
		}
		req.Limit = *input.Limit
	}
	if input.RefreshSeed != nil && *input.RefreshSeed < 0 {
		return req, errors.NewInvalidRankingRequestError("refreshSeed must be >= 0")
	}
	return req, nil
}

func classify(err error) *errors.StandardError {
	if stderrors.Is(err, session.ErrLookupFailed) {
		return errors.NewSessionLookupFailedError(err)
	}
	return errors.ClassifyDataError(TaskType, err)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// Execute runs the listing for an already decoded input. The session token in
// input, if any, identifies the caller.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(session.ContextWithToken(ctx, input.SessionToken), input)
}
