// Package pipeline chains the research, writing, and editing stages into one
// pipeline invocation. Each stage is a fresh conversation: only the prior
// stage's accepted output is carried forward, embedded in the next stage's
// task message.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lamim/blogforge/internal/api"
	"github.com/lamim/blogforge/internal/config"
	"github.com/lamim/blogforge/internal/metrics"
	"github.com/lamim/blogforge/internal/sanitize"
	"github.com/lamim/blogforge/internal/util"
	"github.com/lamim/blogforge/pkg/models"
)

// Completer is the surface the pipeline needs from the completion client
type Completer interface {
	Complete(ctx context.Context, modelCfg config.ModelConfig, apiKey string, instruction, task string) (string, error)
}

// Hooks observe stage lifecycle transitions. Used by the CLI for progress
// display and by the server for live job status.
type Hooks struct {
	OnStageStart func(role models.Role)
	OnStageDone  func(result models.StageResult)
}

// Pipeline runs the three stages in fixed order, short-circuiting on the
// first failure
type Pipeline struct {
	cfg       *config.Config
	secrets   *config.Secrets
	client    Completer
	sanitizer sanitize.Func
	validator *Validator
	collector *metrics.Collector
	logger    *slog.Logger
	hooks     Hooks
}

// New creates a pipeline with the default sanitizer and validator rule set.
// collector may be nil when metrics are not wanted.
func New(
	cfg *config.Config,
	secrets *config.Secrets,
	client Completer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		secrets:   secrets,
		client:    client,
		sanitizer: sanitize.Sanitize,
		validator: NewValidator(),
		collector: collector,
		logger:    logger,
	}
}

// SetSanitizer replaces the sanitizer strategy
func (p *Pipeline) SetSanitizer(fn sanitize.Func) {
	p.sanitizer = fn
}

// SetValidator replaces the validator rule set
func (p *Pipeline) SetValidator(v *Validator) {
	p.validator = v
}

// SetHooks registers stage lifecycle observers
func (p *Pipeline) SetHooks(h Hooks) {
	p.hooks = h
}

// Run executes one pipeline invocation for the given topic. Stages run
// strictly sequentially; the first stage that fails produces a failure
// outcome naming that role and its reason, and later stages are never
// invoked. An unaccepted stage result is never forwarded as input.
func (p *Pipeline) Run(ctx context.Context, topic string) models.PipelineOutcome {
	start := time.Now()
	if p.collector != nil {
		p.collector.PipelineStarted()
		defer p.collector.PipelineFinished()
	}

	p.logger.Info("Starting blog generation pipeline", "topic", util.TruncateString(topic, 120))

	outcome := models.PipelineOutcome{}
	input := topic

	for _, role := range models.Roles {
		result := p.runStage(ctx, role, input)
		outcome.Stages = append(outcome.Stages, result)

		if !result.Accepted() {
			outcome.FailedStage = role
			outcome.FailureMessage = fmt.Sprintf("%s stage failed: %s", role.Display(), result.RejectionReason)
			outcome.Duration = time.Since(start)

			p.logger.Error("Pipeline halted",
				"failed_stage", role,
				"reason", result.RejectionReason,
				"duration", outcome.Duration)
			if p.collector != nil {
				p.collector.RecordPipeline(false, outcome.Duration)
			}
			return outcome
		}

		input = result.SanitizedText
	}

	outcome.Success = true
	outcome.FinalContent = input
	outcome.Duration = time.Since(start)

	p.logger.Info("Pipeline completed",
		"final_length", len(outcome.FinalContent),
		"duration", outcome.Duration)
	if p.collector != nil {
		p.collector.RecordPipeline(true, outcome.Duration)
	}
	return outcome
}

// Stats summarizes a finished outcome teacher-style for end-of-run logging
func Stats(outcome models.PipelineOutcome, start time.Time) models.SessionStats {
	stats := models.SessionStats{
		StartTime:     start,
		EndTime:       start.Add(outcome.Duration),
		StagesRun:     len(outcome.Stages),
		TotalDuration: outcome.Duration,
	}
	for _, stage := range outcome.Stages {
		if stage.Accepted() {
			stats.StagesCompleted++
		} else {
			stats.StagesFailed++
		}
	}
	return stats
}

func (p *Pipeline) runStage(ctx context.Context, role models.Role, input string) (result models.StageResult) {
	result = models.StageResult{Role: role, Status: models.StagePending}

	if p.hooks.OnStageStart != nil {
		p.hooks.OnStageStart(role)
	}

	start := time.Now()
	// The named return matters here: the deferred duration must land on the
	// value the caller receives, not a copy.
	defer func() {
		result.Duration = time.Since(start)
		if p.collector != nil {
			p.collector.RecordStage(string(role), result.Duration, result.Accepted())
		}
		if p.hooks.OnStageDone != nil {
			p.hooks.OnStageDone(result)
		}
	}()

	task, err := p.taskMessage(role, input)
	if err != nil {
		result.Status = models.StageFailed
		result.RejectionReason = fmt.Sprintf("failed to build task message: %v", err)
		p.logger.Error("Task message rendering failed", "role", role, "error", err)
		return result
	}

	modelCfg := p.cfg.ModelFor(role)
	apiKey := p.secrets.GetAPIKey(modelCfg.BaseURL)

	result.Status = models.StageRequested
	p.logger.Info("Stage requested",
		"role", role,
		"model", modelCfg.ModelName,
		"input_length", len(input))

	raw, err := p.client.Complete(ctx, modelCfg, apiKey, p.cfg.InstructionFor(role), task)
	if err != nil {
		result.Status = models.StageFailed
		if errors.Is(err, api.ErrEmptyCompletion) {
			result.RejectionReason = "empty completion"
		} else {
			result.RejectionReason = "service unavailable"
		}
		p.logger.Error("Stage completion failed", "role", role, "error", err)
		return result
	}

	result.RawText = raw
	result.SanitizedText = p.sanitizer(raw)

	if ok, reason := p.validator.Validate(role, result.SanitizedText); !ok {
		result.Status = models.StageFailed
		result.RejectionReason = reason
		p.logger.Warn("Stage output rejected",
			"role", role,
			"reason", reason,
			"output_preview", util.TruncateString(result.SanitizedText, 200))
		return result
	}

	result.Status = models.StageCompleted
	p.logger.Info("Stage completed",
		"role", role,
		"output_length", len(result.SanitizedText),
		"duration_ms", time.Since(start).Milliseconds())
	return result
}

// taskMessage renders the role's task template: the researcher template
// receives the topic, writer and editor templates receive the prior stage's
// accepted content.
func (p *Pipeline) taskMessage(role models.Role, input string) (string, error) {
	return util.RenderTaskMessage(p.cfg.TaskTemplateFor(role), input)
}
