package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge/internal/events"
	"github.com/guildforge/guildforge/internal/models"
	"github.com/guildforge/guildforge/internal/monitoring"
	"github.com/guildforge/guildforge/internal/provision"
	"github.com/guildforge/guildforge/internal/repository"
	"github.com/guildforge/guildforge/pkg/logger"
	"gorm.io/datatypes"
)

// ProgressBroadcaster receives throttled run progress for live consumers,
// typically the websocket hub.
type ProgressBroadcaster interface {
	BroadcastProgress(runID, guildID string, phase string, current, total int)
}

// ProvisionService orchestrates provisioning runs: validation, the
// one-run-per-guild guard, pipeline execution, and run persistence.
type ProvisionService struct {
	api       provision.API
	teardown  provision.TeardownAPI
	registry  *provision.RunRegistry
	runs      repository.RunRepositoryInterface
	broadcast ProgressBroadcaster
}

// NewProvisionService creates a provision service
func NewProvisionService(api provision.API, teardown provision.TeardownAPI, runs repository.RunRepositoryInterface, broadcast ProgressBroadcaster) *ProvisionService {
	return &ProvisionService{
		api:       api,
		teardown:  teardown,
		registry:  provision.NewRunRegistry(),
		runs:      runs,
		broadcast: broadcast,
	}
}

// ErrRunInProgress is returned when a guild already has an active run.
var ErrRunInProgress = fmt.Errorf("a provisioning run is already active for this guild")

// ValidationFailedError carries the blocking issues of a rejected template.
type ValidationFailedError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationFailedError) Error() string {
	return "template validation failed: " + strings.Join(e.Errors, "; ")
}

// StartRun validates the template, reserves the guild, and executes the
// pipeline synchronously. The caller decides whether to run it in a
// goroutine; the websocket hub carries progress either way.
func (s *ProvisionService) StartRun(ctx context.Context, guildID string, tpl *models.ServerTemplate) (*models.ProvisionRun, *models.SetupResult, error) {
	validation := provision.ValidateTemplate(tpl)
	if !validation.OK() {
		events.PublishRunRejected(guildID, strings.Join(validation.Errors, "; "))
		return nil, nil, &ValidationFailedError{Errors: validation.Errors, Warnings: validation.Warnings}
	}
	for _, w := range validation.Warnings {
		logger.Warn("Template validation warning", map[string]interface{}{
			"guild_id": guildID,
			"template": tpl.ID,
			"warning":  w,
		})
	}

	if !s.registry.TryAcquire(guildID) {
		events.PublishRunRejected(guildID, "run already in progress")
		return nil, nil, ErrRunInProgress
	}
	defer s.registry.Release(guildID)

	runID := uuid.NewString()
	record := &models.ProvisionRun{
		RunID:        runID,
		GuildID:      guildID,
		TemplateID:   tpl.ID,
		TemplateName: tpl.Name,
		Status:       models.RunRunning,
		StartedAt:    time.Now(),
	}
	if err := s.runs.Create(record); err != nil {
		return nil, nil, fmt.Errorf("failed to record run: %w", err)
	}

	monitoring.RunsStartedTotal.Inc()
	monitoring.ActiveRuns.Inc()
	defer monitoring.ActiveRuns.Dec()
	events.PublishRunStarted(runID, guildID, tpl.ID)

	pipeline := provision.NewPipeline(s.api, func(phase provision.Phase, current, total int) {
		if s.broadcast != nil {
			s.broadcast.BroadcastProgress(runID, guildID, string(phase), current, total)
		}
		events.PublishPhaseChanged(runID, guildID, string(phase), current, total)
	})

	result, runErr := pipeline.Run(ctx, guildID, tpl)

	s.finishRecord(record, result, runErr)

	if runErr != nil {
		events.PublishRunAborted(runID, guildID, runErr.Error())
		monitoring.RunsFinishedTotal.WithLabelValues(string(models.RunAborted)).Inc()
		return record, result, runErr
	}

	events.PublishRunFinished(runID, guildID,
		result.RolesCreated, result.ChannelsCreated, result.EmbedsPosted, len(result.Errors))
	monitoring.RunsFinishedTotal.WithLabelValues(string(models.RunCompleted)).Inc()
	return record, result, nil
}

// finishRecord copies the pipeline outcome onto the persisted run row.
func (s *ProvisionService) finishRecord(record *models.ProvisionRun, result *models.SetupResult, runErr error) {
	now := time.Now()
	record.FinishedAt = &now
	record.RolesCreated = result.RolesCreated
	record.CategoriesCreated = result.CategoriesCreated
	record.ChannelsCreated = result.ChannelsCreated
	record.EmbedsPosted = result.EmbedsPosted
	record.DurationMs = result.Duration.Milliseconds()

	if errJSON, err := json.Marshal(result.Errors); err == nil {
		record.Errors = datatypes.JSON(errJSON)
	}

	if runErr != nil || result.Aborted {
		record.Status = models.RunAborted
	} else {
		record.Status = models.RunCompleted
	}

	if err := s.runs.Update(record); err != nil {
		logger.Error("Failed to persist run outcome", err, map[string]interface{}{
			"run_id": record.RunID,
		})
	}
}

// TeardownGuild removes all provisioned resources from a guild. Guarded by
// the same registry as runs so teardown and provisioning never interleave.
func (s *ProvisionService) TeardownGuild(ctx context.Context, guildID string) (*provision.TeardownResult, error) {
	if !s.registry.TryAcquire(guildID) {
		return nil, ErrRunInProgress
	}
	defer s.registry.Release(guildID)

	result, err := provision.Teardown(ctx, s.teardown, guildID)
	if result != nil {
		events.PublishTeardownFinished(guildID,
			result.ChannelsDeleted, result.RolesDeleted, len(result.Errors))
	}
	return result, err
}

// GetRun returns the persisted record for a run ID.
func (s *ProvisionService) GetRun(runID string) (*models.ProvisionRun, error) {
	return s.runs.FindByRunID(runID)
}

// GuildHistory returns recent runs for a guild, newest first.
func (s *ProvisionService) GuildHistory(guildID string, limit int) ([]models.ProvisionRun, error) {
	return s.runs.FindByGuild(guildID, limit)
}

// RecentRuns returns the most recent runs across all guilds.
func (s *ProvisionService) RecentRuns(limit int) ([]models.ProvisionRun, error) {
	return s.runs.FindRecent(limit)
}

// ActiveRunCount reports how many runs are currently in flight.
func (s *ProvisionService) ActiveRunCount() int {
	return s.registry.ActiveCount()
}
