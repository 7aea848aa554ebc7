package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/guildforge/guildforge/internal/middleware"
	"github.com/guildforge/guildforge/internal/models"
	"github.com/guildforge/guildforge/internal/service"
	"github.com/guildforge/guildforge/pkg/logger"
)

// ProvisionHandler exposes provisioning runs over HTTP
type ProvisionHandler struct {
	provisionService *service.ProvisionService
	templateService  *service.TemplateService
}

// NewProvisionHandler creates a new provision handler
func NewProvisionHandler(provisionService *service.ProvisionService, templateService *service.TemplateService) *ProvisionHandler {
	return &ProvisionHandler{
		provisionService: provisionService,
		templateService:  templateService,
	}
}

// StartRunRequest is the body of POST /api/guilds/:guildId/provision.
// Either a catalog template ID or an inline template document, not both.
type StartRunRequest struct {
	TemplateID string          `json:"template_id,omitempty"`
	Template   json.RawMessage `json:"template,omitempty"`
}

// StartRun handles POST /api/guilds/:guildId/provision. The run executes
// within the request; progress streams over /ws/runs and the final outcome
// lands in run history.
func (h *ProvisionHandler) StartRun(c *gin.Context) {
	guildID := c.Param("guildId")
	if guildID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild ID is required"})
		return
	}

	var req StartRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	tpl, err := h.resolveTemplate(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	logger.Info("Provisioning run requested", map[string]interface{}{
		"guild_id": guildID,
		"template": tpl.ID,
		"user_id":  userID,
	})

	// Validation and the duplicate-run check happen synchronously so the
	// caller gets a definitive accept/reject; the paced remote calls do not.
	record, result, runErr := h.provisionService.StartRun(c.Request.Context(), guildID, tpl)

	var validationErr *service.ValidationFailedError
	switch {
	case errors.As(runErr, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "Template validation failed",
			"code":     "VALIDATION_FAILED",
			"errors":   validationErr.Errors,
			"warnings": validationErr.Warnings,
		})
		return
	case errors.Is(runErr, service.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"error": runErr.Error(),
			"code":  "RUN_IN_PROGRESS",
		})
		return
	case runErr != nil && record == nil:
		// The run never started, e.g. the record could not be persisted.
		c.JSON(http.StatusInternalServerError, gin.H{"error": runErr.Error()})
		return
	case runErr != nil:
		// Fatal abort mid-run: partial state is reported, never rolled back.
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  runErr.Error(),
			"code":   "RUN_ABORTED",
			"run_id": record.RunID,
			"result": result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":  record.RunID,
		"status":  record.Status,
		"success": result.Success(),
		"result":  result,
	})
}

func (h *ProvisionHandler) resolveTemplate(req StartRunRequest) (*models.ServerTemplate, error) {
	switch {
	case req.TemplateID != "" && len(req.Template) > 0:
		return nil, errors.New("provide template_id or an inline template, not both")
	case req.TemplateID != "":
		return h.templateService.GetTemplateByID(req.TemplateID)
	case len(req.Template) > 0:
		return service.ParseTemplate(req.Template)
	default:
		return nil, errors.New("template_id or an inline template is required")
	}
}

// Teardown handles POST /api/guilds/:guildId/teardown
func (h *ProvisionHandler) Teardown(c *gin.Context) {
	guildID := c.Param("guildId")
	if guildID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild ID is required"})
		return
	}

	logger.Warn("Guild teardown requested", map[string]interface{}{
		"guild_id": guildID,
		"user_id":  middleware.GetUserID(c),
	})

	result, err := h.provisionService.TeardownGuild(c.Request.Context(), guildID)
	if errors.Is(err, service.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"code":  "RUN_IN_PROGRESS",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  err.Error(),
			"result": result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRun handles GET /api/runs/:runId
func (h *ProvisionHandler) GetRun(c *gin.Context) {
	run, err := h.provisionService.GetRun(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GuildHistory handles GET /api/guilds/:guildId/runs
func (h *ProvisionHandler) GuildHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.provisionService.GuildHistory(c.Param("guildId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// RecentRuns handles GET /api/admin/runs
func (h *ProvisionHandler) RecentRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.provisionService.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":        runs,
		"count":       len(runs),
		"active_runs": h.provisionService.ActiveRunCount(),
	})
}
