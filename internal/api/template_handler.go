package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guildforge/guildforge/internal/provision"
	"github.com/guildforge/guildforge/internal/service"
	"github.com/guildforge/guildforge/pkg/logger"
)

// TemplateHandler serves the guild template catalog
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

// GetAllTemplates handles GET /api/templates
func (h *TemplateHandler) GetAllTemplates(c *gin.Context) {
	templates := h.templateService.GetAllTemplates()
	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"count":     len(templates),
	})
}

// GetTemplate handles GET /api/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id := c.Param("id")

	template, err := h.templateService.GetTemplateByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Template not found",
			"id":    id,
		})
		return
	}

	c.JSON(http.StatusOK, template)
}

// GetPopularTemplates handles GET /api/templates/popular
func (h *TemplateHandler) GetPopularTemplates(c *gin.Context) {
	templates := h.templateService.GetPopularTemplates()
	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"count":     len(templates),
	})
}

// SearchTemplates handles GET /api/templates/search?q=query
func (h *TemplateHandler) SearchTemplates(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Search query parameter 'q' is required",
		})
		return
	}

	templates := h.templateService.SearchTemplates(query)
	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"count":     len(templates),
		"query":     query,
	})
}

// ValidateTemplate handles POST /api/templates/validate. It runs the same
// checks a run would, without touching any guild.
func (h *TemplateHandler) ValidateTemplate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	tpl, err := service.ParseTemplate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	result := provision.ValidateTemplate(tpl)
	logger.Info("Template validated", map[string]interface{}{
		"template": tpl.ID,
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
	})

	c.JSON(http.StatusOK, gin.H{
		"valid":    result.OK(),
		"errors":   result.Errors,
		"warnings": result.Warnings,
	})
}

// ReloadTemplates handles POST /api/admin/templates/reload
func (h *TemplateHandler) ReloadTemplates(c *gin.Context) {
	if err := h.templateService.LoadTemplates(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to reload templates",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "reloaded",
		"count":  len(h.templateService.GetAllTemplates()),
	})
}
