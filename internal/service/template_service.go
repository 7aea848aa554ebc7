package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/guildforge/guildforge/internal/models"
	"github.com/guildforge/guildforge/internal/provision"
	"github.com/guildforge/guildforge/pkg/logger"
)

// TemplateService serves the guild template catalog: the built-in JSON file
// plus any templates submitted through the API.
type TemplateService struct {
	templatesPath string

	mu        sync.RWMutex
	templates []models.ServerTemplate
}

// TemplateData holds the entire templates JSON structure
type TemplateData struct {
	Templates []models.ServerTemplate `json:"templates"`
}

// NewTemplateService creates a new template service
func NewTemplateService(templatesPath string) (*TemplateService, error) {
	service := &TemplateService{
		templatesPath: templatesPath,
	}

	if err := service.LoadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return service, nil
}

// LoadTemplates loads templates from the catalog JSON file
func (s *TemplateService) LoadTemplates() error {
	data, err := os.ReadFile(s.templatesPath)
	if err != nil {
		return fmt.Errorf("failed to read templates file: %w", err)
	}

	var templateData TemplateData
	if err := json.Unmarshal(data, &templateData); err != nil {
		return fmt.Errorf("failed to parse templates JSON: %w", err)
	}

	for i := range templateData.Templates {
		tpl := &templateData.Templates[i]
		if res := provision.ValidateTemplate(tpl); !res.OK() {
			return fmt.Errorf("catalog template %q is invalid: %s", tpl.ID, strings.Join(res.Errors, "; "))
		}
	}

	s.mu.Lock()
	s.templates = templateData.Templates
	s.mu.Unlock()

	logger.Info("Templates loaded", map[string]interface{}{
		"count": len(templateData.Templates),
		"path":  s.templatesPath,
	})

	return nil
}

// ParseTemplate decodes a user-submitted template document. Unknown fields
// are rejected so typos surface instead of silently vanishing.
func ParseTemplate(data []byte) (*models.ServerTemplate, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var tpl models.ServerTemplate
	if err := dec.Decode(&tpl); err != nil {
		return nil, fmt.Errorf("malformed template document: %w", err)
	}
	return &tpl, nil
}

// GetAllTemplates returns all available templates
func (s *TemplateService) GetAllTemplates() []models.ServerTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ServerTemplate, len(s.templates))
	copy(out, s.templates)
	return out
}

// GetTemplateByID returns a specific template by ID
func (s *TemplateService) GetTemplateByID(id string) (*models.ServerTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, template := range s.templates {
		if template.ID == id {
			return &template, nil
		}
	}
	return nil, fmt.Errorf("template not found: %s", id)
}

// GetPopularTemplates returns only popular templates
func (s *TemplateService) GetPopularTemplates() []models.ServerTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var popular []models.ServerTemplate
	for _, template := range s.templates {
		if template.Popular {
			popular = append(popular, template)
		}
	}
	return popular
}

// SearchTemplates searches templates by name, description, or tags
func (s *TemplateService) SearchTemplates(query string) []models.ServerTemplate {
	query = strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []models.ServerTemplate
	for _, template := range s.templates {
		if strings.Contains(strings.ToLower(template.Name), query) {
			results = append(results, template)
			continue
		}
		if strings.Contains(strings.ToLower(template.Description), query) {
			results = append(results, template)
			continue
		}
		for _, tag := range template.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				results = append(results, template)
				break
			}
		}
	}

	return results
}
