package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/guildforge/guildforge/internal/events"
)

// EventsHandler exposes the stored event stream for run forensics
type EventsHandler struct {
	bus *events.EventBus
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(bus *events.EventBus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// GetGuildEvents handles GET /api/guilds/:guildId/events
func (h *EventsHandler) GetGuildEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	filters := events.EventFilters{
		GuildID: c.Param("guildId"),
		RunID:   c.Query("run_id"),
		Limit:   limit,
	}
	if t := c.Query("type"); t != "" {
		filters.Types = []events.EventType{events.EventType(t)}
	}

	list, err := h.bus.Query(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": list,
		"count":  len(list),
	})
}

// GetRecentEvents handles GET /api/admin/events
func (h *EventsHandler) GetRecentEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	list, err := h.bus.Query(events.EventFilters{Limit: limit})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": list,
		"count":  len(list),
	})
}
