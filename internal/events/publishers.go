package events

// PublishRunStarted publishes a run started event
func PublishRunStarted(runID, guildID, templateID string) {
	GetEventBus().Publish(Event{
		Type:    EventRunStarted,
		Source:  "provision_service",
		GuildID: guildID,
		RunID:   runID,
		Data: map[string]interface{}{
			"template_id": templateID,
		},
	})
}

// PublishRunFinished publishes a run finished event
func PublishRunFinished(runID, guildID string, roles, channels, embeds, errorCount int) {
	GetEventBus().Publish(Event{
		Type:    EventRunFinished,
		Source:  "provision_service",
		GuildID: guildID,
		RunID:   runID,
		Data: map[string]interface{}{
			"roles_created":    roles,
			"channels_created": channels,
			"embeds_posted":    embeds,
			"error_count":      errorCount,
		},
	})
}

// PublishRunAborted publishes a run aborted event
func PublishRunAborted(runID, guildID, reason string) {
	GetEventBus().Publish(Event{
		Type:    EventRunAborted,
		Source:  "provision_service",
		GuildID: guildID,
		RunID:   runID,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishRunRejected publishes a run rejected event (duplicate run or
// failed template validation)
func PublishRunRejected(guildID, reason string) {
	GetEventBus().Publish(Event{
		Type:    EventRunRejected,
		Source:  "provision_service",
		GuildID: guildID,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishPhaseChanged publishes a phase transition within a run
func PublishPhaseChanged(runID, guildID, phase string, current, total int) {
	GetEventBus().Publish(Event{
		Type:    EventPhaseChanged,
		Source:  "provision_service",
		GuildID: guildID,
		RunID:   runID,
		Data: map[string]interface{}{
			"phase":   phase,
			"current": current,
			"total":   total,
		},
	})
}

// PublishItemFailed publishes a per-item provisioning failure
func PublishItemFailed(runID, guildID, item, errorMessage string) {
	GetEventBus().Publish(Event{
		Type:    EventItemFailed,
		Source:  "provision_service",
		GuildID: guildID,
		RunID:   runID,
		Data: map[string]interface{}{
			"item":  item,
			"error": errorMessage,
		},
	})
}

// PublishTeardownFinished publishes a teardown completion event
func PublishTeardownFinished(guildID string, channels, roles, errorCount int) {
	GetEventBus().Publish(Event{
		Type:    EventTeardownFinished,
		Source:  "provision_service",
		GuildID: guildID,
		Data: map[string]interface{}{
			"channels_deleted": channels,
			"roles_deleted":    roles,
			"error_count":      errorCount,
		},
	})
}
