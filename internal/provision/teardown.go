package provision

import (
	"context"
	"fmt"

	"github.com/guildforge/guildforge/internal/discord"
	"github.com/guildforge/guildforge/pkg/logger"
)

// TeardownAPI is the slice of the Discord client teardown drives.
type TeardownAPI interface {
	GetRoles(ctx context.Context, guildID string) ([]discord.Role, error)
	GetChannels(ctx context.Context, guildID string) ([]discord.Channel, error)
	DeleteRole(ctx context.Context, guildID, roleID string) error
	DeleteChannel(ctx context.Context, channelID string) error
	ListAutoModRules(ctx context.Context, guildID string) ([]discord.AutoModRule, error)
	DeleteAutoModRule(ctx context.Context, guildID, ruleID string) error
}

// TeardownResult counts what was removed.
type TeardownResult struct {
	RolesDeleted    int      `json:"roles_deleted"`
	ChannelsDeleted int      `json:"channels_deleted"`
	AutoModDeleted  int      `json:"automod_deleted"`
	Errors          []string `json:"errors"`
}

// Teardown removes every deletable resource from the guild: all channels and
// categories, all non-managed roles, and all auto-moderation rules. It is a
// standalone operation, not a rollback; provisioning never calls it.
func Teardown(ctx context.Context, api TeardownAPI, guildID string) (*TeardownResult, error) {
	result := &TeardownResult{}

	channels, err := api.GetChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	// Children first, categories last, so no delete orphans a listing.
	for pass := 0; pass < 2; pass++ {
		for _, ch := range channels {
			isCategory := ch.Type == discord.ChannelTypeGuildCategory
			if (pass == 0) == isCategory {
				continue
			}
			if err := api.DeleteChannel(ctx, ch.ID); err != nil {
				if discord.IsFatal(err) {
					return result, err
				}
				result.Errors = append(result.Errors, fmt.Sprintf("channel %q: %v", ch.Name, err))
				continue
			}
			result.ChannelsDeleted++
		}
	}

	roles, err := api.GetRoles(ctx, guildID)
	if err != nil {
		return result, fmt.Errorf("failed to list roles: %w", err)
	}
	for _, role := range roles {
		// @everyone shares the guild id; managed roles belong to
		// integrations and cannot be deleted.
		if role.ID == guildID || role.Managed {
			continue
		}
		if err := api.DeleteRole(ctx, guildID, role.ID); err != nil {
			if discord.IsFatal(err) {
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("role %q: %v", role.Name, err))
			continue
		}
		result.RolesDeleted++
	}

	rules, err := api.ListAutoModRules(ctx, guildID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("automod rules: %v", err))
	} else {
		for _, rule := range rules {
			if err := api.DeleteAutoModRule(ctx, guildID, rule.ID); err != nil {
				if discord.IsFatal(err) {
					return result, err
				}
				result.Errors = append(result.Errors, fmt.Sprintf("automod rule %q: %v", rule.Name, err))
				continue
			}
			result.AutoModDeleted++
		}
	}

	logger.Info("Guild teardown finished", map[string]interface{}{
		"guild_id": guildID,
		"channels": result.ChannelsDeleted,
		"roles":    result.RolesDeleted,
		"errors":   len(result.Errors),
	})
	return result, nil
}
