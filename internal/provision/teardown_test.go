package provision

import (
	"context"
	"testing"

	"github.com/guildforge/guildforge/internal/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTeardownAPI struct {
	channels []discord.Channel
	roles    []discord.Role
	rules    []discord.AutoModRule

	deleted    []string
	failDelete map[string]error
}

func (f *fakeTeardownAPI) GetChannels(ctx context.Context, guildID string) ([]discord.Channel, error) {
	return f.channels, nil
}

func (f *fakeTeardownAPI) GetRoles(ctx context.Context, guildID string) ([]discord.Role, error) {
	return f.roles, nil
}

func (f *fakeTeardownAPI) DeleteChannel(ctx context.Context, channelID string) error {
	if err := f.failDelete[channelID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeTeardownAPI) DeleteRole(ctx context.Context, guildID, roleID string) error {
	if err := f.failDelete[roleID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, roleID)
	return nil
}

func (f *fakeTeardownAPI) ListAutoModRules(ctx context.Context, guildID string) ([]discord.AutoModRule, error) {
	return f.rules, nil
}

func (f *fakeTeardownAPI) DeleteAutoModRule(ctx context.Context, guildID, ruleID string) error {
	f.deleted = append(f.deleted, ruleID)
	return nil
}

func TestTeardownDeletesChildChannelsBeforeCategories(t *testing.T) {
	api := &fakeTeardownAPI{
		channels: []discord.Channel{
			{ID: "cat-1", Name: "General", Type: discord.ChannelTypeGuildCategory},
			{ID: "ch-1", Name: "welcome", Type: discord.ChannelTypeGuildText, ParentID: "cat-1"},
			{ID: "ch-2", Name: "lounge", Type: discord.ChannelTypeGuildVoice, ParentID: "cat-1"},
		},
	}

	result, err := Teardown(context.Background(), api, "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChannelsDeleted)

	// Non-category channels go in the first pass.
	assert.Equal(t, []string{"ch-1", "ch-2", "cat-1"}, api.deleted)
}

func TestTeardownSkipsEveryoneAndManagedRoles(t *testing.T) {
	api := &fakeTeardownAPI{
		roles: []discord.Role{
			{ID: "g1", Name: "@everyone"}, // shares the guild id
			{ID: "r-bot", Name: "Some Bot", Managed: true},
			{ID: "r-1", Name: "Member"},
		},
	}

	result, err := Teardown(context.Background(), api, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RolesDeleted)
	assert.Equal(t, []string{"r-1"}, api.deleted)
}

func TestTeardownRecordsPerItemErrorsAndContinues(t *testing.T) {
	api := &fakeTeardownAPI{
		channels: []discord.Channel{
			{ID: "ch-1", Name: "welcome", Type: discord.ChannelTypeGuildText},
			{ID: "ch-2", Name: "chat", Type: discord.ChannelTypeGuildText},
		},
		failDelete: map[string]error{
			"ch-1": &discord.APIError{StatusCode: 400, Message: "nope"},
		},
	}

	result, err := Teardown(context.Background(), api, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChannelsDeleted)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "welcome")
}

func TestTeardownAbortsOnFatalError(t *testing.T) {
	api := &fakeTeardownAPI{
		channels: []discord.Channel{
			{ID: "ch-1", Name: "welcome", Type: discord.ChannelTypeGuildText},
		},
		failDelete: map[string]error{
			"ch-1": &discord.FatalError{Err: &discord.APIError{StatusCode: 403, Code: 50013}},
		},
	}

	_, err := Teardown(context.Background(), api, "g1")
	require.Error(t, err)
	assert.True(t, discord.IsFatal(err))
}

func TestTeardownDeletesAutoModRules(t *testing.T) {
	api := &fakeTeardownAPI{
		rules: []discord.AutoModRule{
			{ID: "amr-1", Name: "Block slurs"},
			{ID: "amr-2", Name: "Anti spam"},
		},
	}

	result, err := Teardown(context.Background(), api, "g1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.AutoModDeleted)
}
