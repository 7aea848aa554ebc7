package provision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/guildforge/guildforge/internal/discord"
	"github.com/guildforge/guildforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records every call in order and lets tests fail specific items.
type fakeAPI struct {
	calls []string

	failRole      map[string]error
	failChannel   map[string]error
	failMessage   bool
	failPreflight error

	nextID int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		failRole:    make(map[string]error),
		failChannel: make(map[string]error),
	}
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) GetCurrentUser(ctx context.Context) (*discord.User, error) {
	f.calls = append(f.calls, "me")
	if f.failPreflight != nil {
		return nil, f.failPreflight
	}
	return &discord.User{ID: "bot-1", Username: "forge-bot"}, nil
}

func (f *fakeAPI) GetGuild(ctx context.Context, guildID string) (*discord.Guild, error) {
	f.calls = append(f.calls, "guild:"+guildID)
	return &discord.Guild{ID: guildID, Name: "Test Guild"}, nil
}

func (f *fakeAPI) CreateRole(ctx context.Context, guildID string, req discord.CreateRoleRequest) (*discord.Role, error) {
	f.calls = append(f.calls, "role:"+req.Name)
	if err := f.failRole[req.Name]; err != nil {
		return nil, err
	}
	return &discord.Role{ID: f.id("role"), Name: req.Name}, nil
}

func (f *fakeAPI) CreateChannel(ctx context.Context, guildID string, req discord.CreateChannelRequest) (*discord.Channel, error) {
	f.calls = append(f.calls, "channel:"+req.Name)
	if err := f.failChannel[req.Name]; err != nil {
		return nil, err
	}
	return &discord.Channel{ID: f.id("chan"), Name: req.Name, Type: req.Type, ParentID: req.ParentID}, nil
}

func (f *fakeAPI) CreateMessage(ctx context.Context, channelID string, req discord.CreateMessageRequest) (*discord.Message, error) {
	f.calls = append(f.calls, "message:"+channelID)
	if f.failMessage {
		return nil, errors.New("boom")
	}
	return &discord.Message{ID: f.id("msg"), ChannelID: channelID}, nil
}

func (f *fakeAPI) ModifyGuild(ctx context.Context, guildID string, req discord.ModifyGuildRequest) error {
	f.calls = append(f.calls, "settings")
	return nil
}

func (f *fakeAPI) CreateAutoModRule(ctx context.Context, guildID string, req discord.CreateAutoModRuleRequest) (*discord.AutoModRule, error) {
	f.calls = append(f.calls, "automod:"+req.Name)
	return &discord.AutoModRule{ID: f.id("amr"), Name: req.Name}, nil
}

func (f *fakeAPI) ModifyOnboarding(ctx context.Context, guildID string, req discord.ModifyOnboardingRequest) error {
	f.calls = append(f.calls, "onboarding")
	return nil
}

func pipelineTemplate() *models.ServerTemplate {
	return &models.ServerTemplate{
		ID:   "community-hub",
		Name: "Community Hub",
		Categories: []models.Category{
			{Name: "General", Channels: []models.Channel{
				{Name: "welcome", Kind: models.ChannelText, Embed: &models.Embed{Title: "Welcome!"}},
			}},
		},
		Roles: []models.Role{
			{Name: "Member", Position: 0},
		},
	}
}

func TestRunCreatesEverythingInMinimalTemplate(t *testing.T) {
	api := newFakeAPI()
	p := NewPipeline(api, nil)

	result, err := p.Run(context.Background(), "g1", pipelineTemplate())
	require.NoError(t, err)

	assert.Equal(t, 1, result.RolesCreated)
	assert.Equal(t, 1, result.CategoriesCreated)
	assert.Equal(t, 1, result.ChannelsCreated)
	assert.Equal(t, 1, result.EmbedsPosted)
	assert.Empty(t, result.Errors)
	assert.False(t, result.Aborted)
	assert.True(t, result.Success())

	assert.Equal(t, []string{
		"me", "guild:g1",
		"role:Member",
		"channel:General", "channel:welcome",
		"message:chan-3",
	}, api.calls)
}

func TestRolesCreatedInAscendingPositionBeforeAnyChannel(t *testing.T) {
	tpl := pipelineTemplate()
	tpl.Roles = []models.Role{
		{Name: "Admin", Position: 12},
		{Name: "Member", Position: 0},
		{Name: "Mod", Position: 5},
	}

	api := newFakeAPI()
	_, err := NewPipeline(api, nil).Run(context.Background(), "g1", tpl)
	require.NoError(t, err)

	var roles []string
	firstChannel := -1
	for i, call := range api.calls {
		switch {
		case len(call) > 5 && call[:5] == "role:":
			require.Equal(t, -1, firstChannel, "role created after a channel")
			roles = append(roles, call[5:])
		case len(call) > 8 && call[:8] == "channel:":
			if firstChannel == -1 {
				firstChannel = i
			}
		}
	}
	assert.Equal(t, []string{"Member", "Mod", "Admin"}, roles)
}

func TestPerItemFailureContinuesRun(t *testing.T) {
	tpl := pipelineTemplate()
	tpl.Roles = append(tpl.Roles, models.Role{Name: "Broken", Position: 1})

	api := newFakeAPI()
	api.failRole["Broken"] = &discord.APIError{StatusCode: 400, Message: "bad role"}

	result, err := NewPipeline(api, nil).Run(context.Background(), "g1", tpl)
	require.NoError(t, err)

	assert.Equal(t, 1, result.RolesCreated)
	assert.Equal(t, 1, result.ChannelsCreated, "channels still provisioned after a role failure")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Broken")
	assert.False(t, result.Success(), "any recorded error fails the run")
	assert.False(t, result.Aborted)
}

func TestCategoryFailureSkipsItsChannels(t *testing.T) {
	tpl := pipelineTemplate()
	tpl.Categories = append(tpl.Categories, models.Category{
		Name: "Doomed",
		Channels: []models.Channel{
			{Name: "lost-1", Kind: models.ChannelText},
			{Name: "lost-2", Kind: models.ChannelText},
		},
	})

	api := newFakeAPI()
	api.failChannel["Doomed"] = &discord.APIError{StatusCode: 400, Message: "nope"}

	result, err := NewPipeline(api, nil).Run(context.Background(), "g1", tpl)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CategoriesCreated)
	assert.Equal(t, 1, result.ChannelsCreated)
	// One error for the category, one per orphaned channel.
	assert.Len(t, result.Errors, 3)
	assert.NotContains(t, api.calls, "channel:lost-1", "children of a failed category are never attempted")
}

func TestFatalErrorAbortsMidRun(t *testing.T) {
	tpl := pipelineTemplate()
	api := newFakeAPI()
	api.failChannel["welcome"] = &discord.FatalError{
		Err: &discord.APIError{StatusCode: 403, Code: 50013, Message: "Missing Permissions"},
	}

	result, err := NewPipeline(api, nil).Run(context.Background(), "g1", tpl)
	require.Error(t, err)
	assert.True(t, discord.IsFatal(err))

	assert.True(t, result.Aborted)
	assert.False(t, result.Success())
	assert.Equal(t, 1, result.RolesCreated, "work done before the abort is reported, not rolled back")
	assert.Equal(t, 0, result.EmbedsPosted)
	assert.NotContains(t, api.calls, "message:chan-3", "no embed attempted after abort")
}

func TestPreflightFailureMutatesNothing(t *testing.T) {
	api := newFakeAPI()
	api.failPreflight = &discord.FatalError{
		Err: &discord.APIError{StatusCode: 401, Message: "Unauthorized"},
	}

	result, err := NewPipeline(api, nil).Run(context.Background(), "g1", pipelineTemplate())
	require.Error(t, err)
	assert.True(t, result.Aborted)
	assert.Equal(t, []string{"me"}, api.calls, "no mutating call after preflight failure")
	assert.Zero(t, result.RolesCreated)
	assert.Zero(t, result.ChannelsCreated)
}

func TestRerunDuplicatesResources(t *testing.T) {
	// Runs are not idempotent: replaying the same template doubles the
	// resources rather than reconciling.
	api := newFakeAPI()
	p := NewPipeline(api, nil)

	first, err := p.Run(context.Background(), "g1", pipelineTemplate())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "g1", pipelineTemplate())
	require.NoError(t, err)

	assert.Equal(t, first.RolesCreated, second.RolesCreated)
	roleCalls := 0
	for _, c := range api.calls {
		if c == "role:Member" {
			roleCalls++
		}
	}
	assert.Equal(t, 2, roleCalls)
}

func TestSettingsPhaseAppliesGuildConfigAutoModAndOnboarding(t *testing.T) {
	level := 2
	tpl := pipelineTemplate()
	tpl.Settings = &models.GuildSettings{VerificationLevel: &level}
	tpl.AutoMod = &models.AutoModConfig{Rules: []models.AutoModRule{
		{Name: "no-slurs", TriggerType: "keyword", Keywords: []string{"bad"}, BlockMessage: true, AlertChannel: "welcome"},
	}}
	tpl.Onboarding = &models.OnboardingConfig{
		Enabled:         true,
		DefaultChannels: []string{"welcome"},
		Prompts: []models.OnboardingPrompt{
			{Title: "Pick interests", Options: []models.OnboardingOption{
				{Label: "Gaming", Roles: []string{"Member"}, Channels: []string{"welcome"}},
			}},
		},
	}

	api := newFakeAPI()
	result, err := NewPipeline(api, nil).Run(context.Background(), "g1", tpl)
	require.NoError(t, err)
	assert.True(t, result.Success())

	assert.Contains(t, api.calls, "settings")
	assert.Contains(t, api.calls, "automod:no-slurs")
	assert.Contains(t, api.calls, "onboarding")
}

func TestProgressIndicesAreMonotonic(t *testing.T) {
	tpl := pipelineTemplate()
	tpl.Categories[0].Channels = append(tpl.Categories[0].Channels,
		models.Channel{Name: "chat", Kind: models.ChannelText},
		models.Channel{Name: "voice", Kind: models.ChannelVoice},
	)

	last := make(map[Phase]int)
	var phases []Phase
	p := NewPipeline(newFakeAPI(), func(phase Phase, current, total int) {
		if prev, seen := last[phase]; seen {
			assert.GreaterOrEqual(t, current, prev, "progress in %s went backwards", phase)
		} else {
			phases = append(phases, phase)
		}
		last[phase] = current
		assert.LessOrEqual(t, current, total)
	})
	p.ProgressInterval = 0 // report every item

	_, err := p.Run(context.Background(), "g1", tpl)
	require.NoError(t, err)

	assert.Equal(t, []Phase{PhasePreflight, PhaseRoles, PhaseChannels, PhaseEmbeds, PhaseDone}, phases)
}
