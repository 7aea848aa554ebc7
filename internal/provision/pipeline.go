package provision

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/guildforge/guildforge/internal/discord"
	"github.com/guildforge/guildforge/internal/models"
	"github.com/guildforge/guildforge/internal/monitoring"
	"github.com/guildforge/guildforge/internal/permissions"
	"github.com/guildforge/guildforge/pkg/logger"
)

// Phase names a pipeline stage. Phases run in fixed order and each is a
// barrier: no item of a later phase starts before the previous phase ends.
type Phase string

const (
	PhasePreflight Phase = "preflight"
	PhaseRoles     Phase = "roles"
	PhaseChannels  Phase = "channels"
	PhaseEmbeds    Phase = "embeds"
	PhaseSettings  Phase = "settings"
	PhaseDone      Phase = "done"
)

// ProgressFunc receives throttled progress updates: phase, items handled so
// far, and total items in the phase. Indices are monotonically non-decreasing
// within a phase.
type ProgressFunc func(phase Phase, current, total int)

// API is the slice of the Discord client the pipeline drives. Satisfied by
// *discord.Client.
type API interface {
	GetCurrentUser(ctx context.Context) (*discord.User, error)
	GetGuild(ctx context.Context, guildID string) (*discord.Guild, error)
	CreateRole(ctx context.Context, guildID string, req discord.CreateRoleRequest) (*discord.Role, error)
	CreateChannel(ctx context.Context, guildID string, req discord.CreateChannelRequest) (*discord.Channel, error)
	CreateMessage(ctx context.Context, channelID string, req discord.CreateMessageRequest) (*discord.Message, error)
	ModifyGuild(ctx context.Context, guildID string, req discord.ModifyGuildRequest) error
	CreateAutoModRule(ctx context.Context, guildID string, req discord.CreateAutoModRuleRequest) (*discord.AutoModRule, error)
	ModifyOnboarding(ctx context.Context, guildID string, req discord.ModifyOnboardingRequest) error
}

// Pipeline executes one template against one guild as a single sequential
// control flow. Later calls depend on identifiers produced by earlier ones,
// so nothing within a run is concurrent.
type Pipeline struct {
	api      API
	progress ProgressFunc

	// ProgressInterval throttles progress callbacks so a chatty phase does
	// not flood a UI. Zero reports every item (useful in tests).
	ProgressInterval time.Duration

	lastReport time.Time
}

// NewPipeline creates a pipeline over the given API client.
func NewPipeline(api API, progress ProgressFunc) *Pipeline {
	return &Pipeline{
		api:              api,
		progress:         progress,
		ProgressInterval: 500 * time.Millisecond,
	}
}

// queuedEmbed is an embed waiting for the Embeds phase; the target channel
// had to exist first.
type queuedEmbed struct {
	channelID   string
	channelName string
	embed       *models.Embed
}

// Run drives the full phase sequence and always returns a SetupResult, even
// on fatal abort. A fatal remote error aborts mid-phase and leaves whatever
// was already created in place; there are no compensating deletes. The error
// return is non-nil only for the fatal/abort case.
func (p *Pipeline) Run(ctx context.Context, guildID string, tpl *models.ServerTemplate) (*models.SetupResult, error) {
	result := &models.SetupResult{}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		monitoring.RunDuration.Observe(result.Duration.Seconds())
	}()

	// Preflight: verify credential and target before any mutation.
	p.report(PhasePreflight, 0, 1)
	user, err := p.api.GetCurrentUser(ctx)
	if err != nil {
		return p.abort(result, fmt.Errorf("preflight: credential check failed: %w", err))
	}
	guild, err := p.api.GetGuild(ctx, guildID)
	if err != nil {
		return p.abort(result, fmt.Errorf("preflight: guild %s unreachable: %w", guildID, err))
	}
	p.report(PhasePreflight, 1, 1)

	logger.Info("Provisioning started", map[string]interface{}{
		"guild_id": guildID,
		"guild":    guild.Name,
		"template": tpl.Name,
		"as_user":  user.Username,
	})

	// Roles, in ascending position order. The remote system assigns display
	// rank by creation sequence, so this sort is the entire mechanism that
	// lines hierarchy up with intent.
	roleMap := make(RoleMap, len(tpl.Roles))
	ordered := make([]models.Role, len(tpl.Roles))
	copy(ordered, tpl.Roles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	p.startPhase()
	for i, role := range ordered {
		p.report(PhaseRoles, i, len(ordered))

		created, err := p.api.CreateRole(ctx, guildID, buildRoleRequest(role))
		if err != nil {
			if discord.IsFatal(err) {
				return p.abort(result, err)
			}
			result.AddError(fmt.Sprintf("role %q: %v", role.Name, err))
			continue
		}
		roleMap[role.Name] = created.ID
		result.RolesCreated++
		monitoring.ResourcesCreatedTotal.WithLabelValues("role").Inc()
	}
	p.report(PhaseRoles, len(ordered), len(ordered))

	// Categories and their channels, both in document order. RoleMap is
	// complete by now, so every resolvable overwrite reference resolves.
	totalItems := 0
	for _, cat := range tpl.Categories {
		totalItems += 1 + len(cat.Channels)
	}
	var embedQueue []queuedEmbed
	channelMap := make(map[string]string)
	item := 0

	p.startPhase()
	for _, cat := range tpl.Categories {
		p.report(PhaseChannels, item, totalItems)
		item++

		parent, err := p.api.CreateChannel(ctx, guildID, discord.CreateChannelRequest{
			Name: cat.Name,
			Type: discord.ChannelTypeGuildCategory,
		})
		if err != nil {
			if discord.IsFatal(err) {
				return p.abort(result, err)
			}
			result.AddError(fmt.Sprintf("category %q: %v", cat.Name, err))
			// Without a parent the category's channels cannot be placed.
			for _, ch := range cat.Channels {
				result.AddError(fmt.Sprintf("channel %q skipped: category %q was not created", ch.Name, cat.Name))
				item++
			}
			continue
		}
		result.CategoriesCreated++
		monitoring.ResourcesCreatedTotal.WithLabelValues("category").Inc()

		for _, ch := range cat.Channels {
			p.report(PhaseChannels, item, totalItems)
			item++

			req := buildChannelRequest(ch, parent.ID)
			req.PermissionOverwrites = BuildOverwrites(guildID, ch.Perms, tpl.Roles, roleMap)

			created, err := p.api.CreateChannel(ctx, guildID, req)
			if err != nil {
				if discord.IsFatal(err) {
					return p.abort(result, err)
				}
				result.AddError(fmt.Sprintf("channel %q: %v", ch.Name, err))
				continue
			}
			channelMap[ch.Name] = created.ID
			result.ChannelsCreated++
			monitoring.ResourcesCreatedTotal.WithLabelValues("channel").Inc()

			if ch.Embed != nil {
				embedQueue = append(embedQueue, queuedEmbed{
					channelID:   created.ID,
					channelName: ch.Name,
					embed:       ch.Embed,
				})
			}
		}
	}
	p.report(PhaseChannels, totalItems, totalItems)

	// Embeds queued during channel creation.
	p.startPhase()
	for i, qe := range embedQueue {
		p.report(PhaseEmbeds, i, len(embedQueue))

		_, err := p.api.CreateMessage(ctx, qe.channelID, discord.CreateMessageRequest{
			Embeds: []discord.Embed{buildEmbed(qe.embed)},
		})
		if err != nil {
			if discord.IsFatal(err) {
				return p.abort(result, err)
			}
			result.AddError(fmt.Sprintf("embed in %q: %v", qe.channelName, err))
			continue
		}
		result.EmbedsPosted++
		monitoring.ResourcesCreatedTotal.WithLabelValues("embed").Inc()
	}
	p.report(PhaseEmbeds, len(embedQueue), len(embedQueue))

	// Guild-level settings, auto-moderation and onboarding.
	if err := p.applySettings(ctx, guildID, tpl, roleMap, channelMap, result); err != nil {
		return p.abort(result, err)
	}

	p.report(PhaseDone, 1, 1)
	fields := map[string]interface{}{
		"guild_id": guildID,
		"roles":    result.RolesCreated,
		"channels": result.ChannelsCreated,
		"embeds":   result.EmbedsPosted,
		"errors":   len(result.Errors),
	}
	if len(result.Errors) > 0 {
		fields["error_sample"] = result.ErrorSample()
	}
	logger.Info("Provisioning finished", fields)
	return result, nil
}

// applySettings runs the Settings phase. The returned error is fatal-only;
// per-item failures land in the result.
func (p *Pipeline) applySettings(ctx context.Context, guildID string, tpl *models.ServerTemplate, roleMap RoleMap, channelMap map[string]string, result *models.SetupResult) error {
	total := 0
	if tpl.Settings != nil {
		total++
	}
	if tpl.AutoMod != nil {
		total += len(tpl.AutoMod.Rules)
	}
	if tpl.Onboarding != nil {
		total++
	}
	if total == 0 {
		return nil
	}

	item := 0
	p.startPhase()

	if tpl.Settings != nil {
		p.report(PhaseSettings, item, total)
		item++
		err := p.api.ModifyGuild(ctx, guildID, discord.ModifyGuildRequest{
			VerificationLevel:           tpl.Settings.VerificationLevel,
			DefaultMessageNotifications: tpl.Settings.DefaultNotifications,
			ExplicitContentFilter:       tpl.Settings.ContentFilterLevel,
		})
		if err != nil {
			if discord.IsFatal(err) {
				return err
			}
			result.AddError(fmt.Sprintf("guild settings: %v", err))
		}
	}

	if tpl.AutoMod != nil {
		for _, rule := range tpl.AutoMod.Rules {
			p.report(PhaseSettings, item, total)
			item++
			_, err := p.api.CreateAutoModRule(ctx, guildID, buildAutoModRequest(rule, channelMap))
			if err != nil {
				if discord.IsFatal(err) {
					return err
				}
				result.AddError(fmt.Sprintf("automod rule %q: %v", rule.Name, err))
			}
		}
	}

	if tpl.Onboarding != nil {
		p.report(PhaseSettings, item, total)
		item++
		err := p.api.ModifyOnboarding(ctx, guildID, buildOnboardingRequest(tpl.Onboarding, roleMap, channelMap))
		if err != nil {
			if discord.IsFatal(err) {
				return err
			}
			result.AddError(fmt.Sprintf("onboarding: %v", err))
		}
	}

	p.report(PhaseSettings, total, total)
	return nil
}

func (p *Pipeline) abort(result *models.SetupResult, err error) (*models.SetupResult, error) {
	result.Aborted = true
	logger.Error("Provisioning aborted", err, map[string]interface{}{
		"roles_created":    result.RolesCreated,
		"channels_created": result.ChannelsCreated,
	})
	return result, err
}

// startPhase resets progress throttling so each phase's first item reports.
func (p *Pipeline) startPhase() {
	p.lastReport = time.Time{}
}

// report invokes the progress callback at a throttled cadence. First and
// final reports of a phase always go through.
func (p *Pipeline) report(phase Phase, current, total int) {
	if p.progress == nil {
		return
	}
	now := time.Now()
	final := current >= total
	if !final && p.ProgressInterval > 0 && now.Sub(p.lastReport) < p.ProgressInterval {
		return
	}
	p.lastReport = now
	p.progress(phase, current, total)
}

func buildRoleRequest(role models.Role) discord.CreateRoleRequest {
	color := 0
	if role.Color != "" {
		// Malformed colors are caught by validation; a zero fallback keeps
		// the item creatable if validation was skipped.
		if v, err := ParseHexColor(role.Color); err == nil {
			color = v
		}
	}
	return discord.CreateRoleRequest{
		Name:        role.Name,
		Permissions: formatMask(permissions.Resolve(role.Permissions)),
		Color:       color,
		Hoist:       role.Hoist,
		Mentionable: role.Mentionable,
	}
}

func buildChannelRequest(ch models.Channel, parentID string) discord.CreateChannelRequest {
	req := discord.CreateChannelRequest{
		Name:     ch.Name,
		Type:     channelType(ch.Kind),
		Topic:    ch.Topic,
		ParentID: parentID,
		NSFW:     ch.NSFW,
	}
	switch ch.Kind {
	case models.ChannelVoice, models.ChannelStage:
		req.UserLimit = ch.UserLimit
		req.Bitrate = ch.Bitrate
	case models.ChannelForum:
		req.RateLimitPerUser = ch.Slowmode
		for _, tag := range ch.Tags {
			req.AvailableTags = append(req.AvailableTags, discord.ForumTag{Name: tag})
		}
	default:
		req.RateLimitPerUser = ch.Slowmode
	}
	return req
}

func buildEmbed(e *models.Embed) discord.Embed {
	out := discord.Embed{
		Title:       e.Title,
		Description: e.Description,
	}
	if e.Color != "" {
		if v, err := ParseHexColor(e.Color); err == nil {
			out.Color = v
		}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, discord.EmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if e.Footer != "" {
		out.Footer = &discord.EmbedFooter{Text: e.Footer}
	}
	if e.ImageURL != "" {
		out.Image = &discord.EmbedImage{URL: e.ImageURL}
	}
	return out
}

func buildAutoModRequest(rule models.AutoModRule, channelMap map[string]string) discord.CreateAutoModRuleRequest {
	req := discord.CreateAutoModRuleRequest{
		Name:      rule.Name,
		EventType: 1,
		Enabled:   true,
	}
	switch rule.TriggerType {
	case "keyword":
		req.TriggerType = discord.AutoModTriggerKeyword
		req.TriggerMetadata = &discord.AutoModTriggerMetadata{KeywordFilter: rule.Keywords}
	case "mention_spam":
		req.TriggerType = discord.AutoModTriggerMentionSpam
		req.TriggerMetadata = &discord.AutoModTriggerMetadata{MentionTotalLimit: rule.MentionLimit}
	default:
		req.TriggerType = discord.AutoModTriggerSpam
	}
	if rule.BlockMessage {
		req.Actions = append(req.Actions, discord.AutoModAction{Type: discord.AutoModActionBlockMessage})
	}
	if rule.AlertChannel != "" {
		if id, ok := channelMap[rule.AlertChannel]; ok {
			req.Actions = append(req.Actions, discord.AutoModAction{
				Type:     discord.AutoModActionSendAlert,
				Metadata: &discord.AutoModActionMetadata{ChannelID: id},
			})
		}
	}
	if len(req.Actions) == 0 {
		req.Actions = append(req.Actions, discord.AutoModAction{Type: discord.AutoModActionBlockMessage})
	}
	return req
}

func buildOnboardingRequest(cfg *models.OnboardingConfig, roleMap RoleMap, channelMap map[string]string) discord.ModifyOnboardingRequest {
	req := discord.ModifyOnboardingRequest{Enabled: cfg.Enabled}
	for _, name := range cfg.DefaultChannels {
		if id, ok := channelMap[name]; ok {
			req.DefaultChannelIDs = append(req.DefaultChannelIDs, id)
		}
	}
	for _, prompt := range cfg.Prompts {
		p := discord.OnboardingPrompt{
			Title:        prompt.Title,
			SingleSelect: false,
			Required:     false,
			InOnboarding: true,
		}
		for _, opt := range prompt.Options {
			o := discord.OnboardingPromptOption{
				Title:       opt.Label,
				Description: opt.Description,
				ChannelIDs:  []string{},
				RoleIDs:     []string{},
			}
			for _, name := range opt.Channels {
				if id, ok := channelMap[name]; ok {
					o.ChannelIDs = append(o.ChannelIDs, id)
				}
			}
			for _, name := range opt.Roles {
				if id, ok := roleMap[name]; ok {
					o.RoleIDs = append(o.RoleIDs, id)
				}
			}
			p.Options = append(p.Options, o)
		}
		req.Prompts = append(req.Prompts, p)
	}
	return req
}

func channelType(kind models.ChannelKind) int {
	switch kind {
	case models.ChannelVoice:
		return discord.ChannelTypeGuildVoice
	case models.ChannelStage:
		return discord.ChannelTypeGuildStageVoice
	case models.ChannelForum:
		return discord.ChannelTypeGuildForum
	case models.ChannelAnnouncement:
		return discord.ChannelTypeGuildAnnouncement
	default:
		return discord.ChannelTypeGuildText
	}
}
