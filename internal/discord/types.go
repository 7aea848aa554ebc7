package discord

// Wire types for the Discord REST API (v10). One strongly-typed request and
// response shape per operation; nothing free-form crosses this boundary.

// Channel type constants as used on the wire.
const (
	ChannelTypeGuildText         = 0
	ChannelTypeGuildVoice        = 2
	ChannelTypeGuildCategory     = 4
	ChannelTypeGuildAnnouncement = 5
	ChannelTypeGuildStageVoice   = 13
	ChannelTypeGuildForum        = 15
)

// Permission overwrite target kinds.
const (
	OverwriteTypeRole   = 0
	OverwriteTypeMember = 1
)

// Auto-moderation trigger types.
const (
	AutoModTriggerKeyword     = 1
	AutoModTriggerSpam        = 3
	AutoModTriggerMentionSpam = 5
)

// Auto-moderation action types.
const (
	AutoModActionBlockMessage = 1
	AutoModActionSendAlert    = 2
)

// User is the acting credential's identity, fetched during preflight.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

// Guild is the subset of guild state preflight cares about.
type Guild struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// CreateRoleRequest creates a guild role. The API assigns display order by
// creation sequence; there is no position field at create time.
type CreateRoleRequest struct {
	Name        string `json:"name"`
	Permissions string `json:"permissions"` // bitmask, serialized as decimal string
	Color       int    `json:"color"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
}

// Role is a role as returned by the API.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
	Color       int    `json:"color"`
	Position    int    `json:"position"`
	Managed     bool   `json:"managed"`
}

// PermissionOverwrite is one concrete allow/deny entry on a channel.
type PermissionOverwrite struct {
	ID    string `json:"id"`   // role id, or the guild id for @everyone
	Type  int    `json:"type"` // OverwriteTypeRole / OverwriteTypeMember
	Allow string `json:"allow"`
	Deny  string `json:"deny"`
}

// CreateChannelRequest creates a category or channel.
type CreateChannelRequest struct {
	Name                 string                `json:"name"`
	Type                 int                   `json:"type"`
	Topic                string                `json:"topic,omitempty"`
	ParentID             string                `json:"parent_id,omitempty"`
	NSFW                 bool                  `json:"nsfw,omitempty"`
	RateLimitPerUser     int                   `json:"rate_limit_per_user,omitempty"`
	UserLimit            int                   `json:"user_limit,omitempty"`
	Bitrate              int                   `json:"bitrate,omitempty"`
	PermissionOverwrites []PermissionOverwrite `json:"permission_overwrites,omitempty"`
	AvailableTags        []ForumTag            `json:"available_tags,omitempty"`
}

// ForumTag is a selectable tag on a forum channel.
type ForumTag struct {
	Name string `json:"name"`
}

// Channel is a channel as returned by the API.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	ParentID string `json:"parent_id"`
}

// Embed is a message embed on the wire. Color is numeric here, unlike the
// template's hex string.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the embed footer line.
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedImage is the embed's image attachment by URL.
type EmbedImage struct {
	URL string `json:"url"`
}

// CreateMessageRequest posts a message with embeds into a channel.
type CreateMessageRequest struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Message is a posted message as returned by the API.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// ModifyGuildRequest patches guild-level settings. Pointers distinguish
// "leave unchanged" from an explicit zero value.
type ModifyGuildRequest struct {
	VerificationLevel           *int `json:"verification_level,omitempty"`
	DefaultMessageNotifications *int `json:"default_message_notifications,omitempty"`
	ExplicitContentFilter       *int `json:"explicit_content_filter,omitempty"`
}

// AutoModTriggerMetadata carries trigger-specific configuration.
type AutoModTriggerMetadata struct {
	KeywordFilter     []string `json:"keyword_filter,omitempty"`
	MentionTotalLimit int      `json:"mention_total_limit,omitempty"`
}

// AutoModActionMetadata carries action-specific configuration.
type AutoModActionMetadata struct {
	ChannelID string `json:"channel_id,omitempty"`
}

// AutoModAction is one action taken when a rule triggers.
type AutoModAction struct {
	Type     int                    `json:"type"`
	Metadata *AutoModActionMetadata `json:"metadata,omitempty"`
}

// CreateAutoModRuleRequest creates an auto-moderation rule.
type CreateAutoModRuleRequest struct {
	Name            string                  `json:"name"`
	EventType       int                     `json:"event_type"` // 1 = message send
	TriggerType     int                     `json:"trigger_type"`
	TriggerMetadata *AutoModTriggerMetadata `json:"trigger_metadata,omitempty"`
	Actions         []AutoModAction         `json:"actions"`
	Enabled         bool                    `json:"enabled"`
}

// AutoModRule is a rule as returned by the API.
type AutoModRule struct {
	ID          string `json:"id"`
	GuildID     string `json:"guild_id"`
	Name        string `json:"name"`
	TriggerType int    `json:"trigger_type"`
}

// OnboardingPromptOption is one selectable answer in an onboarding prompt.
type OnboardingPromptOption struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ChannelIDs  []string `json:"channel_ids"`
	RoleIDs     []string `json:"role_ids"`
}

// OnboardingPrompt is one onboarding question.
type OnboardingPrompt struct {
	Type         int                      `json:"type"` // 0 = multiple choice
	Title        string                   `json:"title"`
	Options      []OnboardingPromptOption `json:"options"`
	SingleSelect bool                     `json:"single_select"`
	Required     bool                     `json:"required"`
	InOnboarding bool                     `json:"in_onboarding"`
}

// ModifyOnboardingRequest replaces the guild onboarding flow.
type ModifyOnboardingRequest struct {
	Prompts           []OnboardingPrompt `json:"prompts"`
	DefaultChannelIDs []string           `json:"default_channel_ids"`
	Enabled           bool               `json:"enabled"`
	Mode              int                `json:"mode"` // 0 = default
}
