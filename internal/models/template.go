package models

// ChannelKind is the closed set of channel kinds a template may declare.
type ChannelKind string

const (
	ChannelText         ChannelKind = "text"
	ChannelVoice        ChannelKind = "voice"
	ChannelStage        ChannelKind = "stage"
	ChannelForum        ChannelKind = "forum"
	ChannelAnnouncement ChannelKind = "announcement"
)

// ValidChannelKinds lists every kind the validator accepts.
var ValidChannelKinds = []ChannelKind{
	ChannelText, ChannelVoice, ChannelStage, ChannelForum, ChannelAnnouncement,
}

// ServerTemplate is the root of a declarative guild description. It is loaded
// once per provisioning run and treated as read-only for the run's duration.
type ServerTemplate struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Categories  []Category        `json:"categories"`
	Roles       []Role            `json:"roles"`
	Settings    *GuildSettings    `json:"settings,omitempty"`
	AutoMod     *AutoModConfig    `json:"automod,omitempty"`
	Onboarding  *OnboardingConfig `json:"onboarding,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Popular     bool              `json:"popular,omitempty"`
}

// Category groups channels. Document order becomes display order on the
// created guild, so order matters.
type Category struct {
	Name     string    `json:"name"`
	Channels []Channel `json:"channels"`
}

// Channel describes a single communication surface under a category.
type Channel struct {
	Name      string          `json:"name"`
	Kind      ChannelKind     `json:"kind"`
	Topic     string          `json:"topic,omitempty"`
	Slowmode  int             `json:"slowmode,omitempty"`   // seconds, valid 0-21600
	NSFW      bool            `json:"nsfw,omitempty"`
	UserLimit int             `json:"user_limit,omitempty"` // voice/stage only, valid 0-99
	Bitrate   int             `json:"bitrate,omitempty"`    // voice/stage only, bits/s
	Perms     *PermissionRule `json:"perms,omitempty"`
	Embed     *Embed          `json:"embed,omitempty"`
	Tags      []string        `json:"tags,omitempty"` // forum only
}

// PermissionRule is the symbolic, unresolved access rule for a channel. The
// overwrite builder turns it into concrete allow/deny entries once role IDs
// are known.
type PermissionRule struct {
	Everyone   *EveryoneRule `json:"everyone,omitempty"`
	StaffOnly  bool          `json:"staff_only,omitempty"`
	RoleLocked string        `json:"role_locked,omitempty"` // role name from the template roster
}

// EveryoneRule holds the optional everyone-level toggles. Nil pointers mean
// "not specified", which is distinct from an explicit false.
type EveryoneRule struct {
	SendMessages *bool `json:"send_messages,omitempty"`
	ViewChannel  *bool `json:"view_channel,omitempty"`
}

// Role describes a guild role. Position is the intended hierarchy rank;
// higher values outrank lower ones.
type Role struct {
	Name        string   `json:"name"`
	Color       string   `json:"color"` // hex, e.g. "#5865F2"
	Hoist       bool     `json:"hoist,omitempty"`
	Mentionable bool     `json:"mentionable,omitempty"`
	Position    int      `json:"position"`
	Permissions []string `json:"permissions,omitempty"` // symbolic names, see internal/permissions
}

// Embed is a message embed posted into a channel after creation.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       string       `json:"color,omitempty"` // hex
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
}

// EmbedField is a single name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// GuildSettings carries guild-level configuration applied in the Settings
// phase. Values follow the remote API's numeric enums.
type GuildSettings struct {
	VerificationLevel    *int `json:"verification_level,omitempty"`    // 0-4
	DefaultNotifications *int `json:"default_notifications,omitempty"` // 0=all, 1=mentions
	ContentFilterLevel   *int `json:"content_filter_level,omitempty"`  // 0-2
}

// AutoModConfig declares auto-moderation rules to create after channels
// exist.
type AutoModConfig struct {
	Rules []AutoModRule `json:"rules"`
}

// AutoModRule is one auto-moderation rule. TriggerType is one of "keyword",
// "spam" or "mention_spam".
type AutoModRule struct {
	Name         string   `json:"name"`
	TriggerType  string   `json:"trigger_type"`
	Keywords     []string `json:"keywords,omitempty"`      // keyword trigger only
	MentionLimit int      `json:"mention_limit,omitempty"` // mention_spam trigger only
	BlockMessage bool     `json:"block_message"`
	AlertChannel string   `json:"alert_channel,omitempty"` // channel name from the template
}

// OnboardingConfig declares the guild onboarding flow. Channel and role
// references are by template name and resolved after creation.
type OnboardingConfig struct {
	Enabled         bool               `json:"enabled"`
	DefaultChannels []string           `json:"default_channels,omitempty"`
	Prompts         []OnboardingPrompt `json:"prompts,omitempty"`
}

// OnboardingPrompt is a question shown to joining members.
type OnboardingPrompt struct {
	Title   string             `json:"title"`
	Options []OnboardingOption `json:"options"`
}

// OnboardingOption is one selectable answer. Picking it grants the named
// roles and reveals the named channels.
type OnboardingOption struct {
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}
