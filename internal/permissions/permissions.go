// Package permissions maps the symbolic permission vocabulary used in guild
// templates onto the Discord 64-bit permission bitmask.
package permissions

// Bitmask is a fixed-width 64-bit permission set. Using an explicit unsigned
// type avoids the precision loss a float-backed JSON number would cause for
// high bits like moderate_members (1<<40).
type Bitmask uint64

// Discord permission flags, one bit each.
const (
	CreateInstantInvite Bitmask = 1 << 0
	KickMembers         Bitmask = 1 << 1
	BanMembers          Bitmask = 1 << 2
	Administrator       Bitmask = 1 << 3
	ManageChannels      Bitmask = 1 << 4
	ManageGuild         Bitmask = 1 << 5
	AddReactions        Bitmask = 1 << 6
	ViewAuditLog        Bitmask = 1 << 7
	PrioritySpeaker     Bitmask = 1 << 8
	Stream              Bitmask = 1 << 9
	ViewChannel         Bitmask = 1 << 10
	SendMessages        Bitmask = 1 << 11
	ManageMessages      Bitmask = 1 << 13
	EmbedLinks          Bitmask = 1 << 14
	AttachFiles         Bitmask = 1 << 15
	ReadMessageHistory  Bitmask = 1 << 16
	MentionEveryone     Bitmask = 1 << 17
	UseExternalEmojis   Bitmask = 1 << 18
	Connect             Bitmask = 1 << 20
	Speak               Bitmask = 1 << 21
	MuteMembers         Bitmask = 1 << 22
	DeafenMembers       Bitmask = 1 << 23
	MoveMembers         Bitmask = 1 << 24
	ChangeNickname      Bitmask = 1 << 26
	ManageNicknames     Bitmask = 1 << 27
	ManageRoles         Bitmask = 1 << 28
	ManageWebhooks      Bitmask = 1 << 29
	RequestToSpeak      Bitmask = 1 << 32
	ManageEvents        Bitmask = 1 << 33
	ManageThreads       Bitmask = 1 << 34
	CreatePublicThreads Bitmask = 1 << 35
	SendThreadMessages  Bitmask = 1 << 38
	ModerateMembers     Bitmask = 1 << 40
)

// byName is the symbolic vocabulary templates may use. Names mirror the
// remote API's snake_case flag names.
var byName = map[string]Bitmask{
	"create_instant_invite": CreateInstantInvite,
	"kick_members":          KickMembers,
	"ban_members":           BanMembers,
	"administrator":         Administrator,
	"manage_channels":       ManageChannels,
	"manage_guild":          ManageGuild,
	"add_reactions":         AddReactions,
	"view_audit_log":        ViewAuditLog,
	"priority_speaker":      PrioritySpeaker,
	"stream":                Stream,
	"view_channel":          ViewChannel,
	"send_messages":         SendMessages,
	"manage_messages":       ManageMessages,
	"embed_links":           EmbedLinks,
	"attach_files":          AttachFiles,
	"read_message_history":  ReadMessageHistory,
	"mention_everyone":      MentionEveryone,
	"use_external_emojis":   UseExternalEmojis,
	"connect":               Connect,
	"speak":                 Speak,
	"mute_members":          MuteMembers,
	"deafen_members":        DeafenMembers,
	"move_members":          MoveMembers,
	"change_nickname":       ChangeNickname,
	"manage_nicknames":      ManageNicknames,
	"manage_roles":          ManageRoles,
	"manage_webhooks":       ManageWebhooks,
	"request_to_speak":      RequestToSpeak,
	"manage_events":         ManageEvents,
	"manage_threads":        ManageThreads,
	"create_public_threads": CreatePublicThreads,
	"send_thread_messages":  SendThreadMessages,
	"moderate_members":      ModerateMembers,
}

// Lookup returns the bit for a single symbolic name.
func Lookup(name string) (Bitmask, bool) {
	bit, ok := byName[name]
	return bit, ok
}

// Resolve combines a list of symbolic permission names into a single bitmask
// by bitwise OR. Unknown names are ignored rather than rejected, so templates
// written against a newer vocabulary still resolve their known names.
func Resolve(names []string) Bitmask {
	var mask Bitmask
	for _, name := range names {
		if bit, ok := byName[name]; ok {
			mask |= bit
		}
	}
	return mask
}

// Has reports whether every bit of want is set in the mask.
func (m Bitmask) Has(want Bitmask) bool {
	return m&want == want
}
