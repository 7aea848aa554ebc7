package provision

import (
	"strconv"

	"github.com/guildforge/guildforge/internal/discord"
	"github.com/guildforge/guildforge/internal/models"
	"github.com/guildforge/guildforge/internal/permissions"
)

// RoleMap is the run-scoped mapping from template role name to the identifier
// the remote system assigned at creation. Built during the Roles phase,
// read-only afterwards, discarded at run end.
type RoleMap map[string]string

// BuildOverwrites turns a channel's symbolic permission rule into concrete
// per-role allow/deny entries. The guild id stands in for the @everyone
// pseudo-role, as the remote API defines it.
//
// The rules of a PermissionRule are evaluated independently; when several
// rules touch the same target (a role that is both staff and the role_locked
// target), their masks are merged into a single entry rather than emitted
// twice. Role names absent from the RoleMap resolve to nothing.
func BuildOverwrites(guildID string, rule *models.PermissionRule, roles []models.Role, roleMap RoleMap) []discord.PermissionOverwrite {
	if rule == nil {
		return nil
	}

	b := newOverwriteBuilder()

	if rule.Everyone != nil {
		if rule.Everyone.SendMessages != nil && !*rule.Everyone.SendMessages {
			b.deny(guildID, permissions.SendMessages)
		}
		if rule.Everyone.ViewChannel != nil && !*rule.Everyone.ViewChannel {
			b.deny(guildID, permissions.ViewChannel)
		}
	}

	if rule.StaffOnly {
		b.deny(guildID, permissions.ViewChannel)
		for _, staff := range permissions.StaffRoles(roles) {
			if id, ok := roleMap[staff.Name]; ok {
				b.allow(id, permissions.ViewChannel|permissions.SendMessages)
			}
		}
	}

	if rule.RoleLocked != "" {
		b.deny(guildID, permissions.ViewChannel)
		if id, ok := roleMap[rule.RoleLocked]; ok {
			b.allow(id, permissions.ViewChannel)
		}
		// Staff always retain visibility into role-locked channels.
		for _, staff := range permissions.StaffRoles(roles) {
			if id, ok := roleMap[staff.Name]; ok {
				b.allow(id, permissions.ViewChannel)
			}
		}
	}

	return b.entries()
}

// overwriteBuilder accumulates allow/deny masks per target and preserves the
// order targets were first mentioned in.
type overwriteBuilder struct {
	order   []string
	allowBy map[string]permissions.Bitmask
	denyBy  map[string]permissions.Bitmask
}

func newOverwriteBuilder() *overwriteBuilder {
	return &overwriteBuilder{
		allowBy: make(map[string]permissions.Bitmask),
		denyBy:  make(map[string]permissions.Bitmask),
	}
}

func (b *overwriteBuilder) touch(target string) {
	if _, seen := b.allowBy[target]; seen {
		return
	}
	if _, seen := b.denyBy[target]; seen {
		return
	}
	b.order = append(b.order, target)
}

func (b *overwriteBuilder) allow(target string, mask permissions.Bitmask) {
	b.touch(target)
	b.allowBy[target] |= mask
}

func (b *overwriteBuilder) deny(target string, mask permissions.Bitmask) {
	b.touch(target)
	b.denyBy[target] |= mask
}

func (b *overwriteBuilder) entries() []discord.PermissionOverwrite {
	if len(b.order) == 0 {
		return nil
	}
	out := make([]discord.PermissionOverwrite, 0, len(b.order))
	for _, target := range b.order {
		out = append(out, discord.PermissionOverwrite{
			ID:    target,
			Type:  discord.OverwriteTypeRole,
			Allow: formatMask(b.allowBy[target]),
			Deny:  formatMask(b.denyBy[target]),
		})
	}
	return out
}

func formatMask(mask permissions.Bitmask) string {
	return strconv.FormatUint(uint64(mask), 10)
}
