package provision

import (
	"strconv"
	"testing"

	"github.com/guildforge/guildforge/internal/discord"
	"github.com/guildforge/guildforge/internal/models"
	"github.com/guildforge/guildforge/internal/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guildID = "guild-123"

func boolPtr(b bool) *bool { return &b }

func mask(bits permissions.Bitmask) string {
	return strconv.FormatUint(uint64(bits), 10)
}

func findOverwrite(t *testing.T, entries []discord.PermissionOverwrite, target string) discord.PermissionOverwrite {
	t.Helper()
	for _, e := range entries {
		if e.ID == target {
			return e
		}
	}
	t.Fatalf("no overwrite for target %s in %v", target, entries)
	return discord.PermissionOverwrite{}
}

func TestNilRuleProducesNoOverwrites(t *testing.T) {
	assert.Nil(t, BuildOverwrites(guildID, nil, nil, nil))
}

func TestEveryoneDenies(t *testing.T) {
	rule := &models.PermissionRule{Everyone: &models.EveryoneRule{
		SendMessages: boolPtr(false),
		ViewChannel:  boolPtr(false),
	}}

	entries := BuildOverwrites(guildID, rule, nil, RoleMap{})
	require.Len(t, entries, 1)
	assert.Equal(t, guildID, entries[0].ID)
	assert.Equal(t, discord.OverwriteTypeRole, entries[0].Type)
	assert.Equal(t, mask(permissions.SendMessages|permissions.ViewChannel), entries[0].Deny)
	assert.Equal(t, "0", entries[0].Allow)
}

func TestEveryoneTrueValuesProduceNothing(t *testing.T) {
	rule := &models.PermissionRule{Everyone: &models.EveryoneRule{
		SendMessages: boolPtr(true),
	}}
	assert.Empty(t, BuildOverwrites(guildID, rule, nil, RoleMap{}))
}

func TestStaffOnlyHidesFromEveryoneAndAdmitsStaff(t *testing.T) {
	roles := []models.Role{
		{Name: "Member", Position: 0},
		{Name: "Admin", Position: 12},
		{Name: "Mod", Position: 3, Permissions: []string{"manage_guild"}},
	}
	roleMap := RoleMap{"Member": "r1", "Admin": "r2", "Mod": "r3"}

	entries := BuildOverwrites(guildID, &models.PermissionRule{StaffOnly: true}, roles, roleMap)
	require.Len(t, entries, 3)

	everyone := findOverwrite(t, entries, guildID)
	assert.Equal(t, mask(permissions.ViewChannel), everyone.Deny)

	admin := findOverwrite(t, entries, "r2")
	assert.Equal(t, mask(permissions.ViewChannel|permissions.SendMessages), admin.Allow)

	mod := findOverwrite(t, entries, "r3")
	assert.Equal(t, mask(permissions.ViewChannel|permissions.SendMessages), mod.Allow)
}

func TestRoleLockedAllowsTargetAndStaff(t *testing.T) {
	// Admin is both the lock target and staff; the builder merges both
	// grants into a single entry.
	roles := []models.Role{
		{Name: "Member", Position: 0},
		{Name: "Admin", Position: 12, Permissions: []string{"administrator"}},
	}
	roleMap := RoleMap{"Member": "r1", "Admin": "r2"}

	entries := BuildOverwrites(guildID, &models.PermissionRule{RoleLocked: "Admin"}, roles, roleMap)
	require.Len(t, entries, 2, "everyone plus one merged Admin entry")

	everyone := findOverwrite(t, entries, guildID)
	assert.Equal(t, mask(permissions.ViewChannel), everyone.Deny)

	admin := findOverwrite(t, entries, "r2")
	assert.Equal(t, mask(permissions.ViewChannel), admin.Allow)
}

func TestRoleLockedToNonStaffRole(t *testing.T) {
	roles := []models.Role{
		{Name: "Member", Position: 0},
		{Name: "VIP", Position: 5},
		{Name: "Admin", Position: 12},
	}
	roleMap := RoleMap{"Member": "r1", "VIP": "r2", "Admin": "r3"}

	entries := BuildOverwrites(guildID, &models.PermissionRule{RoleLocked: "VIP"}, roles, roleMap)
	require.Len(t, entries, 3)

	vip := findOverwrite(t, entries, "r2")
	assert.Equal(t, mask(permissions.ViewChannel), vip.Allow)

	// Staff retain visibility into role-locked channels.
	admin := findOverwrite(t, entries, "r3")
	assert.Equal(t, mask(permissions.ViewChannel), admin.Allow)
}

func TestUnresolvedRoleReferenceIsDropped(t *testing.T) {
	roles := []models.Role{
		{Name: "Admin", Position: 12},
	}
	roleMap := RoleMap{"Admin": "r1"}

	entries := BuildOverwrites(guildID, &models.PermissionRule{RoleLocked: "Ghost"}, roles, roleMap)
	require.Len(t, entries, 2, "everyone deny plus staff allow; no entry for the ghost role")

	everyone := findOverwrite(t, entries, guildID)
	assert.Equal(t, mask(permissions.ViewChannel), everyone.Deny)
	findOverwrite(t, entries, "r1")
}

func TestStaffOnlyAndRoleLockedTogetherMerge(t *testing.T) {
	// The document format does not forbid specifying both; the builder
	// evaluates them independently and merges per target.
	roles := []models.Role{
		{Name: "VIP", Position: 5},
		{Name: "Admin", Position: 12},
	}
	roleMap := RoleMap{"VIP": "r1", "Admin": "r2"}

	rule := &models.PermissionRule{StaffOnly: true, RoleLocked: "VIP"}
	entries := BuildOverwrites(guildID, rule, roles, roleMap)
	require.Len(t, entries, 3)

	admin := findOverwrite(t, entries, "r2")
	assert.Equal(t, mask(permissions.ViewChannel|permissions.SendMessages), admin.Allow,
		"staff grant and role-lock staff grant collapse into one entry")

	vip := findOverwrite(t, entries, "r1")
	assert.Equal(t, mask(permissions.ViewChannel), vip.Allow)
}
