package permissions

import (
	"testing"

	"github.com/guildforge/guildforge/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveCombinesBits(t *testing.T) {
	mask := Resolve([]string{"view_channel", "send_messages"})
	assert.Equal(t, ViewChannel|SendMessages, mask)
}

func TestResolveIgnoresUnknownNames(t *testing.T) {
	mask := Resolve([]string{"view_channel", "summon_dragons", "send_messages"})
	assert.Equal(t, ViewChannel|SendMessages, mask)

	assert.Equal(t, Bitmask(0), Resolve([]string{"not_a_permission"}))
	assert.Equal(t, Bitmask(0), Resolve(nil))
}

func TestResolveOrderIndependentAndIdempotent(t *testing.T) {
	a := Resolve([]string{"kick_members", "ban_members", "moderate_members"})
	b := Resolve([]string{"moderate_members", "kick_members", "ban_members"})
	assert.Equal(t, a, b)

	// Duplicates collapse under OR.
	c := Resolve([]string{"kick_members", "kick_members"})
	assert.Equal(t, KickMembers, c)
}

func TestHighBitsSurvive(t *testing.T) {
	// moderate_members sits above bit 32; a float64 round-trip would lose it.
	mask := Resolve([]string{"moderate_members"})
	assert.Equal(t, Bitmask(1)<<40, mask)
	assert.True(t, mask.Has(ModerateMembers))
}

func TestIsStaffByPosition(t *testing.T) {
	member := models.Role{Name: "Member", Position: 0}
	mod := models.Role{Name: "Mod", Position: 12}

	assert.False(t, IsStaff(member))
	assert.True(t, IsStaff(mod))
}

func TestIsStaffByCapability(t *testing.T) {
	admin := models.Role{Name: "Admin", Position: 3, Permissions: []string{"administrator"}}
	manager := models.Role{Name: "Manager", Position: 3, Permissions: []string{"manage_guild"}}
	helper := models.Role{Name: "Helper", Position: 3, Permissions: []string{"manage_messages"}}

	assert.True(t, IsStaff(admin))
	assert.True(t, IsStaff(manager))
	assert.False(t, IsStaff(helper))
}

func TestStaffRolesPreservesOrder(t *testing.T) {
	roles := []models.Role{
		{Name: "Member", Position: 0},
		{Name: "Admin", Position: 15},
		{Name: "Mod", Position: 12},
	}

	staff := StaffRoles(roles)
	assert.Len(t, staff, 2)
	assert.Equal(t, "Admin", staff[0].Name)
	assert.Equal(t, "Mod", staff[1].Name)
}
