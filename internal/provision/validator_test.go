package provision

import (
	"testing"

	"github.com/guildforge/guildforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTemplate() *models.ServerTemplate {
	return &models.ServerTemplate{
		ID:   "community-hub",
		Name: "Community Hub",
		Categories: []models.Category{
			{Name: "General", Channels: []models.Channel{
				{Name: "welcome", Kind: models.ChannelText},
				{Name: "lounge", Kind: models.ChannelVoice, UserLimit: 10},
			}},
		},
		Roles: []models.Role{
			{Name: "Member", Color: "#99AAB5", Position: 0},
			{Name: "Admin", Color: "#E74C3C", Position: 12, Permissions: []string{"administrator"}},
		},
	}
}

func TestValidateAcceptsWellFormedTemplate(t *testing.T) {
	res := ValidateTemplate(validTemplate())
	assert.True(t, res.OK())
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidateRequiresCategoriesAndRoles(t *testing.T) {
	tpl := validTemplate()
	tpl.Categories = nil
	tpl.Roles = nil

	res := ValidateTemplate(tpl)
	require.False(t, res.OK())
	assert.Contains(t, res.Errors, "template has no categories")
	assert.Contains(t, res.Errors, "template has no roles")
}

func TestValidateRejectsMissingChannelNameAndUnknownKind(t *testing.T) {
	tpl := validTemplate()
	tpl.Categories[0].Channels = append(tpl.Categories[0].Channels,
		models.Channel{Kind: models.ChannelText},            // no name
		models.Channel{Name: "bad", Kind: "carrier-pigeon"}, // unknown kind
	)

	res := ValidateTemplate(tpl)
	require.False(t, res.OK())
	assert.Len(t, res.Errors, 2)
}

func TestOutOfRangeValuesWarnButDoNotBlock(t *testing.T) {
	tpl := validTemplate()
	tpl.Categories[0].Channels[0].Slowmode = 30000
	tpl.Categories[0].Channels[1].UserLimit = 150

	res := ValidateTemplate(tpl)
	assert.True(t, res.OK(), "range violations must not block the run")
	assert.Len(t, res.Warnings, 2)
}

func TestNegativeSlowmodeWarns(t *testing.T) {
	tpl := validTemplate()
	tpl.Categories[0].Channels[0].Slowmode = -1

	res := ValidateTemplate(tpl)
	assert.True(t, res.OK())
	assert.Len(t, res.Warnings, 1)
}

func TestMalformedRoleColorBlocks(t *testing.T) {
	tpl := validTemplate()
	tpl.Roles[0].Color = "not-a-color"

	res := ValidateTemplate(tpl)
	assert.False(t, res.OK())
}

func TestStaffIntentWithoutStaffRoleBlocks(t *testing.T) {
	tpl := validTemplate()
	tpl.Roles = []models.Role{{Name: "Member", Position: 0}}
	tpl.Categories[0].Channels[0].Perms = &models.PermissionRule{StaffOnly: true}

	res := ValidateTemplate(tpl)
	require.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "staff predicate")
}

func TestUnknownRoleLockTargetWarnsOnly(t *testing.T) {
	tpl := validTemplate()
	tpl.Categories[0].Channels[0].Perms = &models.PermissionRule{RoleLocked: "Ghost"}

	res := ValidateTemplate(tpl)
	assert.True(t, res.OK())
	assert.Len(t, res.Warnings, 1)
}

func TestParseHexColor(t *testing.T) {
	v, err := ParseHexColor("#5865F2")
	require.NoError(t, err)
	assert.Equal(t, 0x5865F2, v)

	v, err = ParseHexColor("ffffff")
	require.NoError(t, err)
	assert.Equal(t, 0xFFFFFF, v)

	_, err = ParseHexColor("#fff")
	assert.Error(t, err)
	_, err = ParseHexColor("zzzzzz")
	assert.Error(t, err)
}
