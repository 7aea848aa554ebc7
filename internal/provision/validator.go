// Package provision contains the provisioning engine: template validation,
// permission overwrite resolution, and the phase-ordered pipeline that drives
// resource creation against the Discord API.
package provision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/guildforge/guildforge/internal/models"
	"github.com/guildforge/guildforge/internal/permissions"
)

// Range limits enforced by the remote API.
const (
	MaxSlowmodeSeconds = 21600
	MaxVoiceUserLimit  = 99
	MinBitrate         = 8000
	MaxBitrate         = 384000
)

// ValidationResult separates blocking errors from non-blocking warnings.
// A template with warnings still provisions; out-of-range values are clamped
// or rejected by the remote API per item.
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the template may be provisioned.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateTemplate runs every structural and range check over a template
// before any remote call is made. Purely structural; never contacts the
// remote system.
func ValidateTemplate(tpl *models.ServerTemplate) ValidationResult {
	var res ValidationResult

	if tpl.ID == "" {
		res.errorf("template is missing an id")
	}
	if tpl.Name == "" {
		res.errorf("template is missing a name")
	}
	if len(tpl.Categories) == 0 {
		res.errorf("template has no categories")
	}
	if len(tpl.Roles) == 0 {
		res.errorf("template has no roles")
	}

	roleNames := make(map[string]bool, len(tpl.Roles))
	for i, role := range tpl.Roles {
		if role.Name == "" {
			res.errorf("role %d has no name", i)
			continue
		}
		roleNames[role.Name] = true
		if role.Color != "" {
			if _, err := ParseHexColor(role.Color); err != nil {
				res.errorf("role %q has malformed color %q", role.Name, role.Color)
			}
		}
	}

	staffIntent := false
	for ci, cat := range tpl.Categories {
		if cat.Name == "" {
			res.errorf("category %d has no name", ci)
		}
		for _, ch := range cat.Channels {
			validateChannel(&res, cat.Name, ch, roleNames)
			if ch.Perms != nil && ch.Perms.StaffOnly {
				staffIntent = true
			}
		}
	}

	// Staff-only channels can only be realized when at least one role
	// satisfies the staff predicate.
	if staffIntent && len(permissions.StaffRoles(tpl.Roles)) == 0 {
		res.errorf("template uses staff_only channels but no role satisfies the staff predicate")
	}

	return res
}

func validateChannel(res *ValidationResult, category string, ch models.Channel, roleNames map[string]bool) {
	if ch.Name == "" {
		res.errorf("category %q contains a channel with no name", category)
		return
	}

	kindOK := false
	for _, kind := range models.ValidChannelKinds {
		if ch.Kind == kind {
			kindOK = true
			break
		}
	}
	if !kindOK {
		res.errorf("channel %q has unknown kind %q", ch.Name, ch.Kind)
	}

	if ch.Slowmode < 0 || ch.Slowmode > MaxSlowmodeSeconds {
		res.warnf("channel %q slowmode %d outside 0-%d, the API will reject or clamp it",
			ch.Name, ch.Slowmode, MaxSlowmodeSeconds)
	}
	if ch.UserLimit < 0 || ch.UserLimit > MaxVoiceUserLimit {
		res.warnf("channel %q user_limit %d outside 0-%d", ch.Name, ch.UserLimit, MaxVoiceUserLimit)
	}
	if ch.Bitrate != 0 && (ch.Bitrate < MinBitrate || ch.Bitrate > MaxBitrate) {
		res.warnf("channel %q bitrate %d outside %d-%d", ch.Name, ch.Bitrate, MinBitrate, MaxBitrate)
	}

	if ch.Perms != nil && ch.Perms.RoleLocked != "" && !roleNames[ch.Perms.RoleLocked] {
		// Unresolved references are dropped at build time, leaving the
		// channel visible to staff only. Worth flagging, not blocking.
		res.warnf("channel %q is locked to role %q which is not in the template roster",
			ch.Name, ch.Perms.RoleLocked)
	}
}

// ParseHexColor parses "#RRGGBB" (or "RRGGBB") into the numeric color the
// remote API expects.
func ParseHexColor(hex string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex color %q", hex)
	}
	return int(v), nil
}
