package model

import (
	"fmt"
	"strings"
)

// Role is a player's depth chart role within his position group.
type Role string

// Depth chart roles. RoleUnlisted marks an active player the source gives no depth for.
const (
	RoleStarter  Role = "starter"
	RoleBackup   Role = "backup"
	RoleThird    Role = "third"
	RolePractice Role = "practice"
	RoleUnlisted Role = "unlisted"
)

// ParseRole accepts role names, depth ranks ("1".."3") and practice squad markers.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "starter", "1", "first":
		return RoleStarter, nil
	case "backup", "2", "second":
		return RoleBackup, nil
	case "third", "3":
		return RoleThird, nil
	case "practice", "ps", "dev", "practice_squad":
		return RolePractice, nil
	case "", "na", "unlisted":
		return RoleUnlisted, nil
	default:
		return "", fmt.Errorf("%w: role %q", ErrMalformedRow, s)
	}
}

// InjuryStatus is a player's game status from the weekly injury report.
type InjuryStatus string

// Injury statuses.
const (
	StatusActive       InjuryStatus = "active"
	StatusQuestionable InjuryStatus = "questionable"
	StatusDoubtful     InjuryStatus = "doubtful"
	StatusOut          InjuryStatus = "out"
)

// ParseInjuryStatus maps report statuses to InjuryStatus. Empty means active.
func ParseInjuryStatus(s string) (InjuryStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "active", "none", "probable":
		return StatusActive, nil
	case "questionable":
		return StatusQuestionable, nil
	case "doubtful":
		return StatusDoubtful, nil
	case "out", "ir", "injured reserve", "pup":
		return StatusOut, nil
	default:
		return "", fmt.Errorf("%w: injury status %q", ErrMalformedRow, s)
	}
}

// PlayerRow is one player's contribution inputs for a team week.
type PlayerRow struct {
	PlayerID string       `json:"player_id"`
	Name     string       `json:"name"`
	Team     string       `json:"team"`
	Position string       `json:"position"`
	Role     Role         `json:"role"`
	SnapPct  float64      `json:"snap_pct"`
	Status   InjuryStatus `json:"status"`
}
