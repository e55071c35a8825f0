package roster

import (
	"strings"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/team"
)

// noSnapRow is the snap multiplier for a player absent from the snap table.
const noSnapRow = 1.0

// Join merges roster, injury and snap tables into player rows for code.
// Injuries match by player id then by name; snaps match by PFR id then by name.
// Roster rows that belong to another team, or that sit on reserve lists, are
// dropped silently. Rows that cannot be parsed are dropped and counted.
func Join(code string, tw model.TeamWeek) (rows []model.PlayerRow, skipped int) {
	injByID := make(map[string]model.InjuryEntry)
	injByName := make(map[string]model.InjuryEntry)
	for _, in := range tw.Injuries {
		if !sameTeam(in.Team, code) {
			continue
		}
		if in.PlayerID != "" {
			injByID[in.PlayerID] = in
		}
		if n := nameKey(in.Name); n != "" {
			injByName[n] = in
		}
	}

	snapByID := make(map[string]model.SnapEntry)
	snapByName := make(map[string]model.SnapEntry)
	for _, s := range tw.Snaps {
		if !sameTeam(s.Team, code) {
			continue
		}
		if s.PFRID != "" {
			snapByID[s.PFRID] = s
		}
		if n := nameKey(s.Name); n != "" {
			snapByName[n] = s
		}
	}

	for _, re := range tw.Roster {
		if !sameTeam(re.Team, code) {
			continue
		}
		role, active, err := rosterRole(re)
		if err != nil {
			skipped++
			continue
		}
		if !active {
			continue
		}

		status := model.StatusActive
		in, ok := injByID[re.PlayerID]
		if !ok || re.PlayerID == "" {
			in, ok = injByName[nameKey(re.Name)]
		}
		if ok {
			status, err = model.ParseInjuryStatus(in.Status)
			if err != nil {
				skipped++
				continue
			}
		}

		snap := noSnapRow
		s, ok := snapByID[re.PFRID]
		if !ok || re.PFRID == "" {
			s, ok = snapByName[nameKey(re.Name)]
		}
		if ok {
			snap = s.Pct()
		}

		rows = append(rows, model.PlayerRow{
			PlayerID: re.PlayerID,
			Name:     re.Name,
			Team:     code,
			Position: re.Position,
			Role:     role,
			SnapPct:  snap,
			Status:   status,
		})
	}
	return rows, skipped
}

// rosterRole derives the depth role from the depth column and roster status.
// active is false for players not on the game-week roster.
func rosterRole(re model.RosterEntry) (role model.Role, active bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(re.Status)) {
	case "", "ACT":
	case "DEV":
		if strings.TrimSpace(re.Depth) == "" {
			return model.RolePractice, true, nil
		}
	case "INA":
		return model.RoleUnlisted, false, nil
	default:
		return "", false, nil
	}
	role, err = model.ParseRole(re.Depth)
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

func sameTeam(raw, code string) bool {
	t, err := team.Parse(raw)
	return err == nil && t == code
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
