package model

// TableKind names a cached source table.
type TableKind string

// Source tables.
const (
	KindGames    TableKind = "games"
	KindRosters  TableKind = "rosters"
	KindInjuries TableKind = "injuries"
	KindSnaps    TableKind = "snaps"
)

// RosterEntry is one row of a weekly roster table.
type RosterEntry struct {
	Season   int
	Week     int
	Team     string
	PlayerID string // gsis id
	PFRID    string // pro-football-reference id used by snap counts
	Name     string
	Position string
	Depth    string
	Status   string // roster status, e.g. ACT, RES, DEV
}

// InjuryEntry is one row of a weekly injury report.
type InjuryEntry struct {
	Season   int
	Week     int
	Team     string
	PlayerID string
	Name     string
	Status   string
}

// SnapEntry is one row of a weekly snap count table. Percentages are 0..1.
type SnapEntry struct {
	Season     int
	Week       int
	Team       string
	PFRID      string
	Name       string
	OffensePct float64
	DefensePct float64
	SpecialPct float64
}

// Pct is the first non-zero share among offense, defense and special teams.
func (s SnapEntry) Pct() float64 {
	for _, p := range [...]float64{s.OffensePct, s.DefensePct, s.SpecialPct} {
		if p > 0 {
			return p
		}
	}
	return 0
}

// TeamWeek bundles the three tables for one team and week.
type TeamWeek struct {
	Roster   []RosterEntry
	Injuries []InjuryEntry
	Snaps    []SnapEntry
}
