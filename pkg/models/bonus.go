package models

// Bonus is a point award produced by a post-match rule
type Bonus struct {
	Rule        string `json:"rule"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// PlayerBonus pairs a player with one awarded bonus
type PlayerBonus struct {
	PlayerID string `json:"player_id"`
	Bonus    Bonus  `json:"bonus"`
}

// MatchBonusResult is the immutable output of one bonus calculation run.
// A recalculation produces a new result which replaces the stored one.
type MatchBonusResult struct {
	ResultID string        `json:"result_id"` // Content-derived, equal for equal results
	MatchID  string        `json:"match_id"`
	SportKey string        `json:"sport_key"`
	Entries  []PlayerBonus `json:"entries"`
}

// TotalFor returns the sum of all bonus points awarded to a player
func (r *MatchBonusResult) TotalFor(playerID string) int {
	total := 0
	for _, e := range r.Entries {
		if e.PlayerID == playerID {
			total += e.Bonus.Points
		}
	}
	return total
}

// ByPlayer groups bonuses per player, preserving result order within each player
func (r *MatchBonusResult) ByPlayer() map[string][]Bonus {
	out := make(map[string][]Bonus)
	for _, e := range r.Entries {
		out[e.PlayerID] = append(out[e.PlayerID], e.Bonus)
	}
	return out
}

// Rules returns the rule names awarded to a player, in result order
func (r *MatchBonusResult) Rules(playerID string) []string {
	var names []string
	for _, e := range r.Entries {
		if e.PlayerID == playerID {
			names = append(names, e.Bonus.Rule)
		}
	}
	return names
}
