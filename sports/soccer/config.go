package soccer

// Config contains soccer scoring configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string

	// Points awarded per live event
	Live LivePoints

	// Post-match bonus values and thresholds
	Bonuses BonusConfig
}

// LivePoints is the value of each scoring event
type LivePoints struct {
	Goal int
	// Added on top of Goal when the goal was a penalty
	PenaltyGoalAdjustment int
	OwnGoal               int
	Assist                int
	YellowCard            int
	RedCard               int
	Save                  int
	PenaltySaved          int
	PenaltyMissed         int
}

// BonusConfig defines post-match bonus values
type BonusConfig struct {
	HatTrickGoals   int
	HatTrick        int
	HatTrickPlayoff int

	CleanSheetMinMinutes int
	CleanSheet           int

	PlaymakerAssists int
	Playmaker        int

	// Deficit a winning team must have overturned
	ComebackDeficit int
	ComebackVictory int

	TeamVictory int
}

// DefaultConfig returns the standard soccer scoring table
func DefaultConfig() *Config {
	return &Config{
		SportKey:    "soccer",
		DisplayName: "Soccer",

		Live: LivePoints{
			Goal:                  10,
			PenaltyGoalAdjustment: -2,
			OwnGoal:               -4,
			Assist:                6,
			YellowCard:            -2,
			RedCard:               -6,
			Save:                  1,
			PenaltySaved:          8,
			PenaltyMissed:         -5,
		},

		Bonuses: BonusConfig{
			HatTrickGoals:        3,
			HatTrick:             20,
			HatTrickPlayoff:      50,
			CleanSheetMinMinutes: 60,
			CleanSheet:           10,
			PlaymakerAssists:     3,
			Playmaker:            15,
			ComebackDeficit:      2,
			ComebackVictory:      10,
			TeamVictory:          5,
		},
	}
}
