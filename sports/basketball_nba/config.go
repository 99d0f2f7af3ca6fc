package basketball_nba

// Config contains NBA-specific scoring configuration
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
	FieldGoalMade    int
	ThreePointerMade int
	FreeThrowMade    int
	Rebound          int
	Assist           int
	Steal            int
	Block            int
	Turnover         int
	FlagrantFoul     int
}

// BonusConfig defines post-match bonus values
type BonusConfig struct {
	// Category total needed for a double/triple
	CategoryThreshold int

	TripleDouble int
	DoubleDouble int

	// Playoff performer: points category total in a knockout game
	PlayoffPointsThreshold int
	PlayoffPerformer       int

	TeamVictory int
}

// DefaultConfig returns the standard NBA scoring table
func DefaultConfig() *Config {
	return &Config{
		SportKey:    "basketball_nba",
		DisplayName: "NBA Basketball",

		Live: LivePoints{
			FieldGoalMade:    2,
			ThreePointerMade: 3,
			FreeThrowMade:    1,
			Rebound:          1,
			Assist:           2,
			Steal:            3,
			Block:            3,
			Turnover:         -1,
			FlagrantFoul:     -3,
		},

		Bonuses: BonusConfig{
			CategoryThreshold:      10,
			TripleDouble:           15,
			DoubleDouble:           5,
			PlayoffPointsThreshold: 30,
			PlayoffPerformer:       10,
			TeamVictory:            3,
		},
	}
}
