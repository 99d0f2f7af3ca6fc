package basketball_nba

import (
	"fmt"
	"strconv"

	"github.com/XavierBriggs/Nike/pkg/models"
)

// maxPeriod allows four quarters plus overtimes
const maxPeriod = 10

// ValidateEvent checks the fields every NBA event must carry
func ValidateEvent(event models.MatchEvent) error {
	if event.EventID == "" {
		return fmt.Errorf("event id cannot be empty")
	}

	if event.MatchID == "" {
		return fmt.Errorf("match id cannot be empty")
	}

	if event.PlayerID == "" {
		return fmt.Errorf("player id cannot be empty for %s", event.Type)
	}

	if event.TeamID == "" {
		return fmt.Errorf("team id cannot be empty")
	}

	if event.Minute < 0 || event.Minute > 48+5*(maxPeriod-4) {
		return fmt.Errorf("minute out of range: %d", event.Minute)
	}

	if raw, ok := event.Metadata[models.MetaPeriod]; ok {
		period, err := strconv.Atoi(raw)
		if err != nil || period < 1 || period > maxPeriod {
			return fmt.Errorf("invalid period: %q", raw)
		}
	}

	return nil
}
