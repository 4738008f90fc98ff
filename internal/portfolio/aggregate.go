package portfolio

import (
	"strings"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// Aggregate merges open lots into positions keyed by (ticker, strategy).
// Sold lots are skipped. The function is pure: the same lot set always
// produces the same positions, and an empty input yields an empty map.
func Aggregate(lots []models.Lot) map[models.PositionKey]*models.Position {
	positions := make(map[models.PositionKey]*models.Position)
	entryDates := make(map[models.PositionKey]map[string]struct{})

	for _, lot := range lots {
		if lot.IsSold {
			continue
		}

		key := models.PositionKey{Ticker: lot.Ticker, StrategyType: lot.StrategyType}
		pos, ok := positions[key]
		if !ok {
			pos = &models.Position{
				Ticker:         lot.Ticker,
				StrategyType:   lot.StrategyType,
				FirstEntryDate: lot.EntryDate,
			}
			positions[key] = pos
			entryDates[key] = make(map[string]struct{})
		}

		pos.TotalShares += lot.Shares
		pos.TotalCost = pos.TotalCost.Add(lot.TotalCost)
		pos.LotIDs = append(pos.LotIDs, lot.ID)
		entryDates[key][lot.EntryDate.Format("2006-01-02")] = struct{}{}

		if lot.EntryDate.Before(pos.FirstEntryDate) {
			pos.FirstEntryDate = lot.EntryDate
		}
		pos.Notes = mergeNotes(pos.Notes, lot.Notes)
	}

	for key, pos := range positions {
		pos.EntryDays = len(entryDates[key])
	}
	return positions
}

// mergeNotes appends a note unless it is empty or already present.
func mergeNotes(merged, note string) string {
	if note == "" {
		return merged
	}
	if merged == "" {
		return note
	}
	for _, existing := range strings.Split(merged, "; ") {
		if existing == note {
			return merged
		}
	}
	return merged + "; " + note
}
