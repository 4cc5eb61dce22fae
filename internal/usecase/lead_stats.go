package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

const StatsWindowDays = 30

type StatsOverview struct {
	Total       int     `json:"total"`
	Unqualified int     `json:"unqualified"`
	Qualified   int     `json:"qualified"`
	VIP         int     `json:"vip"`
	Pending     int     `json:"pending"`
	Contacted   int     `json:"contacted"`
	Won         int     `json:"won"`
	Lost        int     `json:"lost"`
	Rejected    int     `json:"rejected"`
	Revenue     float64 `json:"revenue"`
}

type DayStats struct {
	Date        string `json:"date"`
	Label       string `json:"label"`
	Unqualified int    `json:"unqualified"`
	Qualified   int    `json:"qualified"`
	VIP         int    `json:"vip"`
}

type LeadStats struct {
	Stats StatsOverview `json:"stats"`
	Days  []DayStats    `json:"days"`
}

// LeadStatsUseCase computes the dashboard overview from the store on every call.
// Days are UTC calendar days.
type LeadStatsUseCase struct {
	Repo entity.LeadRepositoryInterface
	Now  func() time.Time
}

func NewLeadStatsUseCase(repo entity.LeadRepositoryInterface) *LeadStatsUseCase {
	return &LeadStatsUseCase{Repo: repo, Now: time.Now}
}

func (uc *LeadStatsUseCase) Execute(ctx context.Context) (*LeadStats, error) {
	leads, conversions, err := uc.Repo.Snapshot(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeStore, Message: "failed to read lead store", Err: err}
	}

	var stats StatsOverview
	stats.Total = len(leads)
	for _, l := range leads {
		switch l.Tier {
		case entity.TierUnqualified:
			stats.Unqualified++
		case entity.TierQualified:
			stats.Qualified++
		case entity.TierVIP:
			stats.VIP++
		}
		switch l.Status {
		case entity.StatusPending:
			stats.Pending++
		case entity.StatusContacted:
			stats.Contacted++
		case entity.StatusWon:
			stats.Won++
		case entity.StatusLost:
			stats.Lost++
		case entity.StatusRejected:
			stats.Rejected++
		}
	}
	for _, c := range conversions {
		if c.Outcome == entity.OutcomeWon && c.Revenue != nil {
			stats.Revenue += *c.Revenue
		}
	}

	return &LeadStats{Stats: stats, Days: dailySeries(leads, uc.Now().UTC())}, nil
}

// dailySeries returns one zero-filled entry per day for the window ending today,
// oldest first.
func dailySeries(leads []entity.Lead, now time.Time) []DayStats {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(StatsWindowDays - 1))

	days := make([]DayStats, StatsWindowDays)
	index := make(map[string]int, StatsWindowDays)
	for i := range days {
		d := first.AddDate(0, 0, i)
		key := d.Format(time.DateOnly)
		days[i] = DayStats{Date: key, Label: d.Format("01-02")}
		index[key] = i
	}

	for _, l := range leads {
		i, ok := index[l.CreatedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		switch l.Tier {
		case entity.TierUnqualified:
			days[i].Unqualified++
		case entity.TierQualified:
			days[i].Qualified++
		case entity.TierVIP:
			days[i].VIP++
		}
	}
	return days
}
