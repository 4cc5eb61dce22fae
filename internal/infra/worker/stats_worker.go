package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/usecase"
)

var (
	leadsByTier = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leads_by_tier",
			Help: "Number of stored leads per tier",
		},
		[]string{"tier"},
	)

	leadsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leads_by_status",
			Help: "Number of stored leads per pipeline status",
		},
		[]string{"status"},
	)

	wonRevenue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leads_won_revenue",
			Help: "Sum of revenue over won conversions",
		},
	)
)

type StatsSource interface {
	Execute(ctx context.Context) (*usecase.LeadStats, error)
}

// StatsWorker refreshes the lead gauges from the store on a fixed interval.
type StatsWorker struct {
	source       StatsSource
	tickInterval time.Duration
}

func NewStatsWorker(source StatsSource, interval time.Duration) *StatsWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsWorker{
		source:       source,
		tickInterval: interval,
	}
}

func (w *StatsWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.tickInterval).Msg("stats worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stats worker stopped")
			return
		case <-ticker.C:
			w.Refresh(ctx)
		}
	}
}

// Refresh recomputes the gauges once. A store failure keeps the previous values.
func (w *StatsWorker) Refresh(ctx context.Context) {
	stats, err := w.source.Execute(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("refresh lead gauges")
		return
	}

	s := stats.Stats
	leadsByTier.WithLabelValues("unqualified").Set(float64(s.Unqualified))
	leadsByTier.WithLabelValues("qualified").Set(float64(s.Qualified))
	leadsByTier.WithLabelValues("vip").Set(float64(s.VIP))

	leadsByStatus.WithLabelValues("pending").Set(float64(s.Pending))
	leadsByStatus.WithLabelValues("contacted").Set(float64(s.Contacted))
	leadsByStatus.WithLabelValues("won").Set(float64(s.Won))
	leadsByStatus.WithLabelValues("lost").Set(float64(s.Lost))
	leadsByStatus.WithLabelValues("rejected").Set(float64(s.Rejected))

	wonRevenue.Set(s.Revenue)
}
