package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	SinkTimeout     = 5 * time.Second
	NotifyTimeout   = 10 * time.Second
	ScheduleTimeout = 10 * time.Second
)

// Effect is a named best-effort side effect of a conversation turn.
type Effect struct {
	Name    string
	Timeout time.Duration
	Fn      func(context.Context) error
}

// EffectResult is what became of an Effect. The turn handler logs it and moves on;
// it never turns into a request error.
type EffectResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

func (r EffectResult) OK() bool {
	return r.Err == nil
}

// Run executes the effect on a context detached from the caller's cancellation and
// bounded by the effect's timeout, so a dropped client does not abort an issued write.
func (e Effect) Run(ctx context.Context) EffectResult {
	ctx = context.WithoutCancel(ctx)
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := e.Fn(ctx)
	res := EffectResult{Name: e.Name, Err: err, Duration: time.Since(start)}

	if err != nil {
		log.Warn().Err(err).Str("effect", e.Name).Dur("took", res.Duration).Msg("side effect failed")
	} else {
		log.Debug().Str("effect", e.Name).Dur("took", res.Duration).Msg("side effect done")
	}
	return res
}
