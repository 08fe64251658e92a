package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000, 10000)

// Global Tags
var (
	Operation, _ = tag.NewKey("operation")
	Outcome, _   = tag.NewKey("outcome")
	ErrorName, _ = tag.NewKey("error")
)

const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Measures
var (
	Transitions        = stats.Int64("auction/transitions", "Counter of auction transitions", stats.UnitDimensionless)
	TransitionDuration = stats.Float64("auction/transition_ms", "Duration of an auction transition", stats.UnitMilliseconds)
	LockWait           = stats.Float64("auction/lock_wait_ms", "Time spent waiting for the auction lock", stats.UnitMilliseconds)
	SettledVolume      = stats.Int64("auction/settled_volume", "Winning bid units settled by claims", stats.UnitDimensionless)
	RoyaltyShortfall   = stats.Int64("auction/royalty_shortfall", "Royalty units left unpaid by claims", stats.UnitDimensionless)
)

var (
	TransitionsView = &view.View{
		Name:        "auction/transitions",
		Measure:     Transitions,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{Operation, Outcome, ErrorName},
	}
	TransitionDurationView = &view.View{
		Name:        "auction/transition_ms",
		Measure:     TransitionDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{Operation},
	}
	LockWaitView = &view.View{
		Name:        "auction/lock_wait_ms",
		Measure:     LockWait,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{Operation},
	}
	SettledVolumeView = &view.View{
		Name:        "auction/settled_volume",
		Measure:     SettledVolume,
		Aggregation: view.Sum(),
	}
	RoyaltyShortfallView = &view.View{
		Name:        "auction/royalty_shortfall",
		Measure:     RoyaltyShortfall,
		Aggregation: view.Sum(),
	}
)

// DefaultViews is an array of OpenCensus views for metric gathering purposes
var DefaultViews = []*view.View{
	TransitionsView,
	TransitionDurationView,
	LockWaitView,
	SettledVolumeView,
	RoyaltyShortfallView,
}

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

// Timer is a function stopwatch, calling it starts the timer,
// calling the returned function will record the duration.
func Timer(ctx context.Context, m *stats.Float64Measure) func() {
	start := time.Now()
	return func() {
		stats.Record(ctx, m.M(SinceInMilliseconds(start)))
	}
}

// Tagged returns ctx carrying the operation tag.
func Tagged(ctx context.Context, operation string) context.Context {
	ctx, _ = tag.New(ctx, tag.Upsert(Operation, operation))
	return ctx
}

// RecordOutcome counts one transition with its outcome and error name.
func RecordOutcome(ctx context.Context, outcome, errName string) {
	if errName == "" {
		errName = "none"
	}
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(Outcome, outcome),
		tag.Upsert(ErrorName, errName),
	}, Transitions.M(1))
}
