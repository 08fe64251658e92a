package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

func TestRecordOutcome(t *testing.T) {
	require.NoError(t, view.Register(TransitionsView, SettledVolumeView))
	defer view.Unregister(TransitionsView, SettledVolumeView)

	ctx := Tagged(context.Background(), "bid")
	RecordOutcome(ctx, OutcomeCommitted, "")
	RecordOutcome(ctx, OutcomeRejected, "InsufficientBid")
	RecordOutcome(ctx, OutcomeRejected, "InsufficientBid")

	rows, err := view.RetrieveData(TransitionsView.Name)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var total int64
	for _, row := range rows {
		total += row.Data.(*view.CountData).Value
	}
	require.Equal(t, int64(3), total)

	stats.Record(ctx, SettledVolume.M(10), SettledVolume.M(5))
	rows, err = view.RetrieveData(SettledVolumeView.Name)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, float64(15), rows[0].Data.(*view.SumData).Value)
}
