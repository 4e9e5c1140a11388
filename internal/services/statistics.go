package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"queue-system/models"
)

// ComputeStatistics derives cross-activity totals from a snapshot. The
// average uses grand totals, so busy activities weigh more than quiet ones.
func ComputeStatistics(snap models.Snapshot) models.Statistics {
	var stats models.Statistics
	totalSeconds := 0

	for _, q := range snap {
		stats.TotalServed += q.ServedCount
		stats.TotalWaiting += len(q.Waiting)
		totalSeconds += q.TotalServiceSeconds
		if q.ServingNumber > 0 {
			stats.ActiveQueues++
		}
	}

	if stats.TotalServed > 0 {
		stats.AverageWaitSeconds = totalSeconds / stats.TotalServed
	}
	stats.AverageWaitMinutes = decimal.NewFromInt(int64(stats.AverageWaitSeconds)).
		Div(decimal.NewFromInt(60)).
		Round(1)

	return stats
}

// ChartRows returns one row per activity in registry order. Activities
// missing from the snapshot get an all-zero row.
func ChartRows(activities []models.Activity, snap models.Snapshot) []models.ChartRow {
	rows := make([]models.ChartRow, 0, len(activities))
	for _, a := range activities {
		q := snap[a.ID]
		row := models.ChartRow{
			Name:    a.Label,
			Served:  q.ServedCount,
			Waiting: len(q.Waiting),
		}
		if q.ServedCount > 0 {
			row.AvgTime = q.TotalServiceSeconds / q.ServedCount
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatClock renders seconds as MM:SS; minutes are not capped at 59.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
