package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queue-system/models"
)

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(models.Snapshot{})

	assert.Equal(t, 0, stats.TotalServed)
	assert.Equal(t, 0, stats.TotalWaiting)
	assert.Equal(t, 0, stats.AverageWaitSeconds)
	assert.True(t, stats.AverageWaitMinutes.IsZero())
	assert.Equal(t, 0, stats.ActiveQueues)
}

func TestComputeStatistics_AverageOfTenAndTwenty(t *testing.T) {
	service, clock := setupTestQueueService(t)
	issueN(t, service, "pay-fees", 3)

	service.CallNext("pay-fees")
	clock.Advance(10 * time.Second)
	service.CallNext("pay-fees")
	clock.Advance(20 * time.Second)
	service.CallNext("pay-fees")

	stats := ComputeStatistics(service.Snapshot())
	assert.Equal(t, 2, stats.TotalServed)
	assert.Equal(t, 15, stats.AverageWaitSeconds)
}

func TestComputeStatistics_UsesGrandTotals(t *testing.T) {
	snap := models.Snapshot{
		"pay-fees":           {ServedCount: 9, TotalServiceSeconds: 90, ServingNumber: 10, Waiting: []int{11, 12}},
		"request-transcript": {ServedCount: 1, TotalServiceSeconds: 110, Waiting: []int{4}},
		"general-inquiry":    {},
	}

	stats := ComputeStatistics(snap)
	assert.Equal(t, 10, stats.TotalServed)
	assert.Equal(t, 3, stats.TotalWaiting)
	// (90+110)/10, not the average of 10 and 110.
	assert.Equal(t, 20, stats.AverageWaitSeconds)
	assert.True(t, decimal.RequireFromString("0.3").Equal(stats.AverageWaitMinutes))
	assert.Equal(t, 1, stats.ActiveQueues)
}

func TestComputeStatistics_ActiveQueuesIgnoresSessionState(t *testing.T) {
	service, _ := setupTestQueueService(t)
	issueN(t, service, "pay-fees", 3)
	issueN(t, service, "general-inquiry", 1)

	service.CallNext("pay-fees")
	service.Skip("pay-fees")
	service.CallNext("general-inquiry")

	elapsed, _ := service.Elapsed("pay-fees")
	require.Equal(t, 0, elapsed, "skip cleared the pay-fees session")

	stats := ComputeStatistics(service.Snapshot())
	assert.Equal(t, 2, stats.ActiveQueues, "a serving number counts as active even without a session")

	service.Reset("general-inquiry")
	assert.Equal(t, 1, ComputeStatistics(service.Snapshot()).ActiveQueues)
}

func TestChartRows(t *testing.T) {
	activities := DefaultActivities()
	snap := models.Snapshot{
		"pay-fees":        {ServedCount: 3, TotalServiceSeconds: 100, Waiting: []int{5, 6}},
		"general-inquiry": {ServedCount: 0, TotalServiceSeconds: 0, Waiting: []int{1}},
	}

	rows := ChartRows(activities, snap)
	require.Len(t, rows, 4)

	assert.Equal(t, models.ChartRow{Name: "Pay Fees", Served: 3, Waiting: 2, AvgTime: 33}, rows[0])
	assert.Equal(t, models.ChartRow{Name: "Request Transcript"}, rows[1])
	assert.Equal(t, models.ChartRow{Name: "General Inquiry", Waiting: 1}, rows[2])
	assert.Equal(t, "Course Registration", rows[3].Name)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "01:05", FormatClock(65))
	assert.Equal(t, "125:00", FormatClock(7500))
	assert.Equal(t, "00:00", FormatClock(-3))
}
