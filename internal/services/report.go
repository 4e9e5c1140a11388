package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"queue-system/models"
)

var reportHeader = []string{"Activity", "Customers Served", "Currently Waiting", "Avg Service Time (s)"}

func ReportFilename(at time.Time) string {
	return fmt.Sprintf("queue-report-%s.csv", at.Format("2006-01-02"))
}

// WriteQueueReport writes one row per activity, a blank line, then the
// overall totals.
func WriteQueueReport(w io.Writer, rows []models.ChartRow, stats models.Statistics) error {
	cw := csv.NewWriter(w)

	records := [][]string{reportHeader}
	for _, row := range rows {
		records = append(records, []string{
			row.Name,
			strconv.Itoa(row.Served),
			strconv.Itoa(row.Waiting),
			strconv.Itoa(row.AvgTime),
		})
	}
	records = append(records,
		[]string{},
		[]string{"Total Served", strconv.Itoa(stats.TotalServed)},
		[]string{"Total Waiting", strconv.Itoa(stats.TotalWaiting)},
		[]string{"Average Wait Time", fmt.Sprintf("%ds", stats.AverageWaitSeconds)},
	)

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write queue report: %w", err)
	}
	return nil
}
