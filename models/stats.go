package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Statistics struct {
	TotalServed        int             `json:"total_served"`
	TotalWaiting       int             `json:"total_waiting"`
	AverageWaitSeconds int             `json:"average_wait_seconds"`
	AverageWaitMinutes decimal.Decimal `json:"average_wait_minutes"`
	ActiveQueues       int             `json:"active_queues"`
}

type ChartRow struct {
	Name    string `json:"name"`
	Served  int    `json:"served"`
	Waiting int    `json:"waiting"`
	AvgTime int    `json:"avgTime"`
}

type WaitEstimate struct {
	PeopleAhead int    `json:"people_ahead"`
	Message     string `json:"message"`
	ETAText     string `json:"eta_text"`
	// Minutes and ETA are zero when the customer is next in line.
	Minutes int       `json:"minutes"`
	ETA     time.Time `json:"eta,omitempty"`
}
