package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"queue-system/internal/services"
)

type ReportHandler struct {
	queueService *services.QueueService
	clock        services.Clock
}

func NewReportHandler(queueService *services.QueueService, clock services.Clock) *ReportHandler {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &ReportHandler{queueService: queueService, clock: clock}
}

// DownloadQueueReport - CSV summary of every activity
func (h *ReportHandler) DownloadQueueReport(e *core.RequestEvent) error {
	snap := h.queueService.Snapshot()
	rows := services.ChartRows(h.queueService.Registry().All(), snap)

	var buf bytes.Buffer
	if err := services.WriteQueueReport(&buf, rows, services.ComputeStatistics(snap)); err != nil {
		slog.Error("services.WriteQueueReport()", "error", err)
		return apis.NewInternalServerError("Failed to build report", err)
	}

	e.Response.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, services.ReportFilename(h.clock.Now())))
	return e.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
