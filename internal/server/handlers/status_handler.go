package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/northriverboats/gear-inventory-check/internal/service/inventory"
	"github.com/northriverboats/gear-inventory-check/internal/service/report"
)

// StatusHandler serves the latest stored snapshot over HTTP. The report
// email links here for operators wanting more than the emailed summary.
type StatusHandler struct {
	store  inventory.SnapshotStore
	logger *zap.Logger
	now    func() time.Time
}

// NewStatusHandler constructs the HTTP handler adapter.
func NewStatusHandler(store inventory.SnapshotStore, logger *zap.Logger) *StatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHandler{store: store, logger: logger, now: time.Now}
}

// Snapshot returns today's stored snapshot rows as JSON. An empty day
// yields an empty array.
func (h *StatusHandler) Snapshot(c *gin.Context) {
	records, err := h.store.FetchSnapshot(c.Request.Context(), h.now())
	if err != nil {
		h.logger.Error("failed loading snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshot"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// Report returns today's stored snapshot as the plain-text table.
func (h *StatusHandler) Report(c *gin.Context) {
	records, err := h.store.FetchSnapshot(c.Request.Context(), h.now())
	if err != nil {
		h.logger.Error("failed loading snapshot", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to load snapshot")
		return
	}

	c.String(http.StatusOK, report.FormatTable(records))
}
