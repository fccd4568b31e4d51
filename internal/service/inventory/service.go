// Package inventory sequences one snapshot run: fetch the catalog, replace
// today's stored snapshot, then print and/or email the formatted report.
package inventory

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/northriverboats/gear-inventory-check/internal/domain/models"
	"github.com/northriverboats/gear-inventory-check/internal/service/report"
	"github.com/northriverboats/gear-inventory-check/pkg/clients/mail"
)

const dayLayout = "2006-01-02"

// debugBanner is the fixed diagnostic printed by a debug run.
const debugBanner = "gear inventory check: debug run, skipping fetch, persistence and email"

// Catalog is the slice of the catalog client the orchestrator needs.
type Catalog interface {
	FetchInventory(ctx context.Context) ([]models.StockRecord, error)
}

// SnapshotStore is the slice of the snapshot repository the orchestrator needs.
type SnapshotStore interface {
	EnsureSchema(ctx context.Context) error
	ReplaceToday(ctx context.Context, records []models.StockRecord) error
	FetchSnapshot(ctx context.Context, day time.Time) ([]models.StockRecord, error)
}

// RunOptions selects what a single run does.
type RunOptions struct {
	// Debug prints a fixed diagnostic and skips fetch, persistence and email.
	Debug bool
	// Print echoes the formatted current snapshot to standard output.
	Print bool
	// StatusOnly reports from the stored snapshot without fetching,
	// persisting or emailing.
	StatusOnly bool
	// Email sends the snapshot report after persisting.
	Email bool
}

// Service wires the pipeline stages together for one run.
type Service struct {
	catalog  Catalog
	store    SnapshotStore
	notifier mail.Notifier
	logger   *zap.Logger
	now      func() time.Time
	stdout   io.Writer
}

// NewService constructs the orchestrator.
func NewService(catalog Catalog, store SnapshotStore, notifier mail.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:  catalog,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		stdout:   os.Stdout,
	}
}

// Run executes one snapshot cycle: ensure schema, fetch inventory, replace
// today's rows, then report. A notify failure is logged and swallowed; every
// other failure aborts the run.
func (s *Service) Run(ctx context.Context, opts RunOptions) error {
	if opts.Debug {
		fmt.Fprintln(s.stdout, debugBanner)
		return nil
	}

	if err := s.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	if opts.StatusOnly {
		return s.showStatus(ctx)
	}

	current, err := s.catalog.FetchInventory(ctx)
	if err != nil {
		return fmt.Errorf("fetch inventory: %w", err)
	}
	s.logger.Info("inventory fetched", zap.Int("records", len(current)))

	if err := s.store.ReplaceToday(ctx, current); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	today := s.now()
	previous, err := s.store.FetchSnapshot(ctx, today.AddDate(0, 0, -1))
	if err != nil {
		return fmt.Errorf("load previous snapshot: %w", err)
	}

	stockTable := report.FormatTable(current)
	diffTable := report.FormatDiff(report.Diff(previous, current))

	if opts.Print {
		if diffTable != "" {
			fmt.Fprintln(s.stdout, "Changes since previous snapshot:")
			fmt.Fprint(s.stdout, diffTable)
		}
		fmt.Fprintln(s.stdout, "Current stock levels:")
		fmt.Fprint(s.stdout, stockTable)
	}

	if opts.Email && s.notifier != nil {
		subject := "Gear inventory report for " + today.Format(dayLayout)
		body := report.SnapshotEmailBody(diffTable, stockTable)
		if err := s.notifier.Send(subject, body); err != nil {
			// Best-effort delivery: a flaky relay must not fail the run.
			s.logger.Warn("snapshot email not delivered", zap.Error(err))
		} else {
			s.logger.Info("snapshot email sent")
		}
	}

	return nil
}

// showStatus prints the most recent stored snapshot (today's, falling back
// to yesterday's) without touching the network or replacing any rows.
func (s *Service) showStatus(ctx context.Context) error {
	today := s.now()
	records, err := s.store.FetchSnapshot(ctx, today)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	day := today
	if len(records) == 0 {
		day = today.AddDate(0, 0, -1)
		if records, err = s.store.FetchSnapshot(ctx, day); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	}

	if len(records) == 0 {
		fmt.Fprintln(s.stdout, "No stored snapshot found.")
		return nil
	}

	fmt.Fprintf(s.stdout, "Stock levels as of %s:\n", day.Format(dayLayout))
	fmt.Fprint(s.stdout, report.FormatTable(records))
	return nil
}
