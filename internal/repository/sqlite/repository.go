package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/northriverboats/gear-inventory-check/internal/domain/models"
)

// ErrStorage indicates a snapshot transaction failed. The transaction is
// rolled back, so a failed replace never leaves a partially written day.
var ErrStorage = errors.New("snapshot storage error")

const (
	// Legacy stamp layout, 19 chars to fit the CHAR(19) DATE column.
	stampLayout = "2006-01-02 15:04:05"
	dayLayout   = "2006-01-02"
)

// inventoryRow maps onto the legacy INVENTORY schema. The capture timestamp
// is stored as text; the leading 10 characters are the snapshot's day key.
type inventoryRow struct {
	Date      string  `gorm:"column:DATE;type:char(19);not null"`
	ProductID int64   `gorm:"column:ID;not null"`
	Name      string  `gorm:"column:NAME;type:varchar(255);not null"`
	Quantity  float64 `gorm:"column:QUANTITY;not null"`
}

func (inventoryRow) TableName() string { return "INVENTORY" }

// Repository persists daily stock snapshots in a local SQLite database.
//
// Day boundaries use local time throughout: the capture stamp and the
// replace predicate are derived from the same clock reading. Concurrent
// runs from separate processes keep per-instance atomicity but their
// ordering is undefined; this tool is meant to run one instance at a time.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// New opens (creating if needed) the snapshot database at the given path.
func New(dbFile string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, dbFile, err)
	}

	return &Repository{db: db, logger: logger, now: time.Now}, nil
}

// EnsureSchema creates the INVENTORY table and its day/id uniqueness index
// if absent. Safe to call on every run.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&inventoryRow{}); err != nil {
		return fmt.Errorf("%w: migrate schema: %v", ErrStorage, err)
	}
	// The legacy schema declares no keys; enforce one row per (day, id) here.
	err := r.db.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_inventory_day_id ON INVENTORY(substr("DATE", 1, 10), "ID")`,
	).Error
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrStorage, err)
	}
	return nil
}

// ReplaceToday deletes all of today's rows and inserts one row per record,
// stamped with the current local timestamp, inside a single transaction.
// Either all of today's rows are replaced or none are.
func (r *Repository) ReplaceToday(ctx context.Context, records []models.StockRecord) error {
	captured := r.now()
	day := captured.Format(dayLayout)
	stamp := captured.Format(stampLayout)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(`substr("DATE", 1, 10) = ?`, day).Delete(&inventoryRow{}).Error; err != nil {
			return fmt.Errorf("delete day %s: %w", day, err)
		}
		if len(records) == 0 {
			return nil
		}

		rows := make([]inventoryRow, 0, len(records))
		for _, record := range records {
			rows = append(rows, inventoryRow{
				Date:      stamp,
				ProductID: record.ID,
				Name:      record.Name,
				Quantity:  record.Quantity,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert day %s: %w", day, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: replace today: %v", ErrStorage, err)
	}

	r.logger.Info("snapshot replaced",
		zap.String("day", day),
		zap.Int("records", len(records)))
	return nil
}

// FetchSnapshot returns the stock records captured on the given local day.
// A day with no rows yields an empty slice, not an error.
func (r *Repository) FetchSnapshot(ctx context.Context, day time.Time) ([]models.StockRecord, error) {
	var rows []inventoryRow
	err := r.db.WithContext(ctx).
		Where(`substr("DATE", 1, 10) = ?`, day.Format(dayLayout)).
		Order(`"ID"`).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: fetch snapshot %s: %v", ErrStorage, day.Format(dayLayout), err)
	}

	records := make([]models.StockRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.StockRecord{
			ID:       row.ProductID,
			Name:     row.Name,
			Quantity: row.Quantity,
		})
	}
	return records, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
