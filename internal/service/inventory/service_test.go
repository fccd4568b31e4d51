package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northriverboats/gear-inventory-check/internal/config"
	"github.com/northriverboats/gear-inventory-check/internal/domain/models"
	"github.com/northriverboats/gear-inventory-check/internal/repository/sqlite"
	"github.com/northriverboats/gear-inventory-check/pkg/clients/catalog"
)

type fakeNotifier struct {
	subjects []string
	bodies   []string
	err      error
}

func (f *fakeNotifier) Send(subject, htmlBody string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, htmlBody)
	return f.err
}

type fakeCatalog struct {
	records []models.StockRecord
	err     error
	calls   int
}

func (f *fakeCatalog) FetchInventory(ctx context.Context) ([]models.StockRecord, error) {
	f.calls++
	return f.records, f.err
}

func newTestStore(t *testing.T) *sqlite.Repository {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "inventory.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Serves one simple product and one variable product with two variations,
// the end-to-end scenario the pipeline is built around.
func newScenarioServer(t *testing.T) *httptest.Server {
	t.Helper()

	type apiProduct struct {
		ID            int64    `json:"id"`
		Name          string   `json:"name"`
		Type          string   `json:"type"`
		StockQuantity *float64 `json:"stock_quantity"`
		Variations    []int64  `json:"variations"`
	}
	qty := func(v float64) *float64 { return &v }

	listing := []apiProduct{
		{ID: 1, Name: "Anchor Line", Type: "simple", StockQuantity: qty(5)},
		{ID: 2, Name: "Dock Fender", Type: "variable", Variations: []int64{21, 22}},
	}
	nodes := map[int64]apiProduct{
		21: {ID: 21, Name: "Dock Fender - Small", StockQuantity: qty(2)},
		22: {ID: 22, Name: "Dock Fender - Large", StockQuantity: qty(1.5)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/" {
			require.NoError(t, json.NewEncoder(w).Encode(listing))
			return
		}
		var id int64
		_, err := fmt.Sscanf(r.URL.Path, "/products/%d", &id)
		require.NoError(t, err)
		require.NoError(t, json.NewEncoder(w).Encode(nodes[id]))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunEndToEnd(t *testing.T) {
	srv := newScenarioServer(t)
	client := catalog.NewClient(config.APIConfig{
		BaseURL:  srv.URL,
		Username: "ck_user",
		Password: "cs_pass",
		Timeout:  5 * time.Second,
	})
	store := newTestStore(t)
	notifier := &fakeNotifier{}

	svc := NewService(client, store, notifier, zap.NewNop())
	svc.stdout = &bytes.Buffer{}

	require.NoError(t, svc.Run(context.Background(), RunOptions{Email: true}))

	records, err := store.FetchSnapshot(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, records, 3)

	total := 0.0
	for _, record := range records {
		total += record.Quantity
	}
	assert.InDelta(t, 8.5, total, 1e-9)

	require.Len(t, notifier.subjects, 1)
	assert.Contains(t, notifier.subjects[0], "Gear inventory report")
	assert.Contains(t, notifier.bodies[0], "Anchor Line")
}

func TestRunNotifyFailureIsNotFatal(t *testing.T) {
	store := newTestStore(t)
	cat := &fakeCatalog{records: []models.StockRecord{{ID: 1, Name: "Anchor Line", Quantity: 5}}}
	notifier := &fakeNotifier{err: errors.New("relay down")}

	svc := NewService(cat, store, notifier, zap.NewNop())
	svc.stdout = &bytes.Buffer{}

	require.NoError(t, svc.Run(context.Background(), RunOptions{Email: true}))

	// The snapshot still landed even though the email did not.
	records, err := store.FetchSnapshot(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRunFetchFailureAborts(t *testing.T) {
	store := newTestStore(t)
	cat := &fakeCatalog{err: catalog.ErrTransport}
	notifier := &fakeNotifier{}

	svc := NewService(cat, store, notifier, zap.NewNop())
	svc.stdout = &bytes.Buffer{}

	err := svc.Run(context.Background(), RunOptions{Email: true})
	require.ErrorIs(t, err, catalog.ErrTransport)
	assert.Empty(t, notifier.subjects)
}

func TestRunDebugTouchesNothing(t *testing.T) {
	store := newTestStore(t)
	cat := &fakeCatalog{records: []models.StockRecord{{ID: 1, Name: "Anchor Line", Quantity: 5}}}
	notifier := &fakeNotifier{}
	out := &bytes.Buffer{}

	svc := NewService(cat, store, notifier, zap.NewNop())
	svc.stdout = out

	require.NoError(t, svc.Run(context.Background(), RunOptions{Debug: true, Email: true}))

	assert.Contains(t, out.String(), "debug run")
	assert.Zero(t, cat.calls)
	assert.Empty(t, notifier.subjects)

	require.NoError(t, store.EnsureSchema(context.Background()))
	records, err := store.FetchSnapshot(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunStatusOnlyReadsStoredSnapshot(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.EnsureSchema(context.Background()))
	seeded := []models.StockRecord{{ID: 1, Name: "Anchor Line", Quantity: 5}}
	require.NoError(t, store.ReplaceToday(context.Background(), seeded))

	cat := &fakeCatalog{}
	notifier := &fakeNotifier{}
	out := &bytes.Buffer{}

	svc := NewService(cat, store, notifier, zap.NewNop())
	svc.stdout = out

	require.NoError(t, svc.Run(context.Background(), RunOptions{StatusOnly: true}))

	assert.Contains(t, out.String(), "Anchor Line")
	assert.Zero(t, cat.calls)
	assert.Empty(t, notifier.subjects)
}

func TestRunStatusOnlyEmptyStore(t *testing.T) {
	store := newTestStore(t)
	out := &bytes.Buffer{}

	svc := NewService(&fakeCatalog{}, store, &fakeNotifier{}, zap.NewNop())
	svc.stdout = out

	require.NoError(t, svc.Run(context.Background(), RunOptions{StatusOnly: true}))
	assert.Contains(t, out.String(), "No stored snapshot")
}

func TestRunPrintEchoesTable(t *testing.T) {
	store := newTestStore(t)
	cat := &fakeCatalog{records: []models.StockRecord{{ID: 1, Name: "Widget", Quantity: 3.5}}}
	out := &bytes.Buffer{}

	svc := NewService(cat, store, nil, zap.NewNop())
	svc.stdout = out

	require.NoError(t, svc.Run(context.Background(), RunOptions{Print: true}))

	assert.Contains(t, out.String(), "Widget")
	assert.Contains(t, out.String(), "3.50")
}
