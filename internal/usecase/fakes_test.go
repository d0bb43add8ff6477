package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"adspy/internal/domain"
	"adspy/internal/infrastructure"
	"adspy/pkg/logger"
	"adspy/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeBackend struct {
	mu       sync.Mutex
	rows     map[domain.Platform][]json.RawMessage
	errs     map[domain.Platform]error
	blocking map[domain.Platform]bool
	queries  []domain.BackendQuery
	mirrored []domain.SavedAd
	deleted  []string
	saveErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rows:     map[domain.Platform][]json.RawMessage{},
		errs:     map[domain.Platform]error{},
		blocking: map[domain.Platform]bool{},
	}
}

func (f *fakeBackend) Search(ctx context.Context, session domain.Session, q domain.BackendQuery) ([]json.RawMessage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	rows, err, block := f.rows[q.Platform], f.errs[q.Platform], f.blocking[q.Platform]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (f *fakeBackend) MirrorSavedAd(ctx context.Context, session domain.Session, ad domain.SavedAd) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mirrored = append(f.mirrored, ad)
	return f.saveErr
}

func (f *fakeBackend) DeleteSavedAd(ctx context.Context, session domain.Session, savedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, savedID)
	return f.saveErr
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeBackend) queryFor(p domain.Platform) (domain.BackendQuery, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.queries {
		if q.Platform == p {
			return q, true
		}
	}
	return domain.BackendQuery{}, false
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func testStore() *infrastructure.MemorySearchStore {
	return infrastructure.NewMemorySearchStore(50, logger.Discard())
}

func raw(s ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(s))
	for i, v := range s {
		out[i] = json.RawMessage(v)
	}
	return out
}

var session = domain.Session{UserID: "user-1", Token: "tok"}
