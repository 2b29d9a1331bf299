package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/AngelCh415/recho/internal/models"
)

// ErrNoSnapshot is returned when a client has no stored overview snapshot.
var ErrNoSnapshot = errors.New("no overview snapshot")

type snapshotKey struct {
	ClientID string
	Date     time.Time
}

// MemoryStore keeps overview snapshots in process, one per client and day.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[snapshotKey]models.OverviewSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[snapshotKey]models.OverviewSnapshot)}
}

// InsertOverview upserts by (client, day); a later write for the same day wins.
func (s *MemoryStore) InsertOverview(_ context.Context, snap models.OverviewSnapshot) error {
	if snap.ClientID == "" {
		return errors.New("snapshot client_id required")
	}
	snap.Date = day(snap.Date)
	snap.TotalTraffic = maxf(snap.TotalTraffic)
	snap.TotalConversions = maxf(snap.TotalConversions)
	snap.Revenue = maxf(snap.Revenue)
	snap.BlendedROAS = maxf(snap.BlendedROAS)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[snapshotKey{ClientID: snap.ClientID, Date: snap.Date}] = snap
	return nil
}

func (s *MemoryStore) LatestOverview(_ context.Context, clientID string) (models.OverviewSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  models.OverviewSnapshot
		found bool
	)
	for k, v := range s.rows {
		if k.ClientID != clientID {
			continue
		}
		if !found || v.Date.After(best.Date) {
			best, found = v, true
		}
	}
	if !found {
		return models.OverviewSnapshot{}, ErrNoSnapshot
	}
	return best, nil
}

// Ping reports the number of stored rows.
func (s *MemoryStore) Ping(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// QueryOverview returns a client's snapshots within [from, to], oldest first.
func (s *MemoryStore) QueryOverview(_ context.Context, clientID string, from, to time.Time) ([]models.OverviewSnapshot, error) {
	from, to = day(from), day(to)
	s.mu.RLock()
	var out []models.OverviewSnapshot
	for k, v := range s.rows {
		if k.ClientID == clientID && !k.Date.Before(from) && !k.Date.After(to) {
			out = append(out, v)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
