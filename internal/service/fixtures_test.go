package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/benchmark"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
)

// fixtureToday places the window at 2024-01-02..2024-03-31.
var fixtureToday = time.Date(2024, time.March, 31, 9, 0, 0, 0, time.UTC)

var fixtureColumns = []string{
	models.ColClientID,
	models.ColEnrollmentID,
	models.ColProjectType,
	models.ColProjectStart,
	models.ColProjectExit,
	models.ColMoveIn,
	models.ColPITChronic,
	models.ColProgramCoC,
	models.ColLocalCoC,
}

var fixtureRows = [][]string{
	{"1", "101", benchmark.ProjectTypeESEntryExit, "2024-01-01", "2024-01-10", "", "", "CA-500", "SJ"},
	{"1", "102", benchmark.ProjectTypeRRH, "2024-01-11", "", "2024-02-01", "", "CA-500", "SJ"},
	{"2", "201", benchmark.ProjectTypeSO, "2024-02-01", "", "", "Yes", "CA-600", "SF"},
	{"3", "301", benchmark.ProjectTypeSO, "2024-03-01", "", "", "", "CA-600", "SF"},
}

func fixtureCSV(t *testing.T, columns []string, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(columns))
	require.NoError(t, w.WriteAll(rows))
	return buf.Bytes()
}

// fakeDocStore mimics the JSON round trip of the Redis cache repository.
type fakeDocStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	sets    int
	setErr  error
	deleted []string
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeDocStore) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeDocStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	f.ttls[key] = ttl
	f.sets++
	return nil
}

func (f *fakeDocStore) Keys(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.data {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeDocStore) DeleteByPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(f.data, key)
			f.deleted = append(f.deleted, key)
		}
	}
	return nil
}

func (f *fakeDocStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}
