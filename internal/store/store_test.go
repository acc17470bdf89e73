package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/cv-auditor/internal/config"
	"github.com/fmuoria/cv-auditor/internal/models"
)

func record(name, id string, score int, minute int) models.Record {
	return models.Record{
		Name:         name,
		ID:           id,
		Score:        score,
		AuditDetails: "Contact Info: ✅ Found | Referees: ❌ Missing",
		Timestamp:    time.Date(2025, time.March, 3, 10, minute, 0, 0, time.Local),
	}
}

func TestLatest(t *testing.T) {
	records := []models.Record{
		record("Jane", "1", 10, 0),
		record("John", "2", 40, 1),
		record("Jane", "1", 80, 2),
		record("Mary", "3", 50, 3),
		record("John", "2", 20, 4),
	}

	latest := Latest(records)

	require.Len(t, latest, 3)
	assert.Equal(t, "1", latest[0].ID)
	assert.Equal(t, 80, latest[0].Score)
	assert.Equal(t, "2", latest[1].ID)
	assert.Equal(t, 20, latest[1].Score)
	assert.Equal(t, "3", latest[2].ID)
}

func TestHistory(t *testing.T) {
	records := []models.Record{
		record("Jane", "1", 10, 0),
		record("John", "2", 40, 1),
		record("Jane", "1", 80, 2),
	}

	history := History(records, "1")
	require.Len(t, history, 2)
	assert.Equal(t, 10, history[0].Score)
	assert.Equal(t, 80, history[1].Score)

	assert.Empty(t, History(records, "99"))
}

// exerciseStore runs the behaviour every backend shares
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	first := record("Jane Doe", "123", 60, 0)
	second := record("Jane Doe", "123", 90, 5)
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	records, err = s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 60, records[0].Score)
	assert.Equal(t, 90, records[1].Score)
	assert.Equal(t, first.AuditDetails, records[0].AuditDetails)
	assert.True(t, second.Timestamp.Equal(records[1].Timestamp), "timestamp %v != %v", records[1].Timestamp, second.Timestamp)

	resetter, ok := s.(Resetter)
	require.True(t, ok, "store should support reset")
	require.NoError(t, resetter.Reset(ctx))

	records, err = s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.Append(ctx, first))
	records, err = s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestCSVStore(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "data", "cv_database.csv"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestCSVStore_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv_database.csv")
	s, err := NewCSVStore(path)
	require.NoError(t, err)

	r := record("Jane, Doe", "123", 70, 7)
	r.Timestamp = r.Timestamp.Add(42 * time.Second)
	require.NoError(t, s.Append(context.Background(), r))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,ID,Score,Audit_Details,Timestamp", lines[0])
	assert.Equal(t, `"Jane, Doe",123,70,Contact Info: ✅ Found | Referees: ❌ Missing,2025-03-03 10:07`, lines[1])
}

func TestCSVStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv_database.csv")
	ctx := context.Background()

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, record("Jane", "1", 10, 0)))
	require.NoError(t, s.Close())

	s, err = NewCSVStore(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Append(ctx, record("John", "2", 20, 1)))

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "Name,ID,Score"), "header must be written once")
}

func TestCSVStore_LegacyFloatScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv_database.csv")
	content := "Name,ID,Score,Audit_Details,Timestamp\nJane,1,70.0,x,2025-01-02 09:30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 70, records[0].Score)
	assert.Equal(t, 9, records[0].Timestamp.Hour())
}

func TestCSVStore_MalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv_database.csv")
	content := "Name,ID,Score,Audit_Details,Timestamp\nJane,1,high,x,2025-01-02 09:30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadAll(context.Background())
	assert.Error(t, err)
}

func TestCSVStore_AppendAfterUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv_database.csv")
	content := "Name,ID,Score,Audit_Details,Timestamp\nJane,1,10,x,2025-01-01 10:00"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append(context.Background(), record("John", "2", 20, 0)))

	records, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jane", records[0].Name)
	assert.Equal(t, "John", records[1].Name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}

func TestCSVStore_ConcurrentAppends(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "cv_database.csv"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, record("Jane", "1", i, i)))
		}(i)
	}
	wg.Wait()

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestCSVStore_AppendAfterClose(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "cv_database.csv"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Append(context.Background(), record("Jane", "1", 1, 1)), os.ErrClosed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StoreConfig{Backend: config.BackendCSV, Path: filepath.Join(t.TempDir(), "db.csv")})
	require.NoError(t, err)
	assert.IsType(t, &CSVStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StoreConfig{Backend: "sqlite"})
	assert.Error(t, err)
}

// TestPostgresStore runs against a live database when CVAUDIT_TEST_DSN is set
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CVAUDIT_TEST_DSN")
	if dsn == "" {
		t.Skip("CVAUDIT_TEST_DSN not set")
	}

	s, err := NewPostgresStore(context.Background(), dsn, "audit_records_test")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Reset(context.Background()))
	exerciseStore(t, s)
}
