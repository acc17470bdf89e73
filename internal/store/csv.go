package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fmuoria/cv-auditor/internal/models"
)

// TimestampLayout is the minute-precision timestamp written to the CSV file
const TimestampLayout = "2006-01-02 15:04"

// CSVHeader is the first row of every CSV record file
var CSVHeader = []string{"Name", "ID", "Score", "Audit_Details", "Timestamp"}

// CSVStore appends records to a CSV file
type CSVStore struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// NewCSVStore creates or opens the CSV file at path; a missing directory is created
func NewCSVStore(path string) (*CSVStore, error) {
	if path == "" {
		return nil, fmt.Errorf("csv store path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	s := &CSVStore{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file backing the store
func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) open() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open csv store: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat csv store: %w", err)
	}

	if info.Size() == 0 {
		if err := writeRow(f, CSVHeader); err != nil {
			f.Close()
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	} else if err := terminateLastLine(f, info.Size()); err != nil {
		f.Close()
		return err
	}

	s.f = f
	return nil
}

// Append writes one row
func (s *CSVStore) Append(ctx context.Context, record models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return os.ErrClosed
	}

	row := []string{
		record.Name,
		record.ID,
		strconv.Itoa(record.Score),
		record.AuditDetails,
		record.Timestamp.Format(TimestampLayout),
	}
	if err := writeRow(s.f, row); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// ReadAll parses every row after the header. A missing file reads as empty.
func (s *CSVStore) ReadAll(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Record{}, nil
		}
		return nil, fmt.Errorf("failed to open csv store: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

// Reset truncates the file back to its header
func (s *CSVStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f != nil {
		s.f.Close()
		s.f = nil
	}

	if err := os.Truncate(s.path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset csv store: %w", err)
	}

	return s.open()
}

// Close closes the underlying file
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// terminateLastLine adds the newline that hand-edited files often lack, so the next row
// starts on its own line
func terminateLastLine(f *os.File, size int64) error {
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return fmt.Errorf("failed to read csv store: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to terminate csv store: %w", err)
	}
	return nil
}

func writeRow(w io.Writer, row []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func readRecords(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	records := make([]models.Record, 0)
	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv store: %w", err)
		}
		line++

		if line == 1 && row[0] == CSVHeader[0] && row[1] == CSVHeader[1] {
			continue
		}

		record, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv row %d: %w", line, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func parseRow(row []string) (models.Record, error) {
	score, err := strconv.Atoi(row[2])
	if err != nil {
		// Older files stored the score as a float
		f, ferr := strconv.ParseFloat(row[2], 64)
		if ferr != nil {
			return models.Record{}, fmt.Errorf("invalid score %q", row[2])
		}
		score = int(f)
	}

	ts, err := time.ParseInLocation(TimestampLayout, row[4], time.Local)
	if err != nil {
		return models.Record{}, fmt.Errorf("invalid timestamp %q", row[4])
	}

	return models.Record{
		Name:         row[0],
		ID:           row[1],
		Score:        score,
		AuditDetails: row[3],
		Timestamp:    ts,
	}, nil
}
