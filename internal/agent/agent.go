package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fmuoria/cv-auditor/internal/ingestion"
	"github.com/fmuoria/cv-auditor/internal/logger"
	"github.com/fmuoria/cv-auditor/internal/models"
	"github.com/fmuoria/cv-auditor/internal/scoring"
	"github.com/fmuoria/cv-auditor/internal/store"
)

// DefaultWorkers is the batch worker count when none is configured
const DefaultWorkers = 4

var (
	// ErrNoExtractableText is returned when a submission carries no text to audit
	ErrNoExtractableText = errors.New("no extractable text in submission")
	// ErrExtractionFailed wraps extractor failures
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrResetUnsupported is returned when the configured store cannot be reset
	ErrResetUnsupported = errors.New("store does not support reset")
)

// ProgressCallback is called to report progress during processing
type ProgressCallback func(current, total int, message string)

// Agent validates, audits and records CV submissions
type Agent struct {
	auditor   *scoring.Auditor
	store     store.Store
	extractor ingestion.Extractor
	files     *ingestion.FileHandler
	logger    *zap.Logger
	workers   int
	now       func() time.Time

	mu         sync.RWMutex
	progressCb ProgressCallback
}

// Option configures an Agent
type Option func(*Agent)

// WithExtractor sets the extractor used for file submissions
func WithExtractor(e ingestion.Extractor) Option {
	return func(a *Agent) {
		a.extractor = e
	}
}

// WithFileHandler keeps a copy of every audited file in the submissions folder
func WithFileHandler(fh *ingestion.FileHandler) Option {
	return func(a *Agent) {
		a.files = fh
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		a.logger = logger.OrNop(l)
	}
}

// WithWorkers bounds the number of concurrent audits in ProcessDirectory
func WithWorkers(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// New creates an agent around an auditor and a record store
func New(auditor *scoring.Auditor, st store.Store, opts ...Option) *Agent {
	a := &Agent{
		auditor:   auditor,
		store:     st,
		extractor: ingestion.NewDocumentExtractor(ingestion.MinExtractedTextLength),
		logger:    zap.NewNop(),
		workers:   DefaultWorkers,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// SetProgressCallback sets the progress callback function
func (a *Agent) SetProgressCallback(cb ProgressCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progressCb = cb
}

// reportProgress calls the progress callback if set
func (a *Agent) reportProgress(current, total int, message string) {
	a.mu.RLock()
	cb := a.progressCb
	a.mu.RUnlock()

	if cb != nil {
		cb(current, total, message)
	}
}

// Categories returns the active keyword table
func (a *Agent) Categories() []models.Category {
	return a.auditor.Categories()
}

// Preview audits text without recording anything
func (a *Agent) Preview(text string) (models.AuditVerdict, models.QualityReport) {
	return a.auditor.Audit(text), scoring.Inspect(text)
}

// ExtractText returns the text of a stored CV; failures wrap ErrExtractionFailed
func (a *Agent) ExtractText(ctx context.Context, path string) (string, error) {
	return a.extract(ctx, path)
}

// Submit validates and audits a document, then appends the resulting record
func (a *Agent) Submit(ctx context.Context, doc models.Document) (models.SubmissionResult, error) {
	result, err := a.evaluate(doc)
	if err != nil {
		return models.SubmissionResult{}, err
	}

	if err := a.store.Append(ctx, result.Record); err != nil {
		return models.SubmissionResult{}, fmt.Errorf("failed to store record: %w", err)
	}

	a.logger.Info("submission recorded",
		zap.String(logger.FieldStudentID, result.Record.ID),
		zap.Int(logger.FieldScore, result.Record.Score),
		zap.String("status", result.Quality.Status),
	)

	return result, nil
}

// SubmitFile extracts the text of a stored CV and submits it. Nothing is recorded when
// extraction fails.
func (a *Agent) SubmitFile(ctx context.Context, name, id, path string) (models.SubmissionResult, error) {
	if err := ingestion.ValidateSubmission(name, id); err != nil {
		return models.SubmissionResult{}, err
	}

	text, err := a.extract(ctx, path)
	if err != nil {
		return models.SubmissionResult{}, err
	}

	result, err := a.Submit(ctx, models.Document{Name: name, ID: id, Text: text, Path: path})
	if err != nil {
		return models.SubmissionResult{}, err
	}
	result.File = path

	if a.files != nil {
		if err := a.keepCopy(id, path); err != nil {
			a.logger.Warn("failed to keep submission copy", zap.String(logger.FieldFile, path), zap.Error(err))
		}
	}

	return result, nil
}

// ProcessDirectory audits every <Name>_<ID>.<ext> file in dir. Extraction and auditing run
// in a bounded worker pool; once every file is done the records are appended in file name order.
func (a *Agent) ProcessDirectory(ctx context.Context, dir string) (models.BatchReport, error) {
	docs, skipped, err := ingestion.NewFileHandler(dir).ListSubmissions()
	if err != nil {
		return models.BatchReport{}, err
	}

	report := models.BatchReport{
		Audited:  make([]models.SubmissionResult, 0, len(docs)),
		Failures: make([]models.BatchFailure, 0),
		Skipped:  skipped,
	}

	for _, s := range skipped {
		a.logger.Debug("skipping file", zap.String(logger.FieldFile, s.File), zap.String("reason", s.Reason))
	}

	total := len(docs)
	a.logger.Info("processing directory", zap.String("dir", dir), zap.Int("files", total), zap.Int("workers", a.workers))
	a.reportProgress(0, total, fmt.Sprintf("Processing %d files...", total))

	type outcome struct {
		file   string
		result models.SubmissionResult
		err    error
	}

	outcomes := make(chan outcome)
	collected := make([]outcome, 0, total)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for o := range outcomes {
			collected = append(collected, o)
			processed := len(collected)

			if o.err != nil {
				a.reportProgress(processed, total, fmt.Sprintf("Failed %s (%d/%d)", o.file, processed, total))
				continue
			}
			a.reportProgress(processed, total, fmt.Sprintf("Audited %s (%d/%d)", o.file, processed, total))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			o := outcome{file: filepath.Base(doc.Path)}
			o.result, o.err = a.auditFile(gctx, doc)
			o.result.File = o.file

			select {
			case outcomes <- o:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	waitErr := g.Wait()
	close(outcomes)
	<-done

	if waitErr != nil {
		return report, waitErr
	}

	// File name order decides the current row when one student has several files
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].file < collected[j].file
	})

	for _, o := range collected {
		if o.err == nil {
			if err := a.store.Append(ctx, o.result.Record); err != nil {
				o.err = fmt.Errorf("failed to store record: %w", err)
			}
		}

		if o.err != nil {
			a.logger.Warn("file not audited", zap.String(logger.FieldFile, o.file), zap.Error(o.err))
			report.Failures = append(report.Failures, models.BatchFailure{File: o.file, Reason: o.err.Error()})
			continue
		}

		a.logger.Info("file audited",
			zap.String(logger.FieldFile, o.file),
			zap.String(logger.FieldStudentID, o.result.Record.ID),
			zap.Int(logger.FieldScore, o.result.Record.Score),
		)
		report.Audited = append(report.Audited, o.result)
	}

	a.reportProgress(total, total, "Processing complete!")
	return report, nil
}

// Records returns every stored record, or only the most recent per student
func (a *Agent) Records(ctx context.Context, latestOnly bool) ([]models.Record, error) {
	records, err := a.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	if latestOnly {
		return store.Latest(records), nil
	}
	return records, nil
}

// StudentRecord returns the current status of one student with the parsed breakdown
func (a *Agent) StudentRecord(ctx context.Context, id string) (models.StudentReport, error) {
	records, err := a.store.ReadAll(ctx)
	if err != nil {
		return models.StudentReport{}, fmt.Errorf("failed to read records: %w", err)
	}

	history := store.History(records, id)
	if len(history) == 0 {
		return models.StudentReport{}, fmt.Errorf("%w: student %s", store.ErrNotFound, id)
	}

	latest := history[len(history)-1]
	return models.StudentReport{
		Latest:   latest,
		Verdicts: scoring.ParseSummary(latest.AuditDetails, a.auditor.Delimiter()),
		History:  history,
	}, nil
}

// Reset drops every record and, when a submissions folder is attached, every stored file
func (a *Agent) Reset(ctx context.Context) error {
	resetter, ok := a.store.(store.Resetter)
	if !ok {
		return ErrResetUnsupported
	}

	if err := resetter.Reset(ctx); err != nil {
		return err
	}

	if a.files != nil {
		if err := a.files.ClearSubmissions(); err != nil {
			return err
		}
	}

	a.logger.Warn("records reset")
	return nil
}

// Archive writes a zip of the stored submissions to w
func (a *Agent) Archive(w io.Writer) (int, error) {
	if a.files == nil {
		return 0, fmt.Errorf("no submissions folder configured")
	}
	return a.files.ArchiveSubmissions(w)
}

// evaluate builds the record for a document without storing it
func (a *Agent) evaluate(doc models.Document) (models.SubmissionResult, error) {
	if err := ingestion.ValidateSubmission(doc.Name, doc.ID); err != nil {
		return models.SubmissionResult{}, err
	}

	if strings.TrimSpace(doc.Text) == "" {
		return models.SubmissionResult{}, ErrNoExtractableText
	}

	verdict := a.auditor.Audit(doc.Text)
	quality := scoring.Inspect(doc.Text)

	a.logger.Debug("document audited",
		zap.String(logger.FieldStudentID, doc.ID),
		zap.Int(logger.FieldScore, verdict.Score),
		zap.Strings("missing", verdict.Missing()),
	)

	return models.SubmissionResult{
		Record: models.Record{
			Name:         strings.TrimSpace(doc.Name),
			ID:           strings.TrimSpace(doc.ID),
			Score:        verdict.Score,
			AuditDetails: verdict.Summary,
			Timestamp:    a.now(),
		},
		Verdict: verdict,
		Quality: quality,
	}, nil
}

// auditFile extracts and evaluates one discovered file
func (a *Agent) auditFile(ctx context.Context, doc models.Document) (models.SubmissionResult, error) {
	text, err := a.extract(ctx, doc.Path)
	if err != nil {
		return models.SubmissionResult{}, err
	}

	doc.Text = text
	return a.evaluate(doc)
}

func (a *Agent) extract(ctx context.Context, path string) (string, error) {
	text, err := a.extractor.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return text, nil
}

func (a *Agent) keepCopy(id, path string) error {
	if filepath.Dir(path) == filepath.Clean(a.files.Dir()) {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	_, err = a.files.SaveSubmission(id, filepath.Ext(path), src)
	return err
}
