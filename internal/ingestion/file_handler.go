package ingestion

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fmuoria/cv-auditor/internal/models"
)

// FileHandler manages the submissions folder
type FileHandler struct {
	submissionsDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(submissionsDir string) *FileHandler {
	return &FileHandler{
		submissionsDir: submissionsDir,
	}
}

// Dir returns the submissions folder
func (fh *FileHandler) Dir() string {
	return fh.submissionsDir
}

// SaveSubmission stores an uploaded CV as <ID><ext>, replacing an earlier upload by the same student
func (fh *FileHandler) SaveSubmission(id, ext string, content io.Reader) (string, error) {
	if !ValidStudentID(id) {
		return "", &ValidationError{Field: "id", Message: "id must be numbers only"}
	}

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !IsSupported(ext) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	if err := os.MkdirAll(fh.submissionsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create submissions directory: %w", err)
	}

	filePath := filepath.Join(fh.submissionsDir, id+ext)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// ListSubmissions returns a document stub (name, ID and path) for every file named
// <Name>_<ID>.<ext>. Files that do not follow the convention are reported as skipped.
// Both lists are sorted by file name.
func (fh *FileHandler) ListSubmissions() ([]models.Document, []models.BatchFailure, error) {
	files, err := os.ReadDir(fh.submissionsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read submissions directory: %w", err)
	}

	documents := make([]models.Document, 0, len(files))
	skipped := make([]models.BatchFailure, 0)

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		filename := file.Name()
		if !IsSupported(filename) {
			skipped = append(skipped, models.BatchFailure{File: filename, Reason: "unsupported file type"})
			continue
		}

		name, id, ok := ParseSubmissionFilename(filename)
		if !ok {
			skipped = append(skipped, models.BatchFailure{File: filename, Reason: "file name does not end in _<ID>"})
			continue
		}

		documents = append(documents, models.Document{
			Name: name,
			ID:   id,
			Path: filepath.Join(fh.submissionsDir, filename),
		})
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].Path < documents[j].Path
	})
	sort.Slice(skipped, func(i, j int) bool {
		return skipped[i].File < skipped[j].File
	})

	return documents, skipped, nil
}

// ParseSubmissionFilename splits "<Name>_<ID>.<ext>" into a cleaned name and the ID
func ParseSubmissionFilename(filename string) (name, id string, ok bool) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return "", "", false
	}

	id = base[idx+1:]
	if !ValidStudentID(id) {
		return "", "", false
	}

	return CleanStudentName(base[:idx]), id, true
}

// ArchiveSubmissions writes a zip of every stored CV document to w
func (fh *FileHandler) ArchiveSubmissions(w io.Writer) (int, error) {
	files, err := os.ReadDir(fh.submissionsDir)
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to read submissions directory: %w", err)
	}

	zw := zip.NewWriter(w)
	count := 0

	for _, file := range files {
		if file.IsDir() || !IsSupported(file.Name()) {
			continue
		}

		if err := addToArchive(zw, filepath.Join(fh.submissionsDir, file.Name()), file.Name()); err != nil {
			zw.Close()
			return count, err
		}
		count++
	}

	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return count, nil
}

func addToArchive(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}

	return nil
}

// ClearSubmissions removes all files from the submissions directory
func (fh *FileHandler) ClearSubmissions() error {
	if err := os.RemoveAll(fh.submissionsDir); err != nil {
		return fmt.Errorf("failed to clear submissions directory: %w", err)
	}
	return os.MkdirAll(fh.submissionsDir, 0755)
}
