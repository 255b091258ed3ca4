package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"airbnb-pipeline/models"
	"airbnb-pipeline/utils"
)

// TablePrefix marks a reference to a database table, e.g. "pg:listings".
const TablePrefix = "pg:"

var unsafeArtifactChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeArtifactName replaces every character outside [A-Za-z0-9_.-] with "_".
func SanitizeArtifactName(name string) string {
	return unsafeArtifactChars.ReplaceAllString(name, "_")
}

// Loader resolves dataset references into Datasets or local files.
//
// Supported references:
//
//	path/to/file.csv       local file (relative to the artifact dir as fallback)
//	http(s)://host/x.csv   downloaded
//	s3://bucket/key.csv    read through the AWS SDK
//	pg:listings            read from the database (Tables must be set)
type Loader struct {
	Local  ObjectSource
	HTTP   ObjectSource
	S3     ObjectSource
	Tables TableReader

	logger *utils.Logger
}

func NewLoader(logger *utils.Logger, local, httpSrc, s3Src ObjectSource) *Loader {
	return &Loader{Local: local, HTTP: httpSrc, S3: s3Src, logger: logger}
}

func (l *Loader) sourceFor(ref string) (ObjectSource, error) {
	var src ObjectSource
	switch {
	case strings.HasPrefix(ref, "s3://"):
		src = l.S3
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		src = l.HTTP
	case strings.Contains(ref, "://"):
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, ref)
	default:
		src = l.Local
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no source configured for %q", ErrUnsupportedSource, ref)
	}
	return src, nil
}

// Load reads the referenced CSV (or table) into a Dataset named after ref.
func (l *Loader) Load(ctx context.Context, ref string) (*models.Dataset, error) {
	if table, ok := strings.CutPrefix(ref, TablePrefix); ok {
		if l.Tables == nil {
			return nil, fmt.Errorf("%w: no database configured for %q", ErrUnsupportedSource, ref)
		}
		ds, err := l.Tables.ReadDataset(ctx, table)
		if err != nil {
			return nil, err
		}
		ds.Name = ref
		l.logger.Info("[loader] Loaded %s: %d rows", ref, ds.Len())
		return ds, nil
	}

	src, err := l.sourceFor(ref)
	if err != nil {
		return nil, err
	}
	rc, err := src.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := ReadCSV(ref, rc)
	if err != nil {
		return nil, err
	}
	l.logger.Info("[loader] Loaded %s: %d rows, %d columns", ref, ds.Len(), len(ds.Columns))
	return ds, nil
}

// Fetch copies the referenced object to dir under a sanitised artifact name
// and returns the written path.
func (l *Loader) Fetch(ctx context.Context, ref, dir, artifactName string) (string, error) {
	src, err := l.sourceFor(ref)
	if err != nil {
		return "", err
	}
	rc, err := src.Open(ctx, ref)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("loader: create artifact dir: %w", err)
	}
	dest := filepath.Join(dir, SanitizeArtifactName(artifactName))

	tmp, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("loader: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, rc)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("loader: copy %s: %w", ref, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("loader: publish %s: %w", dest, err)
	}

	l.logger.Info("[loader] Fetched %s → %s (%d bytes)", ref, dest, n)
	return dest, nil
}

// LoadPair loads the current and reference datasets concurrently.
func (l *Loader) LoadPair(ctx context.Context, currentRef, referenceRef string, workers int) (current, reference *models.Dataset, err error) {
	var curErr, refErr error
	pool := utils.NewWorkerPool(workers, 0)
	pool.Submit(func() { current, curErr = l.Load(ctx, currentRef) })
	pool.Submit(func() { reference, refErr = l.Load(ctx, referenceRef) })
	pool.Wait()

	if curErr != nil {
		return nil, nil, fmt.Errorf("load current %s: %w", currentRef, curErr)
	}
	if refErr != nil {
		return nil, nil, fmt.Errorf("load reference %s: %w", referenceRef, refErr)
	}
	return current, reference, nil
}
