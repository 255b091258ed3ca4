package storage

import (
	"context"
	"errors"
	"io"

	"airbnb-pipeline/models"
)

var (
	ErrUnsupportedSource = errors.New("unsupported dataset source")
	ErrObjectNotFound    = errors.New("object not found")
)

// ObjectSource opens the raw bytes behind a reference such as a file path,
// an http(s) URL or an s3:// URI.
type ObjectSource interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// TableReader materialises a stored table as a Dataset.
type TableReader interface {
	ReadDataset(ctx context.Context, table string) (*models.Dataset, error)
}

// DatasetWriter is the interface any dataset sink must satisfy.
type DatasetWriter interface {
	Write(ds *models.Dataset) error
	Close() error
}

// ReportWriter persists validation reports.
type ReportWriter interface {
	SaveReport(ctx context.Context, r *models.ValidationReport) error
}
