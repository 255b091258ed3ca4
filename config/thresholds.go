package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMinRows = 10
	DefaultMaxRows = 500_000
)

// BoundingBox is the accepted geographic area, inclusive on every edge.
type BoundingBox struct {
	MinLongitude float64 `yaml:"min_longitude" validate:"gte=-180,lte=180"`
	MaxLongitude float64 `yaml:"max_longitude" validate:"gte=-180,lte=180,gtfield=MinLongitude"`
	MinLatitude  float64 `yaml:"min_latitude" validate:"gte=-90,lte=90"`
	MaxLatitude  float64 `yaml:"max_latitude" validate:"gte=-90,lte=90,gtfield=MinLatitude"`
}

// NYCBoundingBox covers New York City and its immediate surroundings.
func NYCBoundingBox() BoundingBox {
	return BoundingBox{
		MinLongitude: -74.25,
		MaxLongitude: -73.50,
		MinLatitude:  40.5,
		MaxLatitude:  41.2,
	}
}

// Contains reports whether the point lies inside the box. NaN never does.
func (b BoundingBox) Contains(longitude, latitude float64) bool {
	return longitude >= b.MinLongitude && longitude <= b.MaxLongitude &&
		latitude >= b.MinLatitude && latitude <= b.MaxLatitude
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("lon [%g, %g] lat [%g, %g]",
		b.MinLongitude, b.MaxLongitude, b.MinLatitude, b.MaxLatitude)
}

// Thresholds parameterises one validation or cleaning run. Build it with
// NewThresholds or LoadThresholds so it is validated before use.
type Thresholds struct {
	MinPrice    float64     `yaml:"min_price" validate:"gte=0"`
	MaxPrice    float64     `yaml:"max_price" validate:"gtefield=MinPrice"`
	KLThreshold float64     `yaml:"kl_threshold" validate:"gt=0"`
	MinRows     int         `yaml:"min_rows" validate:"gte=0"`
	MaxRows     int         `yaml:"max_rows" validate:"gtefield=MinRows"`
	Box         BoundingBox `yaml:"bounding_box"`
}

// ConfigurationError reports a threshold that cannot produce a meaningful verdict.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewThresholds builds a validated Thresholds with the NYC bounding box.
func NewThresholds(minPrice, maxPrice, klThreshold float64, minRows, maxRows int) (Thresholds, error) {
	t := Thresholds{
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		KLThreshold: klThreshold,
		MinRows:     minRows,
		MaxRows:     maxRows,
		Box:         NYCBoundingBox(),
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate returns a *ConfigurationError (possibly several joined) when the
// thresholds are inconsistent.
func (t Thresholds) Validate() error {
	finite := []struct {
		field string
		v     float64
	}{
		{"min_price", t.MinPrice},
		{"max_price", t.MaxPrice},
		{"kl_threshold", t.KLThreshold},
		{"min_longitude", t.Box.MinLongitude},
		{"max_longitude", t.Box.MaxLongitude},
		{"min_latitude", t.Box.MinLatitude},
		{"max_latitude", t.Box.MaxLatitude},
	}
	for _, f := range finite {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ConfigurationError{Field: f.field, Reason: "must be a finite number"}
		}
	}

	err := validate.Struct(t)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("config: validate thresholds: %w", err)
	}
	errs := make([]error, 0, len(ves))
	for _, fe := range ves {
		errs = append(errs, &ConfigurationError{Field: fe.Field(), Reason: describe(fe)})
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be > %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be <= %s, got %v", fe.Param(), fe.Value())
	case "gtfield", "gtefield":
		return fmt.Sprintf("must not be below %s, got %v", yamlName(fe.Param()), fe.Value())
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}

var fieldNames = map[string]string{
	"MinPrice":     "min_price",
	"MinRows":      "min_rows",
	"MinLongitude": "min_longitude",
	"MinLatitude":  "min_latitude",
}

func yamlName(goName string) string {
	if n, ok := fieldNames[goName]; ok {
		return n
	}
	return goName
}

// pipelineFile mirrors the sections of the pipeline config the stages read.
type pipelineFile struct {
	ETL struct {
		MinPrice *float64 `yaml:"min_price"`
		MaxPrice *float64 `yaml:"max_price"`
	} `yaml:"etl"`
	Modeling struct {
		TestSize   *float64 `yaml:"test_size"`
		RandomSeed *int64   `yaml:"random_seed"`
		StratifyBy *string  `yaml:"stratify_by"`
	} `yaml:"modeling"`
	DataCheck struct {
		KLThreshold *float64     `yaml:"kl_threshold"`
		MinRows     *int         `yaml:"min_rows"`
		MaxRows     *int         `yaml:"max_rows"`
		BoundingBox *BoundingBox `yaml:"bounding_box"`
	} `yaml:"data_check"`
}

// DefaultThresholds returns the values the pipeline ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPrice:    10,
		MaxPrice:    350,
		KLThreshold: 0.2,
		MinRows:     DefaultMinRows,
		MaxRows:     DefaultMaxRows,
		Box:         NYCBoundingBox(),
	}
}

// ParseThresholds overlays a YAML pipeline config onto DefaultThresholds and
// validates the result.
func ParseThresholds(data []byte) (Thresholds, error) {
	var f pipelineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Thresholds{}, fmt.Errorf("config: parse thresholds: %w", err)
	}

	t := DefaultThresholds()
	if f.ETL.MinPrice != nil {
		t.MinPrice = *f.ETL.MinPrice
	}
	if f.ETL.MaxPrice != nil {
		t.MaxPrice = *f.ETL.MaxPrice
	}
	if f.DataCheck.KLThreshold != nil {
		t.KLThreshold = *f.DataCheck.KLThreshold
	}
	if f.DataCheck.MinRows != nil {
		t.MinRows = *f.DataCheck.MinRows
	}
	if f.DataCheck.MaxRows != nil {
		t.MaxRows = *f.DataCheck.MaxRows
	}
	if f.DataCheck.BoundingBox != nil {
		t.Box = *f.DataCheck.BoundingBox
	}

	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// LoadThresholds reads a YAML pipeline config. An empty path yields the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	if path == "" {
		return DefaultThresholds(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("config: read thresholds %q: %w", path, err)
	}
	return ParseThresholds(data)
}

// SplitSettings are the train/test split defaults of the modeling section.
type SplitSettings struct {
	TestSize   float64 `yaml:"test_size" validate:"gt=0"`
	RandomSeed int64   `yaml:"random_seed"`
	StratifyBy string  `yaml:"stratify_by"`
}

// DefaultSplitSettings returns the split the pipeline ships with.
func DefaultSplitSettings() SplitSettings {
	return SplitSettings{TestSize: 0.2, RandomSeed: 42, StratifyBy: "none"}
}

// ParseSplitSettings overlays the modeling section of a YAML pipeline config
// onto DefaultSplitSettings.
func ParseSplitSettings(data []byte) (SplitSettings, error) {
	var f pipelineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SplitSettings{}, fmt.Errorf("config: parse split settings: %w", err)
	}

	s := DefaultSplitSettings()
	if f.Modeling.TestSize != nil {
		s.TestSize = *f.Modeling.TestSize
	}
	if f.Modeling.RandomSeed != nil {
		s.RandomSeed = *f.Modeling.RandomSeed
	}
	if f.Modeling.StratifyBy != nil {
		s.StratifyBy = *f.Modeling.StratifyBy
	}

	if math.IsNaN(s.TestSize) || math.IsInf(s.TestSize, 0) {
		return SplitSettings{}, &ConfigurationError{Field: "test_size", Reason: "must be a finite number"}
	}
	if err := validate.Struct(s); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return SplitSettings{}, &ConfigurationError{Field: ves[0].Field(), Reason: describe(ves[0])}
		}
		return SplitSettings{}, fmt.Errorf("config: validate split settings: %w", err)
	}
	return s, nil
}

// LoadSplitSettings reads the modeling section of a YAML pipeline config. An
// empty path yields the defaults.
func LoadSplitSettings(path string) (SplitSettings, error) {
	if path == "" {
		return DefaultSplitSettings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SplitSettings{}, fmt.Errorf("config: read split settings %q: %w", path, err)
	}
	return ParseSplitSettings(data)
}
