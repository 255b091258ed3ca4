package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-pipeline/config"
	"airbnb-pipeline/models"
	"airbnb-pipeline/storage"
)

func writeSample(t *testing.T, dir, name string, n int, price string) string {
	t.Helper()
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{
			fmt.Sprint(i + 1), fmt.Sprintf("Listing %d", i+1), "7", "Host",
			models.NeighbourhoodGroups[i%len(models.NeighbourhoodGroups)], "Midtown",
			"40.75", "-73.98", "Entire home/apt", price, "2", "4", "2019-07-01", "0.4", "1", "200",
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, storage.WriteCSVFile(path, models.NewDataset(name, models.ListingColumns, rows)))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ARTIFACT_DIR", t.TempDir())
	t.Setenv("THRESHOLDS_FILE", "")
	t.Setenv("METRICS_FILE", "")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCheckCommandPasses(t *testing.T) {
	dir := t.TempDir()
	cur := writeSample(t, dir, "current.csv", 20, "120")
	ref := writeSample(t, dir, "reference.csv", 40, "90")
	metricsPath := filepath.Join(dir, "check.prom")

	out, err := run(t, "check", "--csv", cur, "--ref", ref, "--metrics-file", metricsPath, "--parallel", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "airbnb_data_check_passed 1")
}

func TestCheckCommandFailsVerdict(t *testing.T) {
	dir := t.TempDir()
	cur := writeSample(t, dir, "current.csv", 20, "120")
	ref := writeSample(t, dir, "reference.csv", 20, "120")

	out, err := run(t, "check", "--csv", cur, "--ref", ref, "--max-price", "100", "--format", "json")
	require.ErrorIs(t, err, ErrCheckFailed)

	var report models.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Passed)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "price_range", report.Failed()[0].Name)

	_, err = run(t, "check", "--csv", cur, "--ref", ref, "--max-price", "100", "--fail=false")
	assert.NoError(t, err)
}

func TestCheckCommandRejectsBadThresholds(t *testing.T) {
	dir := t.TempDir()
	cur := writeSample(t, dir, "current.csv", 20, "120")

	_, err := run(t, "check", "--csv", cur, "--ref", cur, "--kl-threshold", "0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCheckFailed)
	assert.Contains(t, err.Error(), "kl_threshold")
}

func TestCheckCommandReadsThresholdsFile(t *testing.T) {
	dir := t.TempDir()
	cur := writeSample(t, dir, "current.csv", 20, "120")
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("data_check:\n  min_rows: 50\n"), 0o644))

	out, err := run(t, "--thresholds", cfg, "check", "--csv", cur, "--ref", cur)
	require.ErrorIs(t, err, ErrCheckFailed)
	assert.Contains(t, out, "row count 20 outside [50, 500000]")
}

func TestCleanAndSplitCommands(t *testing.T) {
	dir := t.TempDir()
	raw := writeSample(t, dir, "raw.csv", 30, "$1,200")
	cleanPath := filepath.Join(dir, "clean.csv")

	_, err := run(t, "clean", "--input", raw, "--output", cleanPath, "--max-price", "5000", "--quiet")
	require.NoError(t, err)

	f, err := os.Open(cleanPath)
	require.NoError(t, err)
	clean, err := storage.ReadCSV("clean.csv", f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, 30, clean.Len())
	prices, _ := clean.Column("price")
	assert.Equal(t, "1200", prices[0])

	outDir := filepath.Join(dir, "split")
	_, err = run(t, "split", "--input", cleanPath, "--output-dir", outDir, "--test-size", "0.2", "--stratify-by", "neighbourhood_group")
	require.NoError(t, err)
	for name, want := range map[string]int{"trainval_data.csv": 25, "test_data.csv": 5} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		lines := strings.Count(string(data), "\n") - 1
		assert.Equal(t, want, lines, name)
	}
}

func TestDownloadCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeSample(t, dir, "sample.csv", 5, "100")
	outDir := filepath.Join(dir, "artifacts")

	out, err := run(t, "download", src, "--output-dir", outDir, "--name", "raw sample.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "raw_sample.csv"), strings.TrimSpace(out))
}

func TestArtifactNameFor(t *testing.T) {
	assert.Equal(t, "sample1.csv", artifactNameFor("https://example.com/data/sample1.csv?x=1"))
	assert.Equal(t, "sample2.csv", artifactNameFor("s3://bucket/samples/sample2.csv"))
	assert.Equal(t, "local.csv", artifactNameFor("/tmp/local.csv"))
	assert.Equal(t, "raw_sample.csv", artifactNameFor("https://example.com/"))
}

func TestSplitCommandUsesModelingConfig(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir, "clean.csv", 30, "100")
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("modeling:\n  test_size: 10\n  random_seed: 7\n"), 0o644))

	outDir := filepath.Join(dir, "split")
	_, err := run(t, "--thresholds", cfg, "split", "--input", input, "--output-dir", outDir)
	require.NoError(t, err)
	for name, want := range map[string]int{"trainval_data.csv": 20, "test_data.csv": 10} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Equal(t, want, strings.Count(string(data), "\n")-1, name)
	}

	require.NoError(t, os.WriteFile(cfg, []byte("modeling:\n  test_size: -1\n"), 0o644))
	_, err = run(t, "--thresholds", cfg, "split", "--input", input, "--output-dir", outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test_size")
}

func TestSplitOptionsFlagsOverrideConfig(t *testing.T) {
	settings := config.SplitSettings{TestSize: 10, RandomSeed: 7, StratifyBy: "neighbourhood_group"}

	cmd := newSplitCmd(&app{})
	opts := splitOptions(cmd, settings, 0.5, 1, "none")
	assert.Equal(t, 10.0, opts.TestSize)
	assert.Equal(t, int64(7), opts.Seed)
	assert.Equal(t, "neighbourhood_group", opts.StratifyBy)

	require.NoError(t, cmd.Flags().Set("test-size", "0.5"))
	require.NoError(t, cmd.Flags().Set("stratify-by", "none"))
	opts = splitOptions(cmd, settings, 0.5, 1, "none")
	assert.Equal(t, 0.5, opts.TestSize)
	assert.Equal(t, int64(7), opts.Seed)
	assert.Equal(t, "none", opts.StratifyBy)
}

type recordingWriter struct {
	name     string
	writeErr error
	log      *[]string
}

func (w *recordingWriter) Write(ds *models.Dataset) error {
	*w.log = append(*w.log, fmt.Sprintf("%s write %d", w.name, ds.Len()))
	return w.writeErr
}

func (w *recordingWriter) Close() error {
	*w.log = append(*w.log, w.name+" close")
	return nil
}

func TestWriteAll(t *testing.T) {
	ds := models.NewDataset("clean.csv", []string{"id"}, [][]string{{"1"}, {"2"}})

	var log []string
	writers := []storage.DatasetWriter{
		&recordingWriter{name: "csv", log: &log},
		&recordingWriter{name: "db", log: &log},
	}
	require.NoError(t, writeAll(writers, ds))
	assert.Equal(t, []string{"csv write 2", "db write 2", "csv close", "db close"}, log)

	log = nil
	boom := errors.New("disk full")
	writers = []storage.DatasetWriter{
		&recordingWriter{name: "csv", writeErr: boom, log: &log},
		&recordingWriter{name: "db", log: &log},
	}
	assert.ErrorIs(t, writeAll(writers, ds), boom)
	assert.Equal(t, []string{"csv write 2", "csv close", "db close"}, log)
}

func TestCleanCommandWritesThroughCSVWriter(t *testing.T) {
	dir := t.TempDir()
	raw := writeSample(t, dir, "raw.csv", 12, "150")
	cleanPath := filepath.Join(dir, "nested", "clean.csv")

	_, err := run(t, "clean", "--input", raw, "--output", cleanPath, "--quiet")
	require.NoError(t, err)

	data, err := os.ReadFile(cleanPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "id,name,"), "header written once")
	assert.Equal(t, 12, strings.Count(string(data), "\n")-1)
}

type fakeReportWriter struct {
	saved []*models.ValidationReport
	err   error
}

func (f *fakeReportWriter) SaveReport(_ context.Context, r *models.ValidationReport) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, r)
	return nil
}

func TestSaveReport(t *testing.T) {
	report := &models.ValidationReport{RunID: "run-1", Passed: true}

	w := &fakeReportWriter{}
	require.NoError(t, saveReport(context.Background(), w, report))
	require.Len(t, w.saved, 1)
	assert.Same(t, report, w.saved[0])

	w = &fakeReportWriter{err: errors.New("connection refused")}
	err := saveReport(context.Background(), w, report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save report run-1")
}
