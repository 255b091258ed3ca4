package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"airbnb-pipeline/config"
	"airbnb-pipeline/models"
	"airbnb-pipeline/utils"
)

// Check names, in report order.
const (
	CheckColumnNames         = "column_names"
	CheckNeighbourhoodNames  = "neighbourhood_names"
	CheckProperBoundaries    = "proper_boundaries"
	CheckPriceRange          = "price_range"
	CheckRowCount            = "row_count"
	CheckSimilarNeighDistrib = "similar_neigh_distrib"
)

const (
	neighbourhoodGroupColumn = "neighbourhood_group"
	inputErrorPrefix         = "input error: "
)

// ErrNoDataset is returned when a dataset could not be loaded at all.
var ErrNoDataset = errors.New("validator: dataset not loaded")

type checkFunc func(current, reference *models.Dataset, th config.Thresholds) (models.CheckResult, error)

type check struct {
	name string
	run  checkFunc
}

var checks = []check{
	{CheckColumnNames, checkColumnNames},
	{CheckNeighbourhoodNames, checkNeighbourhoodNames},
	{CheckProperBoundaries, checkProperBoundaries},
	{CheckPriceRange, checkPriceRange},
	{CheckRowCount, checkRowCount},
	{CheckSimilarNeighDistrib, checkSimilarNeighDistrib},
}

// CheckNames lists every check the Validator runs, in report order.
func CheckNames() []string {
	out := make([]string, len(checks))
	for i, c := range checks {
		out[i] = c.name
	}
	return out
}

// Validator runs the fixed battery of data checks over a current and a
// reference dataset. It holds no state between runs.
type Validator struct {
	logger *utils.Logger

	// Parallel > 1 evaluates checks on a worker pool of that size. Results
	// keep report order either way.
	Parallel int
}

// NewValidator creates a sequential Validator.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate evaluates every check and never stops at the first failure. It
// returns an error only for unusable thresholds or a missing dataset; failing
// checks are reported in the ValidationReport.
func (v *Validator) Validate(current, reference *models.Dataset, th config.Thresholds) (*models.ValidationReport, error) {
	if current == nil || reference == nil {
		return nil, ErrNoDataset
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]models.CheckResult, len(checks))

	if v.Parallel > 1 {
		pool := utils.NewWorkerPool(v.Parallel, 0)
		for i, c := range checks {
			pool.Submit(func() {
				results[i] = runCheck(c, current, reference, th)
			})
		}
		pool.Wait()
	} else {
		for i, c := range checks {
			results[i] = runCheck(c, current, reference, th)
		}
	}

	report := &models.ValidationReport{
		RunID:     uuid.NewString(),
		Current:   current.Name,
		Reference: reference.Name,
		Results:   results,
		Passed:    true,
		StartedAt: start,
	}
	for _, r := range results {
		if r.Passed {
			v.logger.Debug("[validator] %s passed", r.Name)
			continue
		}
		report.Passed = false
		v.logger.Warn("[validator] %s failed: %s", r.Name, r.Reason)
	}
	report.Duration = time.Since(start)

	v.logger.Info("[validator] Run %s: %d/%d checks passed in %v",
		report.RunID, len(results)-len(report.Failed()), len(results), report.Duration)
	return report, nil
}

// runCheck isolates one check: errors and panics become a failing result.
func runCheck(c check, current, reference *models.Dataset, th config.Thresholds) (res models.CheckResult) {
	defer func() {
		if p := recover(); p != nil {
			res = models.CheckResult{Name: c.name, Reason: fmt.Sprintf("%s%v", inputErrorPrefix, p)}
		}
	}()

	res, err := c.run(current, reference, th)
	if err != nil {
		return models.CheckResult{Name: c.name, Reason: inputErrorPrefix + err.Error()}
	}
	res.Name = c.name
	return res
}

func requireRows(d *models.Dataset) error {
	if d.Len() == 0 {
		return &models.InputError{Dataset: d.Name, Err: models.ErrEmptyDataset}
	}
	return nil
}

// noCategories tells an empty dataset apart from one whose group cells are all blank.
func noCategories(d *models.Dataset) error {
	if err := requireRows(d); err != nil {
		return err
	}
	return &models.InputError{Dataset: d.Name, Column: neighbourhoodGroupColumn, Err: models.ErrNoValues}
}

func checkColumnNames(current, _ *models.Dataset, _ config.Thresholds) (models.CheckResult, error) {
	expected := models.ListingColumns
	res := models.CheckResult{
		Observed: strings.Join(current.Columns, ","),
		Expected: strings.Join(expected, ","),
	}
	if models.HeaderEqual(current.Columns, expected) {
		res.Passed = true
		return res, nil
	}

	have := utils.NewStringSet(current.Columns...)
	want := utils.NewStringSet(expected...)
	missing := want.Difference(have)
	unexpected := have.Difference(want)

	var reasons []string
	if len(missing) > 0 {
		reasons = append(reasons, fmt.Sprintf("missing columns %q", missing))
	}
	if len(unexpected) > 0 {
		reasons = append(reasons, fmt.Sprintf("unexpected columns %q", unexpected))
	}
	if len(current.Columns) != have.Size() {
		reasons = append(reasons, "duplicate column names")
	}
	if len(reasons) == 0 {
		for i := range expected {
			if current.Columns[i] != expected[i] {
				reasons = append(reasons, fmt.Sprintf("order mismatch at position %d: got %q, want %q",
					i, current.Columns[i], expected[i]))
				break
			}
		}
	}

	res.Reason = "schema mismatch: " + strings.Join(reasons, "; ")
	res.Value = float64(len(missing) + len(unexpected))
	return res, nil
}

func checkNeighbourhoodNames(current, _ *models.Dataset, _ config.Thresholds) (models.CheckResult, error) {
	values, err := current.Column(neighbourhoodGroupColumn)
	if err != nil {
		return models.CheckResult{}, err
	}
	if err := requireRows(current); err != nil {
		return models.CheckResult{}, err
	}

	observed := utils.NewStringSet(values...)
	known := utils.NewStringSet(models.NeighbourhoodGroups...)
	extra := observed.Difference(known)
	missing := known.Difference(observed)

	res := models.CheckResult{
		Observed: fmt.Sprintf("%q", observed.Sorted()),
		Expected: fmt.Sprintf("%q", known.Sorted()),
		Value:    float64(len(extra) + len(missing)),
	}
	if len(extra) == 0 && len(missing) == 0 {
		res.Passed = true
		return res, nil
	}

	var reasons []string
	if len(extra) > 0 {
		reasons = append(reasons, fmt.Sprintf("unknown groups %q", extra))
	}
	if len(missing) > 0 {
		reasons = append(reasons, fmt.Sprintf("missing groups %q", missing))
	}
	res.Reason = strings.Join(reasons, "; ")
	return res, nil
}

func checkProperBoundaries(current, _ *models.Dataset, th config.Thresholds) (models.CheckResult, error) {
	lon, err := current.FloatColumn("longitude")
	if err != nil {
		return models.CheckResult{}, err
	}
	lat, err := current.FloatColumn("latitude")
	if err != nil {
		return models.CheckResult{}, err
	}
	if err := requireRows(current); err != nil {
		return models.CheckResult{}, err
	}

	violations := 0
	for i := range lon {
		if !th.Box.Contains(lon[i], lat[i]) {
			violations++
		}
	}

	res := models.CheckResult{
		Passed:   violations == 0,
		Observed: fmt.Sprintf("%d violating listings", violations),
		Expected: th.Box.String(),
		Value:    float64(violations),
	}
	if violations > 0 {
		res.Reason = fmt.Sprintf("%d of %d listings outside %s", violations, len(lon), th.Box)
	}
	return res, nil
}

func checkPriceRange(current, _ *models.Dataset, th config.Thresholds) (models.CheckResult, error) {
	prices, err := current.FloatColumn("price")
	if err != nil {
		return models.CheckResult{}, err
	}
	if err := requireRows(current); err != nil {
		return models.CheckResult{}, err
	}

	observedMin, observedMax := math.Inf(1), math.Inf(-1)
	violations, nonNumeric := 0, 0
	for _, p := range prices {
		if math.IsNaN(p) {
			nonNumeric++
			violations++
			continue
		}
		observedMin = math.Min(observedMin, p)
		observedMax = math.Max(observedMax, p)
		if p < th.MinPrice || p > th.MaxPrice {
			violations++
		}
	}

	observed := fmt.Sprintf("min %g, max %g", observedMin, observedMax)
	if nonNumeric == len(prices) {
		observed = "no numeric prices"
	}
	res := models.CheckResult{
		Passed:   violations == 0,
		Observed: observed,
		Expected: fmt.Sprintf("[%g, %g]", th.MinPrice, th.MaxPrice),
		Value:    float64(violations),
	}
	if res.Passed {
		return res, nil
	}

	var reasons []string
	if nonNumeric < len(prices) {
		if observedMin < th.MinPrice {
			reasons = append(reasons, fmt.Sprintf("observed min %g < %g", observedMin, th.MinPrice))
		}
		if observedMax > th.MaxPrice {
			reasons = append(reasons, fmt.Sprintf("observed max %g > %g", observedMax, th.MaxPrice))
		}
	}
	if nonNumeric > 0 {
		reasons = append(reasons, fmt.Sprintf("%d missing or non-numeric prices", nonNumeric))
	}
	res.Reason = fmt.Sprintf("%d prices outside range: %s", violations, strings.Join(reasons, "; "))
	return res, nil
}

func checkRowCount(current, _ *models.Dataset, th config.Thresholds) (models.CheckResult, error) {
	n := current.Len()
	res := models.CheckResult{
		Passed:   n >= th.MinRows && n <= th.MaxRows,
		Observed: fmt.Sprintf("%d rows", n),
		Expected: fmt.Sprintf("[%d, %d] rows", th.MinRows, th.MaxRows),
		Value:    float64(n),
	}
	if !res.Passed {
		res.Reason = fmt.Sprintf("row count %d outside [%d, %d]", n, th.MinRows, th.MaxRows)
	}
	return res, nil
}

func checkSimilarNeighDistrib(current, reference *models.Dataset, th config.Thresholds) (models.CheckResult, error) {
	if !models.HeaderEqual(current.Columns, reference.Columns) {
		return models.CheckResult{}, &models.InputError{Dataset: reference.Name, Err: models.ErrSchemaMismatch}
	}
	cur, err := current.Column(neighbourhoodGroupColumn)
	if err != nil {
		return models.CheckResult{}, err
	}
	ref, err := reference.Column(neighbourhoodGroupColumn)
	if err != nil {
		return models.CheckResult{}, err
	}

	p, q := Frequencies(cur), Frequencies(ref)
	if len(p) == 0 {
		return models.CheckResult{}, noCategories(current)
	}
	if len(q) == 0 {
		return models.CheckResult{}, noCategories(reference)
	}

	categories, pv, qv := Align(p, q)
	d := KLDivergence(pv, qv)

	res := models.CheckResult{
		Passed:   !math.IsInf(d, 0) && !math.IsNaN(d) && d < th.KLThreshold,
		Observed: fmt.Sprintf("kl %.6g", d),
		Expected: fmt.Sprintf("kl < %g", th.KLThreshold),
		Value:    d,
	}
	if res.Passed {
		return res, nil
	}

	if math.IsInf(d, 0) || math.IsNaN(d) {
		var unsupported []string
		for i, c := range categories {
			if pv[i] > 0 && qv[i] == 0 {
				unsupported = append(unsupported, c)
			}
		}
		res.Reason = fmt.Sprintf("divergence is not finite: groups %q absent from reference", unsupported)
		return res, nil
	}
	res.Reason = fmt.Sprintf("divergence %.6g >= threshold %g", d, th.KLThreshold)
	return res, nil
}
