package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"airbnb-pipeline/models"
	"airbnb-pipeline/utils"
)

// NoStratification disables stratified splitting.
const NoStratification = "none"

// SplitOptions configures a train/test split. TestSize below 1 is a fraction
// of the rows; 1 or more is an absolute row count.
type SplitOptions struct {
	TestSize   float64
	Seed       int64
	StratifyBy string
}

func (o SplitOptions) stratified() bool {
	s := strings.TrimSpace(o.StratifyBy)
	return s != "" && !strings.EqualFold(s, NoStratification)
}

// Splitter divides a dataset into trainval and test partitions.
type Splitter struct {
	logger *utils.Logger
}

func NewSplitter(logger *utils.Logger) *Splitter {
	return &Splitter{logger: logger}
}

// Split shuffles with a seeded source, so the same options always produce the
// same partitions. With stratification every class keeps its share in both
// partitions, up to rounding.
func (s *Splitter) Split(ds *models.Dataset, opts SplitOptions) (trainval, test *models.Dataset, err error) {
	n := ds.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("splitter: need at least 2 rows, got %d", n)
	}
	fraction, err := testFraction(opts.TestSize, n)
	if err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	var trainIdx, testIdx []int
	if opts.stratified() {
		labels, err := ds.Column(opts.StratifyBy)
		if err != nil {
			return nil, nil, fmt.Errorf("splitter: stratify: %w", err)
		}
		trainIdx, testIdx = stratifiedSplit(labels, fraction, rng)
	} else {
		perm := rng.Perm(n)
		nTest := int(math.Ceil(fraction * float64(n)))
		if opts.TestSize >= 1 {
			nTest = int(opts.TestSize)
		}
		testIdx, trainIdx = perm[:nTest], perm[nTest:]
	}

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, fmt.Errorf("splitter: test size %g leaves an empty partition (%d train, %d test)",
			opts.TestSize, len(trainIdx), len(testIdx))
	}

	s.logger.Info("[splitter] Split %d rows → trainval %d, test %d (stratify_by=%s, seed=%d)",
		n, len(trainIdx), len(testIdx), opts.StratifyBy, opts.Seed)
	return ds.Select("trainval_data", trainIdx), ds.Select("test_data", testIdx), nil
}

func testFraction(size float64, n int) (float64, error) {
	switch {
	case math.IsNaN(size) || size <= 0:
		return 0, errors.New("splitter: test size must be positive")
	case size < 1:
		return size, nil
	case size >= float64(n):
		return 0, fmt.Errorf("splitter: test size %g must be below row count %d", size, n)
	}
	return math.Floor(size) / float64(n), nil
}

// stratifiedSplit shuffles each class on its own and moves round(fraction*k)
// of its k rows to test, keeping at least one row on each side when k > 1.
func stratifiedSplit(labels []string, fraction float64, rng *rand.Rand) (trainIdx, testIdx []int) {
	classes := make(map[string][]int)
	for i, l := range labels {
		classes[l] = append(classes[l], i)
	}
	keys := make([]string, 0, len(classes))
	for k := range classes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		idx := classes[k]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(fraction * float64(len(idx))))
		if len(idx) > 1 {
			nTest = max(1, min(nTest, len(idx)-1))
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}

	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	return trainIdx, testIdx
}
