package knn

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/feature"
	"github.com/awojna/Rseslib-sub001/index"
	"github.com/awojna/Rseslib-sub001/metric"
	"github.com/awojna/Rseslib-sub001/props"
	"github.com/awojna/Rseslib-sub001/store"
)

var nan = dataset.MissingValue()

func lineHeader(t *testing.T) *dataset.Header {
	t.Helper()
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("class", []string{"A", "B"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	return h
}

func mixedHeader(t *testing.T) *dataset.Header {
	t.Helper()
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("color", []string{"red", "green", "blue"}),
		feature.NewContinuousFeature("y"),
		feature.NewDiscreteFeature("class", []string{"A", "B", "C"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	return h
}

func mixedRows(rnd *rand.Rand, n int) []dataset.Row {
	rows := make([]dataset.Row, n)
	for i := range rows {
		r := dataset.Row{float64(rnd.Intn(6)), float64(rnd.Intn(3)), float64(rnd.Intn(4)) / 2, float64(rnd.Intn(3))}
		if rnd.Intn(8) == 0 {
			r[rnd.Intn(3)] = nan
		}
		rows[i] = r
	}
	return rows
}

func plainOptions() Options {
	opts := DefaultOptions()
	opts.Weighting = metric.Weighting{Method: metric.NoWeighting}
	opts.LearnOptimalK = false
	opts.Voting = Equal
	return opts
}

func TestLineScenario(t *testing.T) {
	rows := []dataset.Row{{0, 0}, {1, 0}, {10, 1}, {11, 1}}
	testCases := []struct {
		x        float64
		expected int
	}{
		{0.5, 0},
		{10.5, 1},
		{5.5, 0},
	}
	for _, indexing := range []bool{true, false} {
		opts := plainOptions()
		opts.Indexing = indexing
		opts.Tree.LeafSize = 1
		c, err := New(context.Background(), dataset.New(lineHeader(t), rows), opts)
		if err != nil {
			t.Fatalf("building classifier: %v", err)
		}
		if c.State() != Ready {
			t.Errorf("expected ready classifier, got %v", c.State())
		}
		for _, tc := range testCases {
			got, err := c.Classify(dataset.Row{tc.x, nan})
			if err != nil {
				t.Fatalf("classifying %v: %v", tc.x, err)
			}
			if got != tc.expected {
				t.Errorf("indexing %v: expected %d for x=%v, got %d", indexing, tc.expected, tc.x, got)
			}
		}
	}
}

func TestZeroDistancePriority(t *testing.T) {
	rows := []dataset.Row{{0, 0}, {0.1, 1}, {0.2, 1}, {0.3, 1}, {1, 0}}
	opts := plainOptions()
	opts.K = 4
	c, err := New(context.Background(), dataset.New(lineHeader(t), rows), opts)
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	q := dataset.Row{0, nan}
	if d, _ := c.Classify(q); d != 1 {
		t.Errorf("expected equal voting to pick B, got %d", d)
	}
	for _, v := range []Voting{InverseDistance, InverseSquareDistance} {
		if err := c.SetVoting(v); err != nil {
			t.Fatalf("setting voting: %v", err)
		}
		dist, err := c.ClassifyWithDistributedDecision(q)
		if err != nil {
			t.Fatalf("classifying: %v", err)
		}
		if dist[0] != 1 || dist[1] != 0 {
			t.Errorf("%s: expected all mass on the exact match, got %v", v, dist)
		}
		if d, _ := c.Classify(q); d != 0 {
			t.Errorf("%s: expected A, got %d", v, d)
		}
	}
}

func TestClassifyWithParameterMatchesClassify(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	h := mixedHeader(t)
	opts := DefaultOptions()
	opts.LearnOptimalK = false
	opts.MaxK = 12
	opts.Tree.LeafSize = 2
	c, err := New(context.Background(), dataset.New(h, mixedRows(rnd, 80)), opts)
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	queries := mixedRows(rnd, 25)
	for _, v := range []Voting{Equal, InverseDistance, InverseSquareDistance} {
		for _, filter := range []bool{false, true} {
			t.Run(string(v), func(t *testing.T) {
				if err := c.SetVoting(v); err != nil {
					t.Fatalf("setting voting: %v", err)
				}
				c.SetFilter(filter)
				for qi, q := range queries {
					byK, err := c.ClassifyWithParameter(q)
					if err != nil {
						t.Fatalf("classifying with parameter: %v", err)
					}
					if len(byK) != c.MaxK()+1 || byK[0] != c.DefaultDecision() {
						t.Fatalf("unexpected decisions by k %v", byK)
					}
					for k := 1; k <= c.MaxK(); k++ {
						d, err := c.ClassifyWith(q, Query{K: k, Voting: v, Filter: filter})
						if err != nil {
							t.Fatalf("classifying: %v", err)
						}
						if d != byK[k] {
							t.Errorf("query %d, k %d, filter %v: classify gave %d, parameter %d", qi, k, filter, d, byK[k])
						}
					}
				}
			})
		}
	}
}

func TestOptimalKOnSeparatedClusters(t *testing.T) {
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("x"),
		feature.NewContinuousFeature("y"),
		feature.NewDiscreteFeature("class", []string{"A", "B"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	rows := []dataset.Row{
		{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0},
		{10, 10, 1}, {10, 11, 1}, {11, 10, 1}, {11, 11, 1},
	}
	opts := DefaultOptions()
	opts.MaxK = 3
	c, err := New(context.Background(), dataset.New(h, rows), opts)
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	if c.K() != 1 {
		t.Errorf("expected k 1, got %d", c.K())
	}
}

func TestMarkConsistency(t *testing.T) {
	h := lineHeader(t)
	training := []dataset.Row{{0, 0}, {1, 0}, {2, 1}, {3, 0}}
	m, err := metric.New(context.Background(), dataset.New(h, training), metric.DefaultOptions())
	if err != nil {
		t.Fatalf("inducing metric: %v", err)
	}
	tr := m.TransformationOutside()
	rows := []dataset.Row{tr.Transform(training[1]), tr.Transform(training[2]), tr.Transform(training[3])}
	q := tr.Transform(dataset.Row{0, nan})
	neighbours, err := index.NewLinear(m, rows).KNearest(q, 3)
	if err != nil {
		t.Fatalf("searching neighbours: %v", err)
	}
	header := tr.TransformedHeader()
	MarkConsistency(m, header, q, neighbours)
	expected := []bool{true, false, false}
	for i, e := range expected {
		if neighbours[i+1].Consistent != e {
			t.Errorf("neighbour at x=%d: expected consistent %v", i+1, e)
		}
	}

	err = MarkConsistencyLevels(m, header, q, neighbours, 0, []float64{-1, 1, 0.5}, []float64{1, -1, 0.2})
	if err != nil {
		t.Fatalf("marking levels: %v", err)
	}
	levels := [][]uint32{{0, 1, 2}, {1, 2}, {0, 2}}
	for i, e := range levels {
		got := neighbours[i+1].Levels.ToArray()
		if len(got) != len(e) {
			t.Errorf("neighbour at x=%d: expected levels %v, got %v", i+1, e, got)
			continue
		}
		for j := range e {
			if got[j] != e[j] {
				t.Errorf("neighbour at x=%d: expected levels %v, got %v", i+1, e, got)
				break
			}
		}
	}
	if err = MarkConsistencyLevels(m, header, q, neighbours, 0, []float64{1}, nil); err == nil {
		t.Errorf("expected an error for scales of different lengths")
	}
}

func TestDataErrors(t *testing.T) {
	h := lineHeader(t)
	testCases := []struct {
		name     string
		rows     []dataset.Row
		expected error
	}{
		{"empty", nil, ErrEmptyTable},
		{"no decisions", []dataset.Row{{1, nan}, {2, nan}}, ErrNoDecisions},
		{"no values", []dataset.Row{{nan, 0}, {nan, 1}}, ErrAllValuesMissing},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(context.Background(), dataset.New(h, tc.rows), plainOptions())
			if !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestConfigurationErrors(t *testing.T) {
	table := dataset.New(lineHeader(t), []dataset.Row{{0, 0}, {1, 1}})
	testCases := []struct {
		name   string
		modify func(*Options)
	}{
		{"voting", func(o *Options) { o.Voting = "Majority" }},
		{"k above maxK", func(o *Options) { o.K, o.MaxK = 5, 3 }},
		{"metric", func(o *Options) { o.Metric.Variant = "Manhattan" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := plainOptions()
			tc.modify(&opts)
			_, err := New(context.Background(), table, opts)
			var ce *props.ConfigurationError
			if !errors.As(err, &ce) {
				t.Errorf("expected a configuration error, got %v", err)
			}
		})
	}
	c, err := New(context.Background(), table, plainOptions())
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	if err = c.SetVoting("Majority"); err == nil {
		t.Errorf("expected an error setting an unknown voting")
	}
	if err = c.SetK(0); err == nil {
		t.Errorf("expected an error setting k 0")
	}
	if _, err = c.ClassifyWith(dataset.Row{0, nan}, Query{K: 1, Voting: "Majority"}); err == nil {
		t.Errorf("expected an error classifying with an unknown voting")
	}
}

func TestCancellation(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err := New(ctx, dataset.New(mixedHeader(t), mixedRows(rnd, 30)), DefaultOptions())
	if !errors.Is(err, context.Canceled) || c != nil {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestOptionsFromProperties(t *testing.T) {
	opts, err := OptionsFromProperties(props.New(nil))
	if err != nil {
		t.Fatalf("reading defaults: %v", err)
	}
	if opts.Voting != InverseSquareDistance || !opts.LearnOptimalK || opts.MaxK != 100 || opts.K != 1 || !opts.Indexing || opts.Filter {
		t.Errorf("unexpected defaults %+v", opts)
	}
	opts, err = OptionsFromProperties(props.New(map[string]string{
		"voting": "equal", "k": "3", "maxK": "7", "filterNeighboursUsingRules": "true", "indexing": "false",
	}))
	if err != nil {
		t.Fatalf("reading properties: %v", err)
	}
	if opts.Voting != Equal || opts.K != 3 || opts.MaxK != 7 || !opts.Filter || opts.Indexing {
		t.Errorf("unexpected options %+v", opts)
	}
	for _, p := range []map[string]string{{"voting": "Majority"}, {"k": "9", "maxK": "3"}, {"maxK": "0"}} {
		var ce *props.ConfigurationError
		if _, err := OptionsFromProperties(props.New(p)); !errors.As(err, &ce) {
			t.Errorf("expected a configuration error for %v, got %v", p, err)
		}
	}
}

func TestSnapshotRebuild(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	h := mixedHeader(t)
	opts := DefaultOptions()
	opts.MaxK = 6
	opts.Metric.Variant = metric.DBVD
	opts.Metric.VicinitySize = 10
	c, err := New(context.Background(), dataset.New(h, mixedRows(rnd, 60)), opts)
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	buf := &bytes.Buffer{}
	if err = c.Snapshot().Encode(buf); err != nil {
		t.Fatalf("encoding snapshot: %v", err)
	}
	snap, err := DecodeSnapshot(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	rebuilt, err := Rebuild(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("rebuilding classifier: %v", err)
	}
	st := store.NewMemoryStore()
	id, err := Save(context.Background(), st, c)
	if err != nil {
		t.Fatalf("saving classifier: %v", err)
	}
	loaded, err := Load(context.Background(), st, id, nil)
	if err != nil {
		t.Fatalf("loading classifier: %v", err)
	}
	for _, other := range []*Classifier{rebuilt, loaded} {
		if other.K() != c.K() || other.Voting() != c.Voting() || other.DefaultDecision() != c.DefaultDecision() || other.State() != Ready {
			t.Errorf("rebuilt classifier differs in parameters")
		}
		for _, q := range mixedRows(rnd, 20) {
			want, _ := c.ClassifyWithParameter(q)
			got, err := other.ClassifyWithParameter(q)
			if err != nil {
				t.Fatalf("classifying with rebuilt classifier: %v", err)
			}
			for k := range want {
				if want[k] != got[k] {
					t.Errorf("k %d: expected %d, got %d", k, want[k], got[k])
				}
			}
		}
	}

	corrupted := append([]byte(nil), buf.Bytes()...)
	corrupted[len(corrupted)-1]++
	if _, err = DecodeSnapshot(bytes.NewReader(corrupted)); !errors.Is(err, store.ErrChecksumMismatch) {
		t.Errorf("expected checksum mismatch, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	h := lineHeader(t)
	c, err := New(context.Background(), dataset.New(h, []dataset.Row{{0, 0}, {1, 0}, {10, 1}, {11, 1}}), plainOptions())
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	e, err := c.Evaluate(context.Background(), dataset.New(h, []dataset.Row{{0.2, 0}, {9, 1}, {2, 1}, {5, nan}}))
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if e.Total != 3 || e.Correct != 2 || e.Confusion[1][0] != 1 {
		t.Errorf("unexpected evaluation %+v", e)
	}
	if a := e.Accuracy(); a < 0.66 || a > 0.67 {
		t.Errorf("expected accuracy 2/3, got %v", a)
	}
}
