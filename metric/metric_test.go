package metric

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/feature"
	"github.com/awojna/Rseslib-sub001/props"
)

const tolerance = 1e-9

func mixedHeader(t *testing.T) *dataset.Header {
	t.Helper()
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("color", []string{"red", "green", "blue", "unseen"}),
		feature.NewContinuousFeature("y"),
		feature.NewDiscreteFeature("class", []string{"A", "B", "C"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	return h
}

func randomRows(rnd *rand.Rand, n int, missing float64) []dataset.Row {
	rows := make([]dataset.Row, n)
	for i := range rows {
		r := dataset.Row{rnd.Float64() * 10, float64(rnd.Intn(3)), rnd.NormFloat64(), float64(rnd.Intn(3))}
		for j := 0; j < 3; j++ {
			if rnd.Float64() < missing {
				r[j] = dataset.MissingValue()
			}
		}
		rows[i] = r
	}
	return rows
}

func allOptions() []Options {
	var result []Options
	for _, v := range []Variant{CityHamming, CitySVD, DBVD, IVD} {
		for _, a := range []Aggregation{City, Euclidean, Maximum, Indexed} {
			result = append(result, Options{Variant: v, Aggregation: a, P: 3, VicinitySize: 10})
		}
	}
	return result
}

func TestMetricAxioms(t *testing.T) {
	ctx := context.Background()
	h := mixedHeader(t)
	rnd := rand.New(rand.NewSource(42))
	table := dataset.New(h, randomRows(rnd, 60, 0.1))
	queries := randomRows(rnd, 15, 0.2)
	queries = append(queries, dataset.Row{-5, 3, 100, 0})
	for _, opts := range allOptions() {
		t.Run(string(opts.Variant)+"/"+string(opts.Aggregation), func(t *testing.T) {
			m, err := New(ctx, table, opts)
			if err != nil {
				t.Fatalf("inducing metric: %v", err)
			}
			for i, a := range queries {
				if d := m.Distance(a, a); d != 0 {
					t.Errorf("expected zero distance from row %d to itself, got %v", i, d)
				}
				for j, b := range queries {
					dab, dba := m.Distance(a, b), m.Distance(b, a)
					if dab < 0 || math.IsNaN(dab) {
						t.Fatalf("invalid distance %v between rows %d and %d", dab, i, j)
					}
					if dab != dba {
						t.Errorf("asymmetric distance between rows %d and %d: %v and %v", i, j, dab, dba)
					}
					for k, c := range queries {
						if m.Distance(a, c) > dab+m.Distance(b, c)+tolerance {
							t.Errorf("triangle inequality fails for rows %d, %d and %d", i, j, k)
						}
					}
				}
			}
		})
	}
}

func TestMissingValueDistances(t *testing.T) {
	ctx := context.Background()
	h := mixedHeader(t)
	table := dataset.New(h, randomRows(rand.New(rand.NewSource(1)), 30, 0))
	missing := dataset.Row{dataset.MissingValue(), dataset.MissingValue(), dataset.MissingValue(), 0}
	present := dataset.Row{3, 1, 0.5, 1}
	for _, opts := range allOptions() {
		m, err := New(ctx, table, opts)
		if err != nil {
			t.Fatalf("inducing metric: %v", err)
		}
		for attr := 0; attr < m.Attributes(); attr++ {
			if d := m.ValueDist(missing, missing, attr); d != 0 {
				t.Errorf("%s: expected 0 between missing values on %d, got %v", opts.Variant, attr, d)
			}
			max := m.MaxValueDist(attr)
			if d := m.ValueDist(missing, present, attr); d != max {
				t.Errorf("%s: expected %v between missing and present value on %d, got %v", opts.Variant, max, attr, d)
			}
			if d := m.ValueDist(present, present, attr); d != 0 {
				t.Errorf("%s: expected 0 between equal values on %d, got %v", opts.Variant, attr, d)
			}
		}
	}
}

func TestCityHammingScenario(t *testing.T) {
	ctx := context.Background()
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("class", []string{"A", "B"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	table := dataset.New(h, []dataset.Row{{0, 0}, {1, 0}, {10, 1}, {11, 1}})
	m, err := New(ctx, table, Options{Variant: CityHamming, Aggregation: City})
	if err != nil {
		t.Fatalf("inducing metric: %v", err)
	}
	testCases := []struct {
		a, b float64
		want float64
	}{
		{0, 11, 1},
		{0.5, 0, 0.5 / 11},
		{5.5, 1, 4.5 / 11},
		{5.5, 10, 4.5 / 11},
		{-100, 11, 1},
	}
	for _, tc := range testCases {
		got := m.Distance(dataset.Row{tc.a, 0}, dataset.Row{tc.b, 1})
		if math.Abs(got-tc.want) > tolerance {
			t.Errorf("distance between %v and %v: expected %v, got %v", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestTransformationOutside(t *testing.T) {
	ctx := context.Background()
	h := mixedHeader(t)
	rows := randomRows(rand.New(rand.NewSource(3)), 20, 0.1)
	m, err := New(ctx, dataset.New(h, rows), DefaultOptions())
	if err != nil {
		t.Fatalf("inducing metric: %v", err)
	}
	before := m.Distance(rows[0], rows[1])
	original := rows[0].Clone()
	tr := m.TransformationOutside()
	if tr == nil {
		t.Fatalf("expected transformer on first call")
	}
	if m.TransformationOutside() != nil {
		t.Errorf("expected nil transformer on second call")
	}
	if !rows[0].Equal(original) {
		t.Errorf("distance modified its argument")
	}
	a, b := tr.Transform(rows[0]), tr.Transform(rows[1])
	if got := m.Distance(a, b); got != before {
		t.Errorf("expected %v on transformed rows, got %v", before, got)
	}
	th := tr.TransformedHeader()
	if len(a) != th.Len() || th.DecisionIndex != th.Len()-1 {
		t.Errorf("transformed row does not match transformed header")
	}
	if th.Decision(a) != h.Decision(rows[0]) {
		t.Errorf("expected decision to be kept")
	}
}

func TestUnseenNominalValueTakesPrior(t *testing.T) {
	ctx := context.Background()
	h := mixedHeader(t)
	m, err := New(ctx, dataset.New(h, randomRows(rand.New(rand.NewSource(5)), 30, 0)), DefaultOptions())
	if err != nil {
		t.Fatalf("inducing metric: %v", err)
	}
	tr := m.TransformationOutside()
	r := tr.Transform(dataset.Row{1, 3, 0, 0})
	block := r[1:4]
	var sum float64
	for _, v := range block {
		sum += v
	}
	if math.Abs(sum-1) > tolerance {
		t.Errorf("expected a distribution for an unseen value, got %v", block)
	}
}

func TestOptionsFromProperties(t *testing.T) {
	testCases := []struct {
		name  string
		props props.Properties
		want  Options
		err   bool
	}{
		{"defaults", props.Properties{}, DefaultOptions(), false},
		{"indexed", props.Properties{"metric": "DBVD", "metricType": "Indexed", "metricIndex": "2", "vicinitySizeForDBVDM": "7"},
			Options{Variant: DBVD, Aggregation: Indexed, P: 2, VicinitySize: 7}, false},
		{"indexed below one", props.Properties{"metricType": "Indexed", "metricIndex": "0.5"}, Options{}, true},
		{"unknown metric", props.Properties{"metric": "Manhattan"}, Options{}, true},
		{"bad vicinity", props.Properties{"vicinitySizeForDBVDM": "0"}, Options{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := OptionsFromProperties(tc.props)
			if tc.err {
				var ce *props.ConfigurationError
				if !errors.As(err, &ce) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	h := mixedHeader(t)
	rnd := rand.New(rand.NewSource(9))
	table := dataset.New(h, randomRows(rnd, 40, 0.1))
	queries := randomRows(rnd, 10, 0.1)
	for _, opts := range allOptions() {
		m, err := New(ctx, table, opts)
		if err != nil {
			t.Fatalf("inducing metric: %v", err)
		}
		if err := m.SetWeights([]float64{0.5, 2, 0.5}); err != nil {
			t.Fatalf("setting weights: %v", err)
		}
		restored, err := Restore(h, m.State())
		if err != nil {
			t.Fatalf("%s: restoring metric: %v", opts.Variant, err)
		}
		for _, a := range queries {
			for _, b := range queries {
				if m.Distance(a, b) != restored.Distance(a, b) {
					t.Fatalf("%s/%s: restored metric differs", opts.Variant, opts.Aggregation)
				}
			}
		}
	}
	s := DefaultOptions()
	m, _ := New(ctx, table, s)
	state := m.State()
	state.Attributes = state.Attributes[1:]
	if _, err := Restore(h, state); err == nil {
		t.Errorf("expected error restoring state with missing attributes")
	}
}

func weightingTable(t *testing.T) dataset.Table {
	t.Helper()
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("signal"),
		feature.NewContinuousFeature("noise"),
		feature.NewDiscreteFeature("class", []string{"A", "B"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	return dataset.New(h, []dataset.Row{
		{0, 0, 0},
		{0.2, 10, 0},
		{1.0, 0.2, 1},
		{1.2, 9.8, 1},
		{0.6, 5, dataset.MissingValue()},
	})
}

func TestOptimize(t *testing.T) {
	ctx := context.Background()
	table := weightingTable(t)
	testCases := []struct {
		method WeightingMethod
		check  func([]float64) bool
	}{
		{NoWeighting, func(w []float64) bool { return w[0] == 1 && w[1] == 1 }},
		{DistanceBased, func(w []float64) bool { return w[0] > w[1] && math.Abs(w[0]+w[1]-2) < 1e-6 }},
		{AccuracyBased, func(w []float64) bool { return math.Abs(w[0]-2) < 1e-9 && w[1] == 0 }},
	}
	for _, tc := range testCases {
		t.Run(string(tc.method), func(t *testing.T) {
			m, err := New(ctx, table, Options{Variant: CityHamming, Aggregation: City})
			if err != nil {
				t.Fatalf("inducing metric: %v", err)
			}
			err = Optimize(ctx, m, table, Weighting{Method: tc.method, Iterations: 5})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w := m.Weights(); !tc.check(w) {
				t.Errorf("unexpected weights %v", w)
			}
		})
	}
}

func TestOptimizeErrors(t *testing.T) {
	table := weightingTable(t)
	m, err := New(context.Background(), table, DefaultOptions())
	if err != nil {
		t.Fatalf("inducing metric: %v", err)
	}
	err = Optimize(context.Background(), m, table, Weighting{Method: "Entropy"})
	var ce *props.ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("expected configuration error, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Optimize(ctx, m, table, Weighting{Method: DistanceBased, Iterations: 3})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if w := m.Weights(); w[0] != 1 || w[1] != 1 {
		t.Errorf("expected weights untouched after cancellation, got %v", w)
	}
}
