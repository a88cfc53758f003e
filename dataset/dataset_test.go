package dataset

import (
	"context"
	"math/rand"
	"testing"

	"github.com/awojna/Rseslib-sub001/feature"
)

func testHeader(t *testing.T) *Header {
	t.Helper()
	h, err := NewHeader([]feature.Feature{
		feature.NewContinuousFeature("size"),
		feature.NewDiscreteFeature("color", []string{"red", "green"}),
		feature.NewDiscreteFeature("class", []string{"yes", "no"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	return h
}

func testRows() []Row {
	return []Row{
		{1, 0, 0},
		{2, 1, 1},
		{3, 0, 0},
		{MissingValue(), 1, 1},
		{5, MissingValue(), 0},
		{6, 1, MissingValue()},
	}
}

func TestNewHeader(t *testing.T) {
	h := testHeader(t)
	if h.DecisionIndex != 2 {
		t.Errorf("expected decision index 2, got %d", h.DecisionIndex)
	}
	if got := h.Conditional(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("unexpected conditional attributes %v", got)
	}
	if h.NumDecisions() != 2 {
		t.Errorf("expected 2 decisions, got %d", h.NumDecisions())
	}
	if !h.Equal(testHeader(t)) {
		t.Errorf("expected equal headers")
	}

	_, err := NewHeader([]feature.Feature{feature.NewContinuousFeature("size")}, "size")
	if err == nil {
		t.Errorf("expected error for continuous decision")
	}
	_, err = NewHeader([]feature.Feature{feature.NewContinuousFeature("size")}, "class")
	if err == nil {
		t.Errorf("expected error for undefined decision")
	}
}

func TestHeaderEncode(t *testing.T) {
	h := testHeader(t)
	ctx := context.Background()
	testCases := []struct {
		name   string
		values map[string]interface{}
		want   Row
		err    bool
	}{
		{"complete", map[string]interface{}{"size": 1.5, "color": "green", "class": "no"}, Row{1.5, 1, 1}, false},
		{"missing", map[string]interface{}{"color": "red"}, Row{MissingValue(), 0, MissingValue()}, false},
		{"numeric string", map[string]interface{}{"size": "2.5"}, Row{2.5, MissingValue(), MissingValue()}, false},
		{"unknown value", map[string]interface{}{"color": "blue"}, nil, true},
		{"bad number", map[string]interface{}{"size": "big"}, nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := h.Encode(ctx, NewSample(tc.values))
			if tc.err {
				if err == nil {
					t.Fatalf("expected error, got row %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRowSample(t *testing.T) {
	h := testHeader(t)
	rs := &RowSample{h, Row{2, 1, MissingValue()}}
	ctx := context.Background()
	features := h.Features()
	want := []interface{}{2.0, "green", nil}
	for i, f := range features {
		v, err := rs.ValueFor(ctx, f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != want[i] {
			t.Errorf("%s: expected %v, got %v", f.Name(), want[i], v)
		}
	}
}

func TestTables(t *testing.T) {
	h := testHeader(t)
	ctx := context.Background()
	constructors := map[string]func(*Header, []Row) Table{
		"memory": NewMemoryIntensive,
		"cpu":    NewCPUIntensive,
	}
	for name, newTable := range constructors {
		t.Run(name, func(t *testing.T) {
			table := newTable(h, testRows())
			dist, err := table.DecisionDistribution(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(dist) != 2 || dist[0] != 3 || dist[1] != 2 {
				t.Errorf("unexpected decision distribution %v", dist)
			}
			color := h.Features()[1].(*feature.DiscreteFeature)
			subset, err := table.SubsetWith(ctx, feature.NewDiscreteCriterion(color, "green"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			count, err := subset.Count(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if count != 3 {
				t.Errorf("expected 3 green rows, got %d", count)
			}
			criteria, _ := subset.Criteria(ctx)
			if len(criteria) != 1 {
				t.Errorf("expected 1 criterion, got %d", len(criteria))
			}
		})
	}
}

func TestRandomSplit(t *testing.T) {
	h := testHeader(t)
	ctx := context.Background()
	table := New(h, testRows())
	first, second, err := RandomSplit(ctx, table, 0.5, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n1, _ := first.Count(ctx)
	n2, _ := second.Count(ctx)
	if n1 != 3 || n2 != 3 {
		t.Errorf("expected 3 and 3 rows, got %d and %d", n1, n2)
	}
	if _, _, err := RandomSplit(ctx, table, 1, rand.New(rand.NewSource(1))); err == nil {
		t.Errorf("expected error for ratio 1")
	}
}

func TestRandomStratifiedPartition(t *testing.T) {
	h := testHeader(t)
	ctx := context.Background()
	var rows []Row
	for i := 0; i < 40; i++ {
		rows = append(rows, Row{float64(i), float64(i % 2), float64(i % 4 / 3)})
	}
	parts, err := RandomStratifiedPartition(ctx, New(h, rows), 4, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := 0
	for _, p := range parts {
		dist, _ := p.DecisionDistribution(ctx)
		if dist[0] < 7 || dist[0] > 8 || dist[1] < 2 || dist[1] > 3 {
			t.Errorf("unbalanced part distribution %v", dist)
		}
		n, _ := p.Count(ctx)
		total += n
	}
	if total != 40 {
		t.Errorf("expected 40 rows over all parts, got %d", total)
	}
}
