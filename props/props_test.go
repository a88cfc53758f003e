package props

import (
	"errors"
	"testing"
)

func TestRead(t *testing.T) {
	p, err := Read([]byte("metric: CityHamming\nmaxK: 20\nlearnOptimalK: true\nmetricIndex: 2.5\nempty:\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"metric": "CityHamming", "maxK": "20", "learnOptimalK": "true", "metricIndex": "2.5"}
	for k, v := range want {
		if p[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, p[k])
		}
	}
	if _, ok := p["empty"]; ok {
		t.Errorf("expected empty property to be unset")
	}
	if _, err := Read([]byte("metric:\n  nested: 1\n")); err == nil {
		t.Errorf("expected error for nested value")
	}
}

func TestGetters(t *testing.T) {
	p := New(map[string]string{
		"voting": "inversedistance",
		"k":      "3",
		"leaf":   "0",
		"p":      "x",
		"filter": "yes",
	})
	testCases := []struct {
		name string
		get  func() (interface{}, error)
		want interface{}
		err  bool
	}{
		{"one of canonical", func() (interface{}, error) {
			return p.OneOf("voting", "Equal", "Equal", "InverseDistance")
		}, "InverseDistance", false},
		{"one of default", func() (interface{}, error) {
			return p.OneOf("metric", "CitySVD", "CitySVD")
		}, "CitySVD", false},
		{"one of unknown", func() (interface{}, error) {
			return p.OneOf("voting", "Equal", "Equal")
		}, nil, true},
		{"int", func() (interface{}, error) { return p.Int("k", 1) }, 3, false},
		{"int default", func() (interface{}, error) { return p.Int("maxK", 20) }, 20, false},
		{"positive int", func() (interface{}, error) { return p.PositiveInt("leaf", 8) }, nil, true},
		{"float", func() (interface{}, error) { return p.Float("p", 1) }, nil, true},
		{"bool", func() (interface{}, error) { return p.Bool("filter", false) }, nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.get()
			if tc.err {
				var ce *ConfigurationError
				if !errors.As(err, &ce) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	p := New(map[string]string{"k": "1", "maxK": "10"}).Merge(Properties{"k": "5"})
	if p["k"] != "5" || p["maxK"] != "10" {
		t.Errorf("unexpected merged properties %v", p)
	}
}
