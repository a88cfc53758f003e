package rseslib

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/feature"
	"github.com/awojna/Rseslib-sub001/props"
)

func testTables(t *testing.T) (dataset.Table, dataset.Table) {
	t.Helper()
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("color", []string{"red", "green"}),
		feature.NewDiscreteFeature("class", []string{"low", "high"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	rnd := rand.New(rand.NewSource(1))
	rows := make([]dataset.Row, 200)
	for i := range rows {
		x := rnd.Float64() * 10
		class := 0.0
		if x > 5 {
			class = 1
		}
		rows[i] = dataset.Row{x, float64(rnd.Intn(2)), class}
	}
	training, testing, err := dataset.RandomSplit(context.Background(), dataset.New(h, rows), 0.7, rnd)
	if err != nil {
		t.Fatalf("splitting table: %v", err)
	}
	return training, testing
}

func TestTrainAndTest(t *testing.T) {
	training, testing := testTables(t)
	c, err := Train(context.Background(), training, props.New(map[string]string{"maxK": "5", "voting": "Equal"}), nil)
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	sequential, err := c.Evaluate(context.Background(), testing)
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	for _, workers := range []int{0, 1, 3} {
		e, err := Test(context.Background(), c, testing, workers)
		if err != nil {
			t.Fatalf("testing with %d workers: %v", workers, err)
		}
		if e.Total != sequential.Total || e.Correct != sequential.Correct {
			t.Errorf("%d workers: expected %d/%d, got %d/%d", workers, sequential.Correct, sequential.Total, e.Correct, e.Total)
		}
	}
	if sequential.Accuracy() < 0.9 {
		t.Errorf("expected accuracy over 0.9 on a threshold concept, got %v", sequential.Accuracy())
	}
}

func TestTrainConfigurationError(t *testing.T) {
	training, _ := testTables(t)
	_, err := Train(context.Background(), training, props.New(map[string]string{"metric": "Chebyshev"}), nil)
	var ce *props.ConfigurationError
	if !errors.As(err, &ce) || ce.Property != "metric" {
		t.Errorf("expected a configuration error on metric, got %v", err)
	}
}

func TestTestCancellation(t *testing.T) {
	training, testing := testTables(t)
	c, err := Train(context.Background(), training, props.New(nil), nil)
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err = Test(ctx, c, testing, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
