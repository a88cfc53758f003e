package knn

import (
	"context"
	"fmt"

	"github.com/awojna/Rseslib-sub001/dataset"
)

/*
Evaluation holds the results of classifying rows with known decisions.
Confusion[actual][predicted] counts the rows of each actual decision given
each predicted one.
*/
type Evaluation struct {
	Total     int
	Correct   int
	Confusion [][]int
}

// NewEvaluation returns an empty evaluation for the given number of decisions.
func NewEvaluation(decisions int) *Evaluation {
	e := &Evaluation{Confusion: make([][]int, decisions)}
	for i := range e.Confusion {
		e.Confusion[i] = make([]int, decisions)
	}
	return e
}

// Add records the classification of a row.
func (e *Evaluation) Add(actual, predicted int) {
	e.Total++
	if actual == predicted {
		e.Correct++
	}
	if actual >= 0 && actual < len(e.Confusion) && predicted >= 0 && predicted < len(e.Confusion) {
		e.Confusion[actual][predicted]++
	}
}

// Merge adds the results of another evaluation over the same decisions.
func (e *Evaluation) Merge(o *Evaluation) {
	e.Total += o.Total
	e.Correct += o.Correct
	for i := range o.Confusion {
		for j, n := range o.Confusion[i] {
			e.Confusion[i][j] += n
		}
	}
}

// Accuracy returns the fraction of correctly classified rows, 0 if there are none.
func (e *Evaluation) Accuracy() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Total)
}

/*
Evaluate classifies every row of the table with a decision and returns the
results. The table must have the classifier's header. Cancellation is
checked once per row.
*/
func (c *Classifier) Evaluate(ctx context.Context, table dataset.Table) (*Evaluation, error) {
	if !table.Header().Equal(c.header) {
		return nil, fmt.Errorf("evaluating classifier: table header does not match the training one")
	}
	rows, err := table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluating classifier: %w", err)
	}
	e := NewEvaluation(c.header.NumDecisions())
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluating classifier: %w", err)
		}
		actual := c.header.Decision(r)
		if actual < 0 {
			continue
		}
		predicted, err := c.Classify(r)
		if err != nil {
			return nil, fmt.Errorf("evaluating classifier: %v", err)
		}
		e.Add(actual, predicted)
	}
	return e, nil
}
