/*
Package rseslib trains nearest neighbour classifiers from tables and tests
them. The classifier itself lives in package knn; this package wires it to
properties and runs tests over a pool of workers.
*/
package rseslib

import (
	"context"
	"fmt"
	"sync"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/knn"
	"github.com/awojna/Rseslib-sub001/props"
)

/*
DefaultMaxConcurrency defines the number of workers classifying rows in Test
when none is given.
*/
const DefaultMaxConcurrency = 10

/*
Train takes a context, a training table, properties configuring the
classifier and an optional logger and returns a ready classifier.
*/
func Train(ctx context.Context, table dataset.Table, p props.Properties, logger knn.Logger) (*knn.Classifier, error) {
	opts, err := knn.OptionsFromProperties(p)
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	return knn.New(ctx, table, opts)
}

/*
Test takes a context, a classifier, a table with its header and a number of
workers and classifies every row of the table with a decision, spreading the
rows among the workers. It returns the merged results, or the first error a
worker found.
*/
func Test(ctx context.Context, c *knn.Classifier, table dataset.Table, workers int) (*knn.Evaluation, error) {
	if workers < 1 {
		workers = DefaultMaxConcurrency
	}
	header := c.Header()
	if !table.Header().Equal(header) {
		return nil, fmt.Errorf("testing classifier: table header does not match the training one")
	}
	rows, err := table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("testing classifier: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tasks := make(chan dataset.Row)
	results := make([]*knn.Evaluation, workers)
	errs := make(chan error, workers)
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		results[i] = knn.NewEvaluation(header.NumDecisions())
		wg.Add(1)
		go func(e *knn.Evaluation) {
			defer wg.Done()
			for r := range tasks {
				predicted, err := c.Classify(r)
				if err != nil {
					errs <- err
					cancel()
					return
				}
				e.Add(header.Decision(r), predicted)
			}
		}(results[i])
	}
	go func() {
		defer close(tasks)
		for _, r := range rows {
			if header.Decision(r) < 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case tasks <- r:
			}
		}
	}()
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("testing classifier: %v", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("testing classifier: %w", err)
	}
	result := knn.NewEvaluation(header.NumDecisions())
	for _, e := range results {
		result.Merge(e)
	}
	return result, nil
}
