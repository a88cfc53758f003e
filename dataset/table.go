package dataset

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/awojna/Rseslib-sub001/feature"
)

const (
	rowCountThresholdForTableImplementation = 1000
)

/*
Table represents a collection of rows sharing a header.

Its Header method returns the attribute space of its rows.

Its Rows method returns the rows it contains, in insertion order.

Its DecisionDistribution method returns the number of rows of each decision,
indexed by decision code. Rows with a missing decision are not counted.

Its SubsetWith method takes a feature.Criterion and returns a subset that only
contains rows that satisfy it.
*/
type Table interface {
	Header() *Header
	Rows(context.Context) ([]Row, error)
	Count(context.Context) (int, error)
	DecisionDistribution(context.Context) ([]int, error)
	SubsetWith(context.Context, feature.Criterion) (Table, error)
	Criteria(context.Context) ([]feature.Criterion, error)
}

type memoryIntensiveSubsettingTable struct {
	header   *Header
	rows     []Row
	criteria []feature.Criterion
}

type cpuIntensiveSubsettingTable struct {
	header   *Header
	count    *int
	rows     []Row
	criteria []feature.Criterion
}

/*
New takes a header and a slice of rows and returns a table built with them.
The table will be a CPU intensive one when the number of rows is over
rowCountThresholdForTableImplementation.
*/
func New(header *Header, rows []Row) Table {
	if len(rows) > rowCountThresholdForTableImplementation {
		return NewCPUIntensive(header, rows)
	}
	return NewMemoryIntensive(header, rows)
}

/*
NewMemoryIntensive takes a header and a slice of rows and returns a Table
that replicates the slice of rows when subsetting.
*/
func NewMemoryIntensive(header *Header, rows []Row) Table {
	return &memoryIntensiveSubsettingTable{header, rows, nil}
}

/*
NewCPUIntensive takes a header and a slice of rows and returns a Table that,
instead of replicating the rows when subsetting, stores the criteria defining
the subset and applies them every time it goes over the original rows.
*/
func NewCPUIntensive(header *Header, rows []Row) Table {
	return &cpuIntensiveSubsettingTable{header, nil, rows, []feature.Criterion{}}
}

func (t *memoryIntensiveSubsettingTable) Header() *Header {
	return t.header
}

func (t *cpuIntensiveSubsettingTable) Header() *Header {
	return t.header
}

func (t *memoryIntensiveSubsettingTable) Rows(ctx context.Context) ([]Row, error) {
	return t.rows, nil
}

func (t *cpuIntensiveSubsettingTable) Rows(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := t.iterateOnTable(ctx, func(r Row) (bool, error) {
		rows = append(rows, r)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *memoryIntensiveSubsettingTable) Count(ctx context.Context) (int, error) {
	return len(t.rows), nil
}

func (t *cpuIntensiveSubsettingTable) Count(ctx context.Context) (int, error) {
	if t.count != nil {
		return *t.count, nil
	}
	var length int
	err := t.iterateOnTable(ctx, func(_ Row) (bool, error) {
		length++
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	t.count = &length
	return length, nil
}

func (t *memoryIntensiveSubsettingTable) DecisionDistribution(ctx context.Context) ([]int, error) {
	result := make([]int, t.header.NumDecisions())
	for _, r := range t.rows {
		if d := t.header.Decision(r); d >= 0 && d < len(result) {
			result[d]++
		}
	}
	return result, nil
}

func (t *cpuIntensiveSubsettingTable) DecisionDistribution(ctx context.Context) ([]int, error) {
	result := make([]int, t.header.NumDecisions())
	err := t.iterateOnTable(ctx, func(r Row) (bool, error) {
		if d := t.header.Decision(r); d >= 0 && d < len(result) {
			result[d]++
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *memoryIntensiveSubsettingTable) SubsetWith(ctx context.Context, fc feature.Criterion) (Table, error) {
	var rows []Row
	for _, r := range t.rows {
		ok, err := fc.SatisfiedBy(ctx, &RowSample{t.header, r})
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, r)
		}
	}
	return &memoryIntensiveSubsettingTable{t.header, rows, append([]feature.Criterion{fc}, t.criteria...)}, nil
}

func (t *cpuIntensiveSubsettingTable) SubsetWith(ctx context.Context, fc feature.Criterion) (Table, error) {
	criteria := append([]feature.Criterion{fc}, t.criteria...)
	return &cpuIntensiveSubsettingTable{t.header, nil, t.rows, criteria}, nil
}

func (t *memoryIntensiveSubsettingTable) Criteria(ctx context.Context) ([]feature.Criterion, error) {
	return t.criteria, nil
}

func (t *cpuIntensiveSubsettingTable) Criteria(ctx context.Context) ([]feature.Criterion, error) {
	return t.criteria, nil
}

func (t *cpuIntensiveSubsettingTable) iterateOnTable(ctx context.Context, lambda func(Row) (bool, error)) error {
	for _, r := range t.rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("iterating on table: %w", err)
		}
		skip := false
		for _, criterion := range t.criteria {
			ok, err := criterion.SatisfiedBy(ctx, &RowSample{t.header, r})
			if err != nil {
				return err
			}
			if !ok {
				skip = true
				break
			}
		}
		if !skip {
			ok, err := lambda(r)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}
	}
	return nil
}

/*
RandomSplit takes a context, a table, a ratio in (0, 1) and a source of
randomness and returns two tables: the first one with round(ratio * count)
rows chosen at random and the second one with the rest. Both keep the
relative order of the rows of the original table.
*/
func RandomSplit(ctx context.Context, t Table, ratio float64, rnd *rand.Rand) (Table, Table, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("split ratio must be in (0, 1), got %v", ratio)
	}
	rows, err := t.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieving rows to split: %v", err)
	}
	n := int(float64(len(rows))*ratio + 0.5)
	chosen := make([]bool, len(rows))
	for _, i := range rnd.Perm(len(rows))[:n] {
		chosen[i] = true
	}
	first := make([]Row, 0, n)
	second := make([]Row, 0, len(rows)-n)
	for i, r := range rows {
		if chosen[i] {
			first = append(first, r)
		} else {
			second = append(second, r)
		}
	}
	return New(t.Header(), first), New(t.Header(), second), nil
}

/*
RandomStratifiedPartition takes a context, a table, a number of parts and a
source of randomness and returns that many tables whose union is the original
table. The rows of every decision are shuffled and dealt in turns, so every
part holds about the same proportion of each decision. Rows with a missing
decision are dealt as if they had a decision of their own.
*/
func RandomStratifiedPartition(ctx context.Context, t Table, parts int, rnd *rand.Rand) ([]Table, error) {
	if parts < 1 {
		return nil, fmt.Errorf("number of parts must be positive, got %d", parts)
	}
	rows, err := t.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieving rows to partition: %v", err)
	}
	header := t.Header()
	byDecision := make([][]int, header.NumDecisions()+1)
	for i, r := range rows {
		d := header.Decision(r)
		if d < 0 || d >= header.NumDecisions() {
			d = header.NumDecisions()
		}
		byDecision[d] = append(byDecision[d], i)
	}
	assigned := make([]int, len(rows))
	next := 0
	for _, indices := range byDecision {
		rnd.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
		for _, i := range indices {
			assigned[i] = next
			next = (next + 1) % parts
		}
	}
	partRows := make([][]Row, parts)
	for i, r := range rows {
		partRows[assigned[i]] = append(partRows[assigned[i]], r)
	}
	result := make([]Table, parts)
	for i := range partRows {
		result[i] = New(header, partRows[i])
	}
	return result, nil
}
