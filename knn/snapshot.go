package knn

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"strconv"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/metric"
	"github.com/awojna/Rseslib-sub001/props"
	"github.com/awojna/Rseslib-sub001/store"
)

// SnapshotVersion is the version of the snapshots written by this package.
const SnapshotVersion = 1

/*
Snapshot is the learned state of a classifier: its metric with tuned weights,
the transformed training rows and the chosen parameters. Rebuilding a
classifier from a snapshot only rebuilds its index.
*/
type Snapshot struct {
	Version         int
	Header          *dataset.Header
	Metric          metric.State
	Rows            []dataset.Row
	K               int
	MaxK            int
	Voting          Voting
	Filter          bool
	Indexing        bool
	LeafSize        int
	DefaultDecision int
}

// Snapshot returns the learned state of the classifier.
func (c *Classifier) Snapshot() *Snapshot {
	return &Snapshot{
		Version:         SnapshotVersion,
		Header:          c.header,
		Metric:          c.metric.State(),
		Rows:            c.rows,
		K:               c.k,
		MaxK:            c.maxK,
		Voting:          c.voting,
		Filter:          c.filter,
		Indexing:        c.indexing,
		LeafSize:        c.leafSize,
		DefaultDecision: c.defaultDecision,
	}
}

/*
Rebuild takes a context, a snapshot and an optional logger and returns a
ready classifier equivalent to the one the snapshot was taken from.
*/
func Rebuild(ctx context.Context, s *Snapshot, logger Logger) (*Classifier, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("rebuilding classifier: unsupported snapshot version %d", s.Version)
	}
	if s.Header == nil {
		return nil, fmt.Errorf("rebuilding classifier: snapshot has no header")
	}
	if err := validateVoting(s.Voting); err != nil {
		return nil, err
	}
	if s.MaxK < 1 || s.K < 1 || s.K > s.MaxK {
		return nil, &props.ConfigurationError{Property: PropertyK, Value: strconv.Itoa(s.K), Reason: "must be between 1 and " + strconv.Itoa(s.MaxK)}
	}
	if s.DefaultDecision < 0 || s.DefaultDecision >= s.Header.NumDecisions() {
		return nil, fmt.Errorf("rebuilding classifier: default decision %d out of range", s.DefaultDecision)
	}
	m, err := metric.Restore(s.Header, s.Metric)
	if err != nil {
		return nil, fmt.Errorf("rebuilding classifier: %v", err)
	}
	c := &Classifier{
		header:          s.Header,
		metric:          m,
		transformer:     m.TransformationOutside(),
		rows:            s.Rows,
		indexing:        s.Indexing,
		leafSize:        s.LeafSize,
		defaultDecision: s.DefaultDecision,
		maxK:            s.MaxK,
		k:               s.K,
		voting:          s.Voting,
		filter:          s.Filter,
		logger:          logger,
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	width := c.transformer.TransformedHeader().Len()
	for i, r := range c.rows {
		if len(r) != width {
			return nil, fmt.Errorf("rebuilding classifier: row %d has %d values, expected %d", i, len(r), width)
		}
	}
	if err = c.buildIndex(ctx); err != nil {
		return nil, fmt.Errorf("rebuilding classifier: %w", err)
	}
	c.advance(Ready)
	return c, nil
}

// Encode writes the snapshot to w as a gob payload inside a checksummed frame.
func (s *Snapshot) Encode(w io.Writer) error {
	buf := &bytes.Buffer{}
	if err := gob.NewEncoder(buf).Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %v", err)
	}
	if err := store.WriteFrame(w, buf.Bytes()); err != nil {
		return fmt.Errorf("writing snapshot: %v", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by Encode from r.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	payload, err := store.ReadFrame(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	s := &Snapshot{}
	if err = gob.NewDecoder(bytes.NewReader(payload)).Decode(s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %v", err)
	}
	return s, nil
}

// Save encodes the classifier's snapshot and creates an entry for it in the store.
func Save(ctx context.Context, st store.Store, c *Classifier) (string, error) {
	buf := &bytes.Buffer{}
	if err := c.Snapshot().Encode(buf); err != nil {
		return "", err
	}
	return st.Create(ctx, buf.Bytes())
}

// Load rebuilds the classifier saved in the store under the given ID.
func Load(ctx context.Context, st store.Store, id string, logger Logger) (*Classifier, error) {
	data, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("loading classifier: no entry %q", id)
	}
	s, err := DecodeSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Rebuild(ctx, s, logger)
}
