/*
Package mongodataset provides a table source and sink that uses a MongoDB
database as backend. Every row is a document of the objects collection with
one field per attribute; missing values are absent fields.
*/
package mongodataset

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Set is a MongoDB collection of rows for a header to which rows can be added
and from which rows can be sequentially read. Its SubsetWith method narrows
the rows read to those satisfying a criterion, evaluated by the database.
*/
type Set interface {
	Header() *dataset.Header
	Write(context.Context, []dataset.Row) (int, error)
	Read(context.Context) (<-chan dataset.Row, <-chan error)
	Table(context.Context) (dataset.Table, error)
	SubsetWith(context.Context, feature.Criterion) (Set, error)
	Count(context.Context) (int, error)
}

type mongoSet struct {
	session  *mgo.Session
	header   *dataset.Header
	criteria []feature.Criterion
}

const (
	objectsCollectionName = "objects"
)

/*
Open takes a MongoDB database session and a header and returns a Set that
works on the default database for that session or an error if it fails to
ensure the indexes for the attributes.
*/
func Open(ctx context.Context, session *mgo.Session, header *dataset.Header) (Set, error) {
	ms := &mongoSet{session, header, nil}
	err := ms.ensureIndexes()
	if err != nil {
		return nil, err
	}
	return ms, nil
}

func (ms *mongoSet) Header() *dataset.Header {
	return ms.header
}

func (ms *mongoSet) SubsetWith(ctx context.Context, fc feature.Criterion) (Set, error) {
	return &mongoSet{ms.session, ms.header, append([]feature.Criterion{fc}, ms.criteria...)}, nil
}

func (ms *mongoSet) Count(context.Context) (int, error) {
	return ms.query().Count()
}

func (ms *mongoSet) Table(ctx context.Context) (dataset.Table, error) {
	var rows []dataset.Row
	count, err := ms.Count(ctx)
	if err == nil {
		rows = make([]dataset.Row, 0, count)
	}
	rowChan, errs := ms.Read(ctx)
	for r := range rowChan {
		rows = append(rows, r)
	}
	if err = <-errs; err != nil {
		return nil, err
	}
	return dataset.New(ms.header, rows), nil
}

func (ms *mongoSet) Write(ctx context.Context, rows []dataset.Row) (int, error) {
	docs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, Document(ms.header, r))
	}
	if len(docs) == 0 {
		return 0, nil
	}
	err := ms.objectsCollection().Insert(docs...)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (ms *mongoSet) Read(ctx context.Context) (<-chan dataset.Row, <-chan error) {
	rows := make(chan dataset.Row)
	errs := make(chan error, 1)
	go func() {
		defer close(rows)
		defer close(errs)
		var doc bson.M
		var err error
		iter := ms.query().Iter()
		defer iter.Close()
	loop:
		for iter.Next(&doc) {
			var r dataset.Row
			r, err = ms.header.Encode(ctx, dataset.NewSample(doc))
			if err != nil {
				err = fmt.Errorf("decoding document: %v", err)
				break
			}
			doc = nil
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break loop
			case rows <- r:
			}
		}
		if err == nil {
			err = iter.Err()
		}
		if err != nil {
			errs <- err
		}
	}()
	return rows, errs
}

/*
Document returns the bson document storing the given row: one field per
attribute with a value, float64 for numeric attributes and string for nominal
ones.
*/
func Document(header *dataset.Header, r dataset.Row) bson.M {
	doc := make(bson.M)
	for i, a := range header.Attributes {
		if v := header.DecodeValue(i, r[i]); v != nil {
			doc[a.Name] = v
		}
	}
	return doc
}

func (ms *mongoSet) ensureIndexes() error {
	for _, a := range ms.header.Attributes {
		if a.Name == "_id" {
			return fmt.Errorf("invalid attribute name %q: reserved collection field", "_id")
		}
		if strings.ContainsAny(a.Name, ".$") {
			return fmt.Errorf("invalid attribute name %q: contains reserved characters %q or %q", a.Name, ".", "$")
		}
		index := mgo.Index{
			Key:        []string{a.Name},
			Background: true,
			Sparse:     true,
		}
		err := ms.objectsCollection().EnsureIndex(index)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ms *mongoSet) objectsCollection() *mgo.Collection {
	return ms.session.DB("").C(objectsCollectionName)
}

func (ms *mongoSet) query() *mgo.Query {
	return ms.objectsCollection().Find(Query(ms.criteria))
}

/*
Query translates a conjunction of criteria into a MongoDB query document.
Several continuous criteria on the same feature are intersected.
*/
func Query(criteria []feature.Criterion) bson.M {
	mongoQuery := make(bson.M)
	for _, fc := range criteria {
		fName := fc.Feature().Name()
		switch qfc := fc.(type) {
		case feature.DiscreteCriterion:
			mongoQuery[fName] = qfc.Value()
		case feature.ContinuousCriterion:
			a, b := qfc.Interval()
			rangeValue, _ := mongoQuery[fName].(bson.M)
			if rangeValue == nil {
				rangeValue = make(bson.M)
			}
			if !math.IsInf(a, 0) {
				v, ok := rangeValue["$gte"].(float64)
				if !ok || v < a {
					rangeValue["$gte"] = a
				}
			}
			if !math.IsInf(b, 0) {
				v, ok := rangeValue["$lt"].(float64)
				if !ok || v > b {
					rangeValue["$lt"] = b
				}
			}
			mongoQuery[fName] = rangeValue
		}
	}
	return mongoQuery
}
