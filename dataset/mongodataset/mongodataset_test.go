package mongodataset

import (
	"math"
	"testing"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/feature"
	"gopkg.in/mgo.v2/bson"
)

func TestQuery(t *testing.T) {
	size := feature.NewContinuousFeature("size")
	color := feature.NewDiscreteFeature("color", []string{"red", "green"})
	q := Query([]feature.Criterion{
		feature.NewContinuousCriterion(size, 1, math.Inf(1)),
		feature.NewContinuousCriterion(size, 0, 5),
		feature.NewDiscreteCriterion(color, "red"),
	})
	if q["color"] != "red" {
		t.Errorf("expected color criterion, got %v", q["color"])
	}
	r, ok := q["size"].(bson.M)
	if !ok {
		t.Fatalf("expected range document for size, got %T", q["size"])
	}
	if r["$gte"] != 1.0 || r["$lt"] != 5.0 {
		t.Errorf("expected [1, 5) range, got %v", r)
	}
}

func TestDocument(t *testing.T) {
	h, err := dataset.NewHeader([]feature.Feature{
		feature.NewContinuousFeature("size"),
		feature.NewDiscreteFeature("class", []string{"yes", "no"}),
	}, "class")
	if err != nil {
		t.Fatalf("building header: %v", err)
	}
	doc := Document(h, dataset.Row{dataset.MissingValue(), 1})
	if _, ok := doc["size"]; ok {
		t.Errorf("expected missing size to be absent")
	}
	if doc["class"] != "no" {
		t.Errorf("expected class no, got %v", doc["class"])
	}
}
