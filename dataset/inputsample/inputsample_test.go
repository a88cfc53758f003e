package inputsample

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/awojna/Rseslib-sub001/feature"
)

type recordingRequester struct {
	requested []string
	rejected  []interface{}
}

func (r *recordingRequester) RequestValueFor(f feature.Feature) error {
	r.requested = append(r.requested, f.Name())
	return nil
}

func (r *recordingRequester) RejectValueFor(f feature.Feature, v interface{}) error {
	r.rejected = append(r.rejected, v)
	return nil
}

func TestReadSample(t *testing.T) {
	ctx := context.Background()
	size := feature.NewContinuousFeature("size")
	color := feature.NewDiscreteFeature("color", []string{"red", "green"})
	weight := feature.NewContinuousFeature("weight")
	requester := &recordingRequester{}
	s := New(strings.NewReader("big\n2.5\nblue\ngreen\n?\n"), []feature.Feature{size, color, weight}, requester, "?")

	testCases := []struct {
		f    feature.Feature
		want interface{}
	}{
		{size, 2.5},
		{color, "green"},
		{weight, nil},
		{size, 2.5},
	}
	for _, tc := range testCases {
		got, err := s.ValueFor(ctx, tc.f)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.f.Name(), err)
		}
		if got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.f.Name(), tc.want, got)
		}
	}
	if len(requester.requested) != 3 {
		t.Errorf("expected 3 requests, got %v", requester.requested)
	}
	if len(requester.rejected) != 2 {
		t.Errorf("expected 2 rejections, got %v", requester.rejected)
	}
}

func TestReadSampleEOF(t *testing.T) {
	size := feature.NewContinuousFeature("size")
	s := New(strings.NewReader("big\n"), []feature.Feature{size}, &recordingRequester{}, "?")
	_, err := s.ValueFor(context.Background(), size)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
}
