package metric

import (
	"math"
	"strconv"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/tidwall/btree"
	"gonum.org/v1/gonum/floats"
)

/*
valueCoder encodes the values of one conditional attribute into a block of
coordinates of a transformed row and measures the distance between blocks.
A block whose first coordinate is NaN encodes a missing value.
*/
type valueCoder interface {
	width() int
	encode(v float64, dst []float64)
	distance(a, b []float64) float64
	maxDistance() float64
	ordered() bool
	state() AttributeState
}

const (
	rangeKind        = "range"
	hammingKind      = "hamming"
	vdmKind          = "vdm"
	vicinityKind     = "vicinity"
	interpolatedKind = "interpolated"
)

// rangeCoder maps numeric values to their offset from the training minimum
// in units of the training range. Distances are clamped at 1.
type rangeCoder struct {
	min, scale float64
}

func newRangeCoder(values []float64) *rangeCoder {
	if len(values) == 0 {
		return &rangeCoder{0, 1}
	}
	min, max := floats.Min(values), floats.Max(values)
	scale := max - min
	if scale == 0 {
		scale = 1
	}
	return &rangeCoder{min, scale}
}

func (c *rangeCoder) width() int { return 1 }

func (c *rangeCoder) encode(v float64, dst []float64) {
	if dataset.Missing(v) {
		dst[0] = v
		return
	}
	dst[0] = (v - c.min) / c.scale
}

func (c *rangeCoder) distance(a, b []float64) float64 {
	return math.Min(math.Abs(a[0]-b[0]), 1)
}

func (c *rangeCoder) maxDistance() float64 { return 1 }

func (c *rangeCoder) ordered() bool { return true }

func (c *rangeCoder) state() AttributeState {
	return AttributeState{Kind: rangeKind, Min: c.min, Scale: c.scale}
}

// hammingCoder keeps nominal codes: equal codes are at distance 0, others at 1.
type hammingCoder struct{}

func (hammingCoder) width() int { return 1 }

func (hammingCoder) encode(v float64, dst []float64) { dst[0] = v }

func (hammingCoder) distance(a, b []float64) float64 {
	if a[0] == b[0] {
		return 0
	}
	return 1
}

func (hammingCoder) maxDistance() float64 { return 1 }

func (hammingCoder) ordered() bool { return false }

func (hammingCoder) state() AttributeState {
	return AttributeState{Kind: hammingKind}
}

/*
vdmCoder maps nominal codes to the decision distribution observed with the
value in training. Values never observed with a decision take the prior
distribution of decisions.
*/
type vdmCoder struct {
	distributions [][]float64
	prior         []float64
}

func newVDMCoder(counts [][]float64, prior []float64) *vdmCoder {
	distributions := make([][]float64, len(counts))
	for code, c := range counts {
		if total := floats.Sum(c); total > 0 {
			distributions[code] = make([]float64, len(c))
			floats.ScaleTo(distributions[code], 1/total, c)
		}
	}
	return &vdmCoder{distributions, prior}
}

func (c *vdmCoder) width() int { return len(c.prior) }

func (c *vdmCoder) encode(v float64, dst []float64) {
	if dataset.Missing(v) {
		fillMissing(dst)
		return
	}
	code := int(v)
	if code >= 0 && code < len(c.distributions) && len(c.distributions[code]) > 0 {
		copy(dst, c.distributions[code])
		return
	}
	copy(dst, c.prior)
}

func (c *vdmCoder) distance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

func (c *vdmCoder) maxDistance() float64 { return 2 }

func (c *vdmCoder) ordered() bool { return false }

func (c *vdmCoder) state() AttributeState {
	return AttributeState{Kind: vdmKind, Distributions: c.distributions, Prior: c.prior}
}

type vicinityItem struct {
	value    float64
	seq      int
	decision int
}

func vicinityItemLess(a, b vicinityItem) bool {
	if a.value != b.value {
		return a.value < b.value
	}
	return a.seq < b.seq
}

/*
vicinityCoder maps numeric values to the decision distribution of the size
training values nearest to them. Training values are kept in a B-tree ordered
by value, so the vicinity is gathered walking both ways from the value.
*/
type vicinityCoder struct {
	tree      *btree.BTreeG[vicinityItem]
	size      int
	decisions int
	values    []float64
	labels    []int
}

func newVicinityCoder(values []float64, labels []int, size, decisions int) *vicinityCoder {
	tree := btree.NewBTreeG[vicinityItem](vicinityItemLess)
	for i, v := range values {
		tree.Set(vicinityItem{v, i, labels[i]})
	}
	return &vicinityCoder{tree, size, decisions, values, labels}
}

func (c *vicinityCoder) width() int { return c.decisions }

func (c *vicinityCoder) encode(v float64, dst []float64) {
	if dataset.Missing(v) {
		fillMissing(dst)
		return
	}
	for i := range dst {
		dst[i] = 0
	}
	if c.tree.Len() == 0 {
		for i := range dst {
			dst[i] = 1 / float64(len(dst))
		}
		return
	}
	pivot := vicinityItem{value: v, seq: -1}
	var above, below []vicinityItem
	c.tree.Ascend(pivot, func(item vicinityItem) bool {
		above = append(above, item)
		return len(above) < c.size
	})
	c.tree.Descend(pivot, func(item vicinityItem) bool {
		below = append(below, item)
		return len(below) < c.size
	})
	n := 0
	for i, j := 0, 0; n < c.size && (i < len(above) || j < len(below)); n++ {
		if j >= len(below) || (i < len(above) && above[i].value-v <= v-below[j].value) {
			dst[above[i].decision]++
			i++
		} else {
			dst[below[j].decision]++
			j++
		}
	}
	floats.Scale(1/float64(n), dst)
}

func (c *vicinityCoder) distance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

func (c *vicinityCoder) maxDistance() float64 { return 2 }

func (c *vicinityCoder) ordered() bool { return false }

func (c *vicinityCoder) state() AttributeState {
	return AttributeState{Kind: vicinityKind, Values: c.values, Labels: c.labels, Vicinity: c.size, Decisions: c.decisions}
}

/*
interpolatedCoder splits the training range of a numeric attribute into
equal-width intervals, estimates the decision distribution of each interval
and maps a value to the linear interpolation of the distributions at the
midpoints of the two intervals around it.
*/
type interpolatedCoder struct {
	min, step     float64
	distributions [][]float64
}

func newInterpolatedCoder(values []float64, labels []int, intervals int, prior []float64) *interpolatedCoder {
	min, width := 0.0, 1.0
	if len(values) > 0 {
		min = floats.Min(values)
		if r := floats.Max(values) - min; r > 0 {
			width = r / float64(intervals)
		} else {
			intervals = 1
		}
	}
	counts := make([][]float64, intervals)
	for i := range counts {
		counts[i] = make([]float64, len(prior))
	}
	for i, v := range values {
		b := int((v - min) / width)
		if b >= intervals {
			b = intervals - 1
		}
		counts[b][labels[i]]++
	}
	distributions := make([][]float64, intervals)
	for i, c := range counts {
		distributions[i] = make([]float64, len(prior))
		if total := floats.Sum(c); total > 0 {
			floats.ScaleTo(distributions[i], 1/total, c)
		} else {
			copy(distributions[i], prior)
		}
	}
	return &interpolatedCoder{min, width, distributions}
}

func (c *interpolatedCoder) width() int { return len(c.distributions[0]) }

func (c *interpolatedCoder) encode(v float64, dst []float64) {
	if dataset.Missing(v) {
		fillMissing(dst)
		return
	}
	last := len(c.distributions) - 1
	u := (v-c.min)/c.step - 0.5
	switch {
	case u <= 0:
		copy(dst, c.distributions[0])
	case u >= float64(last):
		copy(dst, c.distributions[last])
	default:
		i := int(u)
		f := u - float64(i)
		floats.ScaleTo(dst, 1-f, c.distributions[i])
		floats.AddScaled(dst, f, c.distributions[i+1])
	}
}

func (c *interpolatedCoder) distance(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

func (c *interpolatedCoder) maxDistance() float64 { return 2 }

func (c *interpolatedCoder) ordered() bool { return false }

func (c *interpolatedCoder) state() AttributeState {
	return AttributeState{Kind: interpolatedKind, Min: c.min, Scale: c.step, Distributions: c.distributions}
}

func fillMissing(dst []float64) {
	for i := range dst {
		dst[i] = dataset.MissingValue()
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}
