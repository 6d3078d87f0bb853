// Package lottie decodes the subset of the Lottie (Bodymovin) JSON format
// needed to rasterize simple sticker animations.
package lottie

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a document is not a usable Lottie animation.
var ErrInvalid = errors.New("lottie: invalid animation")

// Layer types.
const (
	LayerPrecomp = 0
	LayerSolid   = 1
	LayerNull    = 3
	LayerShape   = 4
)

// Animation is the root Lottie document.
type Animation struct {
	Version   string  `json:"v"`
	Name      string  `json:"nm"`
	FrameRate float64 `json:"fr"`
	InPoint   float64 `json:"ip"`
	OutPoint  float64 `json:"op"`
	Width     float64 `json:"w"`
	Height    float64 `json:"h"`
	Layers    []Layer `json:"layers"`
}

// Layer is a single layer. Only solid and shape layers are drawn; null layers
// still take part in parenting.
type Layer struct {
	Type        int       `json:"ty"`
	Name        string    `json:"nm"`
	Index       *int      `json:"ind"`
	Parent      *int      `json:"parent"`
	Transform   Transform `json:"ks"`
	Shapes      []Shape   `json:"shapes"`
	SolidColor  string    `json:"sc"`
	SolidWidth  float64   `json:"sw"`
	SolidHeight float64   `json:"sh"`
	InPoint     float64   `json:"ip"`
	OutPoint    float64   `json:"op"`
	Hidden      bool      `json:"hd"`
}

// Transform holds the animatable transform of a layer.
type Transform struct {
	Anchor   *Property `json:"a"`
	Position *Property `json:"p"`
	Scale    *Property `json:"s"`
	Rotation *Property `json:"r"`
	Opacity  *Property `json:"o"`
}

// Shape is one item of a shape layer. The meaning of some keys depends on
// the item type: for a transform item ("tr") Size is the scale and Roundness
// is the rotation.
type Shape struct {
	Type      string        `json:"ty"`
	Name      string        `json:"nm"`
	Hidden    bool          `json:"hd"`
	Items     []Shape       `json:"it"`
	Path      *PathProperty `json:"ks"`
	Position  *Property     `json:"p"`
	Size      *Property     `json:"s"`
	Roundness *Property     `json:"r"`
	Anchor    *Property     `json:"a"`
	Color     *Property     `json:"c"`
	Opacity   *Property     `json:"o"`
	Width     *Property     `json:"w"`
}

// Values is a list of numbers that also decodes from a bare number.
type Values []float64

func (v *Values) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Values{n}
		return nil
	}
	var list []float64
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = list
	return nil
}

// Keyframe is a single keyframe of an animated property.
type Keyframe struct {
	Time  float64 `json:"t"`
	Start Values  `json:"s"`
	End   Values  `json:"e"`
	Hold  int     `json:"h"`
}

// Property is an animatable value: either a static value or a list of
// keyframes. Values that cannot be decoded are left empty so that callers
// fall back to defaults instead of rejecting the whole document.
type Property struct {
	Static    Values
	Keyframes []Keyframe
}

func (p *Property) UnmarshalJSON(data []byte) error {
	var static Values
	if err := json.Unmarshal(data, &static); err == nil {
		p.Static = static
		return nil
	}

	var raw struct {
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.K) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.K, &static); err == nil {
		p.Static = static
		return nil
	}
	var frames []Keyframe
	if err := json.Unmarshal(raw.K, &frames); err == nil {
		p.Keyframes = frames
	}
	return nil
}

func (p *Property) value(frame float64) []float64 {
	if p == nil {
		return nil
	}
	if len(p.Keyframes) == 0 {
		return p.Static
	}

	kfs := p.Keyframes
	if frame <= kfs[0].Time {
		return kfs[0].Start
	}
	for i := 0; i < len(kfs)-1; i++ {
		cur, next := kfs[i], kfs[i+1]
		if frame >= next.Time {
			continue
		}
		end := cur.End
		if len(end) == 0 {
			end = next.Start
		}
		if cur.Hold == 1 || len(end) == 0 || next.Time <= cur.Time {
			return cur.Start
		}
		return lerp(cur.Start, end, (frame-cur.Time)/(next.Time-cur.Time))
	}

	last := kfs[len(kfs)-1]
	if len(last.Start) > 0 {
		return last.Start
	}
	if len(kfs) > 1 {
		prev := kfs[len(kfs)-2]
		if len(prev.End) > 0 {
			return prev.End
		}
		return prev.Start
	}
	return nil
}

// Vec returns the value at frame, padding missing components from fallback.
func (p *Property) Vec(frame float64, fallback ...float64) []float64 {
	v := p.value(frame)
	out := make([]float64, len(fallback))
	copy(out, fallback)
	for i := range out {
		if i < len(v) {
			out[i] = v[i]
		}
	}
	return out
}

// Scalar returns the first component of the value at frame.
func (p *Property) Scalar(frame, fallback float64) float64 {
	v := p.value(frame)
	if len(v) == 0 {
		return fallback
	}
	return v[0]
}

// Color returns the value at frame as a color. Components may be given in
// the 0..1 range or the 0..255 range.
func (p *Property) Color(frame float64) (color.NRGBA, bool) {
	v := p.value(frame)
	if len(v) < 3 {
		return color.NRGBA{}, false
	}
	scale := 1.0
	for _, c := range v[:3] {
		if c > 1 {
			scale = 255
			break
		}
	}
	alpha := 1.0
	if len(v) > 3 {
		alpha = v[3] / scale
	}
	return color.NRGBA{
		R: channel(v[0] / scale),
		G: channel(v[1] / scale),
		B: channel(v[2] / scale),
		A: channel(alpha),
	}, true
}

func lerp(a, b []float64, t float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

func channel(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	}
	return uint8(f*255 + 0.5)
}

// Bezier is a cubic Bézier path. In and Out hold tangents relative to their vertex.
type Bezier struct {
	Closed   bool        `json:"c"`
	In       [][]float64 `json:"i"`
	Out      [][]float64 `json:"o"`
	Vertices [][]float64 `json:"v"`
}

type pathKeyframe struct {
	Time  float64  `json:"t"`
	Start []Bezier `json:"s"`
	End   []Bezier `json:"e"`
	Hold  int      `json:"h"`
}

// PathProperty is an animatable Bézier path.
type PathProperty struct {
	Static    *Bezier
	Keyframes []pathKeyframe
}

func (p *PathProperty) UnmarshalJSON(data []byte) error {
	var raw struct {
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.K) == 0 {
		return nil
	}
	var static Bezier
	if err := json.Unmarshal(raw.K, &static); err == nil {
		p.Static = &static
		return nil
	}
	var frames []pathKeyframe
	if err := json.Unmarshal(raw.K, &frames); err == nil {
		p.Keyframes = frames
	}
	return nil
}

// At returns the path at frame. Consecutive keyframes with the same vertex
// count are interpolated; otherwise the earlier keyframe is held.
func (p *PathProperty) At(frame float64) *Bezier {
	if p == nil {
		return nil
	}
	if len(p.Keyframes) == 0 {
		return p.Static
	}
	first := func(bs []Bezier) *Bezier {
		if len(bs) == 0 {
			return nil
		}
		return &bs[0]
	}

	kfs := p.Keyframes
	if frame <= kfs[0].Time {
		return first(kfs[0].Start)
	}
	for i := 0; i < len(kfs)-1; i++ {
		cur, next := kfs[i], kfs[i+1]
		if frame >= next.Time {
			continue
		}
		from := first(cur.Start)
		to := first(cur.End)
		if to == nil {
			to = first(next.Start)
		}
		if from == nil || to == nil || cur.Hold == 1 || next.Time <= cur.Time ||
			len(from.Vertices) != len(to.Vertices) {
			return from
		}
		return lerpBezier(from, to, (frame-cur.Time)/(next.Time-cur.Time))
	}
	if b := first(kfs[len(kfs)-1].Start); b != nil {
		return b
	}
	if len(kfs) > 1 {
		return first(kfs[len(kfs)-2].End)
	}
	return nil
}

func lerpBezier(a, b *Bezier, t float64) *Bezier {
	pts := func(x, y [][]float64) [][]float64 {
		out := make([][]float64, len(x))
		for i := range x {
			if i < len(y) {
				out[i] = lerp(x[i], y[i], t)
			} else {
				out[i] = x[i]
			}
		}
		return out
	}
	return &Bezier{
		Closed:   a.Closed,
		In:       pts(a.In, b.In),
		Out:      pts(a.Out, b.Out),
		Vertices: pts(a.Vertices, b.Vertices),
	}
}

// Parse decodes a Lottie document. A document must be a JSON object with a
// layers array to be accepted.
func Parse(doc string) (*Animation, error) {
	var anim Animation
	if err := json.Unmarshal([]byte(doc), &anim); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if anim.Layers == nil {
		return nil, fmt.Errorf("%w: missing layers", ErrInvalid)
	}
	return &anim, nil
}

// parseHex parses a solid layer color such as "#ff8800".
func parseHex(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, true
}
