package lottie

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// maxParentDepth bounds parent chains so that cyclic documents still render.
const maxParentDepth = 16

type style struct {
	stroke  bool
	color   color.NRGBA
	opacity float64
	width   float64
}

type renderer struct {
	dc      *gg.Context
	anim    *Animation
	frame   float64
	byIndex map[int]*Layer
}

// RenderFrame draws frame of anim onto dc, scaled to fill the canvas, over a
// white background. The returned image is backed by dc and is only valid
// until dc is drawn on again.
func RenderFrame(dc *gg.Context, anim *Animation, frame float64) image.Image {
	dc.Identity()
	dc.ResetClip()
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	w, h := anim.Width, anim.Height
	if w <= 0 {
		w = DefaultDimension
	}
	if h <= 0 {
		h = DefaultDimension
	}
	dc.Scale(float64(dc.Width())/w, float64(dc.Height())/h)

	r := &renderer{dc: dc, anim: anim, frame: frame, byIndex: make(map[int]*Layer)}
	for i := range anim.Layers {
		if l := &anim.Layers[i]; l.Index != nil {
			r.byIndex[*l.Index] = l
		}
	}

	// The first layer in the document is the top-most one.
	for i := len(anim.Layers) - 1; i >= 0; i-- {
		r.drawLayer(&anim.Layers[i])
	}
	return dc.Image()
}

func (r *renderer) visible(l *Layer) bool {
	if l.Hidden {
		return false
	}
	if l.OutPoint > l.InPoint && (r.frame < l.InPoint || r.frame >= l.OutPoint) {
		return false
	}
	return true
}

func (r *renderer) drawLayer(l *Layer) {
	if !r.visible(l) || (l.Type != LayerSolid && l.Type != LayerShape) {
		return
	}

	r.dc.Push()
	defer r.dc.Pop()

	r.applyParents(l, 0)
	opacity := r.applyTransform(l.Transform.Anchor, l.Transform.Position,
		l.Transform.Scale, l.Transform.Rotation, l.Transform.Opacity)
	if opacity <= 0 {
		return
	}

	switch l.Type {
	case LayerSolid:
		c, ok := parseHex(l.SolidColor)
		if !ok {
			return
		}
		r.setColor(c, opacity)
		r.dc.DrawRectangle(0, 0, l.SolidWidth, l.SolidHeight)
		r.dc.Fill()
	case LayerShape:
		r.drawItems(l.Shapes, nil, opacity)
	}
}

// applyParents applies the transforms of l's ancestors, outermost first.
func (r *renderer) applyParents(l *Layer, depth int) {
	if l.Parent == nil || depth >= maxParentDepth {
		return
	}
	parent, ok := r.byIndex[*l.Parent]
	if !ok || parent == l {
		return
	}
	r.applyParents(parent, depth+1)
	t := parent.Transform
	// Parent opacity does not cascade to children in Lottie.
	r.applyTransform(t.Anchor, t.Position, t.Scale, t.Rotation, nil)
}

// applyTransform applies an anchor/position/scale/rotation transform to the
// current matrix and returns the opacity as a fraction.
func (r *renderer) applyTransform(anchor, position, scale, rotation, opacity *Property) float64 {
	p := position.Vec(r.frame, 0, 0)
	a := anchor.Vec(r.frame, 0, 0)
	s := scale.Vec(r.frame, 100, 100)
	rot := rotation.Scalar(r.frame, 0)

	r.dc.Translate(p[0], p[1])
	if rot != 0 {
		r.dc.Rotate(gg.Radians(rot))
	}
	r.dc.Scale(s[0]/100, s[1]/100)
	r.dc.Translate(-a[0], -a[1])

	return opacity.Scalar(r.frame, 100) / 100
}

// drawItems draws the items of a shape list. Styles declared in a group
// apply to its geometry and to that of nested groups.
func (r *renderer) drawItems(items []Shape, inherited []style, opacity float64) {
	var styles []style
	for i := range items {
		it := &items[i]
		if it.Hidden {
			continue
		}
		switch it.Type {
		case "fl", "st":
			c, ok := it.Color.Color(r.frame)
			if !ok {
				continue
			}
			styles = append(styles, style{
				stroke:  it.Type == "st",
				color:   c,
				opacity: it.Opacity.Scalar(r.frame, 100) / 100,
				width:   it.Width.Scalar(r.frame, 1),
			})
		}
	}
	styles = append(styles, inherited...)

	// Items listed first are drawn on top.
	for i := len(items) - 1; i >= 0; i-- {
		it := &items[i]
		if it.Hidden {
			continue
		}
		switch it.Type {
		case "gr":
			r.drawGroup(it, styles, opacity)
		case "el", "rc", "sh":
			// Styles listed first paint on top as well.
			for j := len(styles) - 1; j >= 0; j-- {
				if !r.tracePath(it) {
					break
				}
				r.paint(styles[j], opacity)
			}
		}
	}
}

func (r *renderer) drawGroup(g *Shape, inherited []style, opacity float64) {
	r.dc.Push()
	defer r.dc.Pop()

	for i := range g.Items {
		if tr := &g.Items[i]; tr.Type == "tr" {
			opacity *= r.applyTransform(tr.Anchor, tr.Position, tr.Size, tr.Roundness, tr.Opacity)
			break
		}
	}
	if opacity <= 0 {
		return
	}
	r.drawItems(g.Items, inherited, opacity)
}

// tracePath adds the outline of a geometry item to the current path.
func (r *renderer) tracePath(it *Shape) bool {
	r.dc.ClearPath()
	switch it.Type {
	case "el":
		p := it.Position.Vec(r.frame, 0, 0)
		s := it.Size.Vec(r.frame, 0, 0)
		if s[0] <= 0 || s[1] <= 0 {
			return false
		}
		r.dc.DrawEllipse(p[0], p[1], s[0]/2, s[1]/2)
	case "rc":
		p := it.Position.Vec(r.frame, 0, 0)
		s := it.Size.Vec(r.frame, 0, 0)
		if s[0] <= 0 || s[1] <= 0 {
			return false
		}
		round := it.Roundness.Scalar(r.frame, 0)
		x, y := p[0]-s[0]/2, p[1]-s[1]/2
		if round > 0 {
			r.dc.DrawRoundedRectangle(x, y, s[0], s[1], round)
		} else {
			r.dc.DrawRectangle(x, y, s[0], s[1])
		}
	case "sh":
		b := it.Path.At(r.frame)
		if b == nil || len(b.Vertices) == 0 {
			return false
		}
		traceBezier(r.dc, b)
	default:
		return false
	}
	return true
}

func traceBezier(dc *gg.Context, b *Bezier) {
	pt := func(list [][]float64, i int) (float64, float64) {
		if i < len(list) && len(list[i]) >= 2 {
			return list[i][0], list[i][1]
		}
		return 0, 0
	}

	n := len(b.Vertices)
	x0, y0 := pt(b.Vertices, 0)
	dc.MoveTo(x0, y0)
	segment := func(from, to int) {
		fx, fy := pt(b.Vertices, from)
		ox, oy := pt(b.Out, from)
		tx, ty := pt(b.Vertices, to)
		ix, iy := pt(b.In, to)
		dc.CubicTo(fx+ox, fy+oy, tx+ix, ty+iy, tx, ty)
	}
	for i := 1; i < n; i++ {
		segment(i-1, i)
	}
	if b.Closed && n > 1 {
		segment(n-1, 0)
		dc.ClosePath()
	}
}

func (r *renderer) paint(st style, opacity float64) {
	r.setColor(st.color, st.opacity*opacity)
	if st.stroke {
		r.dc.SetLineWidth(st.width)
		r.dc.Stroke()
		return
	}
	r.dc.Fill()
}

func (r *renderer) setColor(c color.NRGBA, opacity float64) {
	r.dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(float64(c.A)*clamp01(opacity)))
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
