package semantic

// Rectangle is an axis-aligned rectangle in page coordinates, lower-left to
// upper-right.
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

func (r Rectangle) Width() float64  { return r.URX - r.LLX }
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

func (r Rectangle) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersects reports whether r and o share any area or boundary.
func (r Rectangle) Intersects(o Rectangle) bool {
	return !(o.LLX > r.URX || o.URX < r.LLX || o.LLY > r.URY || o.URY < r.LLY)
}

// Intersect returns the common area of r and o; the zero rectangle if none.
func (r Rectangle) Intersect(o Rectangle) Rectangle {
	out := Rectangle{
		LLX: max(r.LLX, o.LLX),
		LLY: max(r.LLY, o.LLY),
		URX: min(r.URX, o.URX),
		URY: min(r.URY, o.URY),
	}
	if out.LLX >= out.URX || out.LLY >= out.URY {
		return Rectangle{}
	}
	return out
}

// Contains reports whether o lies entirely inside r.
func (r Rectangle) Contains(o Rectangle) bool {
	return o.LLX >= r.LLX && o.URX <= r.URX && o.LLY >= r.LLY && o.URY <= r.URY
}

// Union returns the smallest rectangle covering both r and o.
func (r Rectangle) Union(o Rectangle) Rectangle {
	if r.Area() == 0 {
		return o
	}
	if o.Area() == 0 {
		return r
	}
	return Rectangle{
		LLX: min(r.LLX, o.LLX),
		LLY: min(r.LLY, o.LLY),
		URX: max(r.URX, o.URX),
		URY: max(r.URY, o.URY),
	}
}

// OverlapRatio returns how much of r is covered by o, in [0,1]. A zero-area
// r yields 0.
func (r Rectangle) OverlapRatio(o Rectangle) float64 {
	a := r.Area()
	if a == 0 {
		return 0
	}
	return r.Intersect(o).Area() / a
}
