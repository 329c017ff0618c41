package timeline

// Transform is a 2D affine transform with the same component layout as a
// CoreGraphics affine matrix:
//
//	| a  b  0 |
//	| c  d  0 |
//	| tx ty 1 |
type Transform struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	Tx float64 `json:"tx"`
	Ty float64 `json:"ty"`
}

// Identity is the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Lerp blends each of the six affine parameters independently. This is not
// a decomposed rotation/scale interpolation: large rotations shrink through
// the midpoint.
func Lerp(x, y Transform, f float64) Transform {
	l := func(a, b float64) float64 { return a + (b-a)*f }
	return Transform{
		A:  l(x.A, y.A),
		B:  l(x.B, y.B),
		C:  l(x.C, y.C),
		D:  l(x.D, y.D),
		Tx: l(x.Tx, y.Tx),
		Ty: l(x.Ty, y.Ty),
	}
}

// Apply maps the point (x, y) through the transform.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.C*y + t.Tx, t.B*x + t.D*y + t.Ty
}
