package colorspace

import "math"

func pow32(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}

// RGBToLab converts a linear-light RGB triplet (D65, sRGB primaries) to
// CIE L*a*b*. Used by colorin/colorout when a module declares Lab as its
// working space; the v1 transform is the standard sRGB->XYZ->Lab chain,
// not a full ICC profile conversion.
func RGBToLab(r, g, b float32) (l, a, bb float32) {
	x := 0.4124564*r + 0.3575761*g + 0.1804375*b
	y := 0.2126729*r + 0.7151522*g + 0.0721750*b
	z := 0.0193339*r + 0.1191920*g + 0.9503041*b

	const (
		xn = 0.95047
		yn = 1.00000
		zn = 1.08883
	)
	fx := labF(x / xn)
	fy := labF(y / yn)
	fz := labF(z / zn)

	l = 116*fy - 16
	a = 500 * (fx - fy)
	bb = 200 * (fy - fz)
	return l, a, bb
}

// LabToRGB is the inverse of RGBToLab.
func LabToRGB(l, a, bb float32) (r, g, b float32) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - bb/200

	const (
		xn = 0.95047
		yn = 1.00000
		zn = 1.08883
	)
	x := xn * labFInv(fx)
	y := yn * labFInv(fy)
	z := zn * labFInv(fz)

	r = 3.2404542*x - 1.5371385*y - 0.4985314*z
	g = -0.9692660*x + 1.8760108*y + 0.0415560*z
	b = 0.0556434*x - 0.2040259*y + 1.0572252*z
	return r, g, b
}

func labF(t float32) float32 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return pow32(t, 1.0/3.0)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

func labFInv(t float32) float32 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// Transform converts a 4-channel RGBA sample between colorspace tags.
// Raw is never a valid transform endpoint: callers must demosaic first.
// Unsupported pairs fall back to a relabeling copy: the samples are
// returned unchanged (v1 has no ICC transform).
func Transform(r, g, b, a float32, from, to Tag) (float32, float32, float32, float32) {
	if from == to {
		return r, g, b, a
	}
	switch {
	case from == RGB && to == Lab:
		l, aa, bb := RGBToLab(r, g, b)
		return l, aa, bb, a
	case from == Lab && to == RGB:
		rr, gg, bbv := LabToRGB(r, g, b)
		return rr, gg, bbv, a
	default:
		return r, g, b, a
	}
}
