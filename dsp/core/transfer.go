package core

// SoftKnee is the dB-domain compressor curve with a parabolic knee.
//
// Below thr-knee/2 the level passes unchanged, above thr+knee/2 it follows
// thr+(x-thr)*slope, and inside the knee it blends quadratically:
//
//	x + (slope-1)*(x-thr+knee/2)^2 / (2*knee)
//
// slope is 1/ratio. A knee of zero yields the hard-knee curve.
func SoftKnee[F Float](x, thr, knee, slope F) F {
	if knee <= 0 {
		if x <= thr {
			return x
		}

		return thr + (x-thr)*slope
	}

	twiceOver := 2 * (x - thr)
	if twiceOver < -knee {
		return x
	}

	if twiceOver > knee {
		return thr + (x-thr)*slope
	}

	t := x - thr + knee/2

	return x + (slope-1)*t*t/(2*knee)
}
