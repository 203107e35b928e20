package terrain

import "math"

// resampleBilinear resamples src (rows x cols) to outRows x outCols using
// bilinear interpolation, independently scaling each axis — the search's
// default resampling kind.
func resampleBilinear(src [][]float64, outRows, outCols int) [][]float64 {
	inRows := len(src)
	inCols := 0
	if inRows > 0 {
		inCols = len(src[0])
	}
	out := make([][]float64, outRows)
	for r := 0; r < outRows; r++ {
		out[r] = make([]float64, outCols)
		sr := mapCoord(r, outRows, inRows)
		r0 := int(math.Floor(sr))
		r1 := clampInt(r0+1, 0, inRows-1)
		r0 = clampInt(r0, 0, inRows-1)
		fr := sr - float64(r0)

		for c := 0; c < outCols; c++ {
			sc := mapCoord(c, outCols, inCols)
			c0 := int(math.Floor(sc))
			c1 := clampInt(c0+1, 0, inCols-1)
			c0 = clampInt(c0, 0, inCols-1)
			fc := sc - float64(c0)

			top := lerp(src[r0][c0], src[r0][c1], fc)
			bottom := lerp(src[r1][c0], src[r1][c1], fc)
			out[r][c] = lerp(top, bottom, fr)
		}
	}
	return out
}

// resampleBicubic resamples using cubic convolution (Catmull-Rom), offered
// as a higher-quality alternative for downstream rendering consumers; the
// search engine itself always uses resampleBilinear.
func resampleBicubic(src [][]float64, outRows, outCols int) [][]float64 {
	inRows := len(src)
	inCols := 0
	if inRows > 0 {
		inCols = len(src[0])
	}
	out := make([][]float64, outRows)
	for r := 0; r < outRows; r++ {
		out[r] = make([]float64, outCols)
		sr := mapCoord(r, outRows, inRows)
		ri := int(math.Floor(sr))
		fr := sr - float64(ri)

		for c := 0; c < outCols; c++ {
			sc := mapCoord(c, outCols, inCols)
			ci := int(math.Floor(sc))
			fc := sc - float64(ci)

			var rows [4]float64
			for i := -1; i <= 2; i++ {
				var samples [4]float64
				for j := -1; j <= 2; j++ {
					samples[j+1] = src[clampInt(ri+i, 0, inRows-1)][clampInt(ci+j, 0, inCols-1)]
				}
				rows[i+1] = cubicInterp(samples, fc)
			}
			out[r][c] = cubicInterp(rows, fr)
		}
	}
	return out
}

// cubicInterp applies Catmull-Rom cubic convolution over 4 evenly-spaced
// samples p[0..3] (centered between p[1] and p[2]) at fractional offset t.
func cubicInterp(p [4]float64, t float64) float64 {
	return p[1] + 0.5*t*(p[2]-p[0]+t*(2*p[0]-5*p[1]+4*p[2]-p[3]+t*(3*(p[1]-p[2])+p[3]-p[0])))
}

// mapCoord maps an output index in [0,outN) to a continuous source
// coordinate in [0,inN), preserving the endpoints.
func mapCoord(i, outN, inN int) float64 {
	if outN <= 1 || inN <= 1 {
		return 0
	}
	return float64(i) * float64(inN-1) / float64(outN-1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
