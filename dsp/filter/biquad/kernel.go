package biquad

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/cwbudde/algo-vadyn/dsp/core"
)

// sectionKernel filters buf in place through one Direct Form I section.
// st holds the section history as [x1, x2, y1, y2] and is updated.
type sectionKernel func(c Coefficients, st, buf []float64)

type kernelEntry struct {
	name    string
	level   cpu.SIMDLevel
	process sectionKernel
}

// kernels is ordered by preference; the last entry is always supported.
var kernels = []kernelEntry{
	{name: "unrolled4", level: cpu.SIMDAVX2, process: processSectionUnrolled4},
	{name: "unrolled4", level: cpu.SIMDNEON, process: processSectionUnrolled4},
	{name: "unrolled2", level: cpu.SIMDSSE2, process: processSectionUnrolled2},
	{name: "generic", level: cpu.SIMDNone, process: processSectionScalar},
}

var (
	kernelOnce sync.Once
	kernel     kernelEntry
)

func selectKernel(features cpu.Features) kernelEntry {
	for _, k := range kernels {
		if cpu.Supports(features, k.level) {
			return k
		}
	}

	return kernels[len(kernels)-1]
}

func blockKernel() sectionKernel {
	kernelOnce.Do(func() {
		kernel = selectKernel(cpu.DetectFeatures())
	})

	return kernel.process
}

func processSectionScalar(c Coefficients, st, buf []float64) {
	x1, x2, y1, y2 := st[0], st[1], st[2], st[3]

	for i, x := range buf {
		y := c.B0*x + c.B1*x1 + c.B2*x2 - c.A1*y1 - c.A2*y2
		x2, x1 = x1, x
		y2, y1 = y1, core.FlushDenormals(y)
		buf[i] = y
	}

	st[0], st[1], st[2], st[3] = x1, x2, y1, y2
}

func processSectionUnrolled2(c Coefficients, st, buf []float64) {
	b0, b1, b2, a1, a2 := c.B0, c.B1, c.B2, c.A1, c.A2
	x1, x2, y1, y2 := st[0], st[1], st[2], st[3]

	n := len(buf) &^ 1
	for i := 0; i < n; i += 2 {
		xa := buf[i]
		ya := b0*xa + b1*x1 + b2*x2 - a1*y1 - a2*y2
		fa := core.FlushDenormals(ya)

		xb := buf[i+1]
		yb := b0*xb + b1*xa + b2*x1 - a1*fa - a2*y1

		buf[i] = ya
		buf[i+1] = yb

		x2, x1 = xa, xb
		y2, y1 = fa, core.FlushDenormals(yb)
	}

	st[0], st[1], st[2], st[3] = x1, x2, y1, y2

	processSectionScalar(c, st, buf[n:])
}

func processSectionUnrolled4(c Coefficients, st, buf []float64) {
	b0, b1, b2, a1, a2 := c.B0, c.B1, c.B2, c.A1, c.A2
	x1, x2, y1, y2 := st[0], st[1], st[2], st[3]

	n := len(buf) &^ 3
	for i := 0; i < n; i += 4 {
		xa := buf[i]
		ya := b0*xa + b1*x1 + b2*x2 - a1*y1 - a2*y2
		fa := core.FlushDenormals(ya)

		xb := buf[i+1]
		yb := b0*xb + b1*xa + b2*x1 - a1*fa - a2*y1
		fb := core.FlushDenormals(yb)

		xc := buf[i+2]
		yc := b0*xc + b1*xb + b2*xa - a1*fb - a2*fa
		fc := core.FlushDenormals(yc)

		xd := buf[i+3]
		yd := b0*xd + b1*xc + b2*xb - a1*fc - a2*fb

		buf[i] = ya
		buf[i+1] = yb
		buf[i+2] = yc
		buf[i+3] = yd

		x2, x1 = xc, xd
		y2, y1 = fc, core.FlushDenormals(yd)
	}

	st[0], st[1], st[2], st[3] = x1, x2, y1, y2

	processSectionScalar(c, st, buf[n:])
}
