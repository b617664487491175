// Command dyncurve prints the static transfer curve of the dynamics
// processor and the frequency response of its detector pre-filters.
//
// Usage:
//
//	dyncurve [flags] [pre-filter ...]
//
// Without arguments it prints the static curve only. Naming pre-filters
// also prints their magnitude responses.
//
// Examples:
//
//	dyncurve
//	dyncurve -threshold -30 -ratio 8 -knee 12
//	dyncurve -rate 44100 k a c
//	dyncurve -list
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-vadyn/dsp/effects/dynamics"
	"github.com/cwbudde/algo-vadyn/dsp/filter/weighting"
	"github.com/cwbudde/algo-vadyn/measure/response"
)

type preFilterEntry struct {
	name string
	typ  weighting.Type
}

var registry = []preFilterEntry{
	{"a", weighting.TypeA},
	{"c", weighting.TypeC},
	{"k", weighting.TypeK},
	{"z", weighting.TypeZ},
}

var reportFrequencies = []float64{20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 16000, 20000}

func main() {
	rate := flag.Float64("rate", 48000, "sample rate in Hz")
	threshold := flag.Float64("threshold", -20, "threshold in dB")
	ratio := flag.Float64("ratio", 4, "compression ratio")
	knee := flag.Float64("knee", 6, "knee width in dB")
	attack := flag.Float64("attack", 1, "attack time in ms")
	release := flag.Float64("release", 100, "release time in ms")
	minDB := flag.Float64("min", -60, "lowest input level in dB")
	maxDB := flag.Float64("max", 0, "highest input level in dB")
	step := flag.Float64("step", 5, "input level step in dB")
	settle := flag.Duration("settle", 0, "settling time per level (default 20 attack times)")
	fftSize := flag.Int("fft", 8192, "FFT size for pre-filter responses")
	list := flag.Bool("list", false, "list available pre-filter names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dyncurve [flags] [pre-filter ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the static transfer curve of the dynamics processor and\n")
		fmt.Fprintf(os.Stderr, "the magnitude response of the named detector pre-filters.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dyncurve -threshold -30 -ratio 8 -knee 12\n")
		fmt.Fprintf(os.Stderr, "  dyncurve -rate 44100 k a c\n")
		fmt.Fprintf(os.Stderr, "  dyncurve -list\n")
	}
	flag.Parse()

	if *list {
		printList()
		return
	}

	if *step <= 0 || *minDB > *maxDB {
		fmt.Fprintf(os.Stderr, "error: need step > 0 and min <= max\n")
		os.Exit(2)
	}

	proc, err := dynamics.NewProcessor[float64](
		dynamics.WithThreshold(*threshold),
		dynamics.WithRatio(*ratio),
		dynamics.WithKnee(*knee),
		dynamics.WithAttack(*attack),
		dynamics.WithRelease(*release),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := proc.Prepare(*rate, 1, 512); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	settleSamples := int(20 * *attack * *rate / 1000)
	if *settle > 0 {
		settleSamples = int(settle.Seconds() * *rate)
	}

	curve, err := response.StaticCurve(proc, inputLevels(*minDB, *maxDB, *step), max(settleSamples, 1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	printCurve(curve)

	entries := resolveEntries(flag.Args())
	if len(entries) > 0 {
		fmt.Println()
		printResponses(entries, *rate, *fftSize)
	}
}

// inputLevels returns lo, lo+step, ... up to and including hi.
func inputLevels(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = lo + float64(i)*step
	}
	return levels
}

func printList() {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
}

func resolveEntries(names []string) []preFilterEntry {
	byName := make(map[string]preFilterEntry, len(registry))
	for _, e := range registry {
		byName[e.name] = e
	}

	var result []preFilterEntry
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		e, ok := byName[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "warning: unknown pre-filter %q (use -list to see available)\n", name)
			continue
		}
		result = append(result, e)
	}
	return result
}

func printCurve(curve []response.Point) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Input [dB]\tOutput [dB]\tGain [dB]\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "----------\t-----------\t---------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, p := range curve {
		if _, err := fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\n", p.InputDB, p.OutputDB, p.OutputDB-p.InputDB); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printResponses(entries []preFilterEntry, rate float64, fftSize int) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	header := "Freq [Hz]"
	for _, e := range entries {
		header += "\t" + strings.ToUpper(e.name) + " [dB]"
	}
	if _, err := fmt.Fprintln(tw, header); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	mags := make([][]float64, len(entries))
	for i, e := range entries {
		bank, err := weighting.New[float64](e.typ, rate, 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", e.name, err)
			return
		}

		mags[i], err = response.Magnitude(bank.ImpulseResponse(fftSize), fftSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", e.name, err)
			return
		}
	}

	for _, f := range reportFrequencies {
		if f >= rate/2 {
			continue
		}

		k := int(math.Round(f * float64(fftSize) / rate))
		row := fmt.Sprintf("%.0f", response.BinFrequency(k, fftSize, rate))
		for _, m := range mags {
			row += fmt.Sprintf("\t%.2f", m[k])
		}
		if _, err := fmt.Fprintln(tw, row); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
