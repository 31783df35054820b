// plotchain creates a trace plot and a marginal histogram from a gomc
// trajectory file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func main() {
	fileName := flag.String("in", "", "trajectory file (gomc -out)")
	col := flag.Int("col", 0, "coordinate to plot")
	burn := flag.Int("burn", 0, "number of initial samples to skip")
	bins := flag.Int("bins", 50, "number of histogram bins")
	traceF := flag.String("trace", "trace.png", "trace plot file name")
	histF := flag.String("hist", "hist.png", "histogram file name")
	flag.Parse()

	if *fileName == "" {
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*fileName)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	var steps, vals []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		// skip the header
		if len(fields) < *col+3 || fields[0] == "step" {
			continue
		}
		step, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			panic(err)
		}
		v, err := strconv.ParseFloat(fields[*col+2], 64)
		if err != nil {
			panic(err)
		}
		steps = append(steps, step)
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		panic(err)
	}
	if *burn >= len(vals) {
		panic("burn-in larger than the number of samples")
	}
	steps = steps[*burn:]
	vals = vals[*burn:]

	p, err := plot.New()
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = "step"
	p.Y.Label.Text = fmt.Sprintf("x%d", *col)

	pts := make(plotter.XYs, len(vals))
	for i := range vals {
		pts[i].X = steps[i]
		pts[i].Y = vals[i]
	}
	if err := plotutil.AddLines(p, pts); err != nil {
		panic(err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, *traceF); err != nil {
		panic(err)
	}

	p, err = plot.New()
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = fmt.Sprintf("x%d", *col)

	h, err := plotter.NewHist(plotter.Values(vals), *bins)
	if err != nil {
		panic(err)
	}
	h.Normalize(1)
	p.Add(h)
	if err := p.Save(4*vg.Inch, 4*vg.Inch, *histF); err != nil {
		panic(err)
	}
}
