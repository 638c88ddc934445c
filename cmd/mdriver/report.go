package main

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printReport writes one row per trace and a totals row. Utilization is averaged over the
// valid traces by weight; throughput is total requests over total time.
func printReport(w io.Writer, results []*Result) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "%-20s %5s %7s %12s %12s %12s\n", "trace", "valid", "util", "ops", "secs", "Kops")

	var weightedUtil float64
	var totalWeight, totalOps, valid int
	var totalSecs float64
	for _, r := range results {
		if !r.Valid() {
			p.Fprintf(w, "%-20s %5s %7s %12d %12s %12s\n", r.Name, "no", "-", r.Ops, "-", "-")
			continue
		}

		secs := r.Elapsed.Seconds()
		p.Fprintf(w, "%-20s %5s %6.1f%% %12d %12.6f %12.0f\n",
			r.Name, "yes", 100*r.Utilization(), r.Ops, secs, r.Throughput()/1000)

		valid++
		weight := max(r.Weight, 1)
		weightedUtil += float64(weight) * r.Utilization()
		totalWeight += weight
		totalOps += r.Ops
		totalSecs += secs
	}

	if valid == 0 {
		p.Fprintf(w, "no trace replayed cleanly\n")
		return
	}

	var kops float64
	if totalSecs > 0 {
		kops = float64(totalOps) / totalSecs / 1000
	}
	p.Fprintf(w, "%-20s %5d %6.1f%% %12d %12.6f %12.0f\n",
		"Total", valid, 100*weightedUtil/float64(totalWeight), totalOps, totalSecs, kops)
}
