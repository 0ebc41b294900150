// Package report renders simulation results as text: a per-job table
// collected from work unit status changes and a dump of the metrics
// registry.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	metrics "github.com/rcrowley/go-metrics"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/stats"
)

// Collector accumulates the work units seen by a scheduler. Register
// its Listen method as a work unit listener when building the server.
type Collector struct {
	units map[int]job.WorkUnit
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{units: make(map[int]job.WorkUnit)}
}

// Listen records the unit of every status change.
func (c *Collector) Listen(ev job.StatusChangeEvent) {
	c.units[ev.Unit.ID()] = ev.Unit
}

// Units returns the collected units sorted by id.
func (c *Collector) Units() []job.WorkUnit {
	units := make([]job.WorkUnit, 0, len(c.units))
	for _, u := range c.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, k int) bool { return units[i].ID() < units[k].ID() })
	return units
}

// WriteJobReport writes one line per collected unit: identity, the
// recorded times and the final status.
func (c *Collector) WriteJobReport(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBMIT\tSTART\tFINISH\tDURATION\tRESOURCES\tSTATUS")
	for _, u := range c.Units() {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			u.ID(), u.SubmitTime(), u.StartTime(), u.FinishTime(),
			u.Duration(), u.NumResources(), u.Status())
	}
	return tw.Flush()
}

// Summary aggregates wait time and bounded slowdown over the completed
// units.
type Summary struct {
	Completed    int
	MeanWait     float64
	MeanSlowdown float64
}

// Runtimes below the bound count as the bound when computing slowdown,
// so very short jobs do not dominate the mean.
const slowdownBound = 10

// Summarize computes the aggregate figures for the completed units.
func (c *Collector) Summarize() Summary {
	var s Summary
	var totalWait, totalSlowdown float64
	for _, u := range c.units {
		if u.Status() != job.StatusComplete {
			continue
		}
		wait := float64(u.StartTime() - u.SubmitTime())
		run := float64(u.FinishTime() - u.StartTime())
		bounded := run
		if bounded < slowdownBound {
			bounded = slowdownBound
		}
		slowdown := (wait + run) / bounded
		if slowdown < 1 {
			slowdown = 1
		}
		s.Completed++
		totalWait += wait
		totalSlowdown += slowdown
	}
	if s.Completed > 0 {
		s.MeanWait = totalWait / float64(s.Completed)
		s.MeanSlowdown = totalSlowdown / float64(s.Completed)
	}
	return s
}

// WriteSummary writes the aggregate figures for the completed units.
func (c *Collector) WriteSummary(w io.Writer) error {
	s := c.Summarize()
	_, err := fmt.Fprintf(w, "completed %d jobs, mean wait %.2f, mean bounded slowdown %.2f\n",
		s.Completed, s.MeanWait, s.MeanSlowdown)
	return err
}

// WriteMetrics dumps every metric in the receiver's registry in name
// order.
func WriteMetrics(w io.Writer, stat stats.Receiver) error {
	registry := stat.Registry()
	if registry == nil {
		return nil
	}

	type line struct {
		name string
		text string
	}
	var lines []line
	registry.Each(func(name string, metric interface{}) {
		switch m := metric.(type) {
		case metrics.Counter:
			lines = append(lines, line{name, fmt.Sprintf("%d", m.Count())})
		case metrics.Gauge:
			lines = append(lines, line{name, fmt.Sprintf("%d", m.Value())})
		case metrics.GaugeFloat64:
			lines = append(lines, line{name, fmt.Sprintf("%.4f", m.Value())})
		case metrics.Histogram:
			s := m.Snapshot()
			lines = append(lines, line{name, fmt.Sprintf(
				"count=%d min=%d max=%d mean=%.2f p95=%.2f",
				s.Count(), s.Min(), s.Max(), s.Mean(), s.Percentile(0.95))})
		}
	})
	sort.Slice(lines, func(i, k int) bool { return lines[i].name < lines[k].name })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\n", l.name, l.text)
	}
	return tw.Flush()
}
