package dataclean

import (
	"fmt"
	"sort"
	"strings"
)

// Step records the row count before and after one cleaning stage.
type Step struct {
	Name    string
	Before  int
	After   int
	Removed int
}

// Bound is the inclusive [Lower, Upper] range kept for one column.
type Bound struct {
	Lower float64
	Upper float64
}

// Report is the human readable trace of a Clean call.
type Report struct {
	Original int
	Steps    []Step
	Final    int

	// Converted counts cells that were coerced from a non-float64 type.
	Converted int
	// Unconvertible counts cells that could not be read as a number.
	Unconvertible int
	// NonFinite counts NaN and ±Inf cells treated as missing.
	NonFinite int

	// Bounds holds the outlier bounds per column when outlier removal ran.
	Bounds map[string]Bound
}

func (r *Report) addStep(name string, before, after int) {
	r.Steps = append(r.Steps, Step{Name: name, Before: before, After: after, Removed: before - after})
}

// Removed returns the total number of rows dropped by all steps.
func (r *Report) Removed() int {
	return r.Original - r.Final
}

// String renders the report one step per line.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "original rows: %d\n", r.Original)
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "%s: %d -> %d (removed %d)\n", s.Name, s.Before, s.After, s.Removed)
	}
	if r.Converted > 0 || r.Unconvertible > 0 || r.NonFinite > 0 {
		fmt.Fprintf(&b, "coerced cells: %d, unconvertible: %d, non-finite: %d\n", r.Converted, r.Unconvertible, r.NonFinite)
	}
	if len(r.Bounds) > 0 {
		cols := make([]string, 0, len(r.Bounds))
		for c := range r.Bounds {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			fmt.Fprintf(&b, "bounds %s: [%g, %g]\n", c, r.Bounds[c].Lower, r.Bounds[c].Upper)
		}
	}
	fmt.Fprintf(&b, "final rows: %d", r.Final)
	return b.String()
}
