package facade

import (
	"sort"

	"github.com/YuminosukeSato/espsel/dataclean"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/predictor"
)

// FeatureMapping maps canonical feature names to the column names of an
// external record source. Features without an entry use their canonical
// name as the column name.
type FeatureMapping map[string]string

// Column returns the source column of a canonical feature.
func (m FeatureMapping) Column(feature string) string {
	if c, ok := m[feature]; ok && c != "" {
		return c
	}
	return feature
}

// Columns returns the source columns of task in canonical order.
func (m FeatureMapping) Columns(task predictor.TaskName) []string {
	features := predictor.Features(task)
	cols := make([]string, len(features))
	for i, f := range features {
		cols[i] = m.Column(f)
	}
	return cols
}

// Canonicalize renames the mapped source columns of every row to their
// canonical names. Unmapped columns are kept as they are.
func (m FeatureMapping) Canonicalize(rows []map[string]any) []map[string]any {
	reverse := make(map[string]string, len(m))
	for canonical, col := range m {
		reverse[col] = canonical
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		r := make(map[string]any, len(row))
		for k, v := range row {
			if canonical, ok := reverse[k]; ok {
				k = canonical
			}
			r[k] = v
		}
		out[i] = r
	}
	return out
}

// Project builds a PredictionInput from a source record. Every canonical
// feature must be present and numeric.
func (m FeatureMapping) Project(record map[string]any) (predictor.PredictionInput, error) {
	var in predictor.PredictionInput
	var missing []string
	for _, f := range allFeatures() {
		col := m.Column(f)
		raw, ok := record[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		v, ok := dataclean.Coerce(raw)
		if !ok {
			return in, errors.NewUnconvertibleError("FeatureMapping.Project", col)
		}
		in.Set(f, v)
	}
	if len(missing) > 0 {
		return in, errors.NewMissingColumnsError("FeatureMapping.Project", missing)
	}
	return in, nil
}

// allFeatures returns the union of every task's features, sorted.
func allFeatures() []string {
	seen := map[string]bool{}
	var out []string
	for _, task := range predictor.Tasks {
		for _, f := range predictor.Features(task) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out
}
