package hybrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectIdentical(t *testing.T) {
	for _, v := range []float64{0, 42.5, -3} {
		res := Select(v, v)
		assert.Equal(t, 0.0, res.ErrorPercent)
		assert.Equal(t, MethodModel, res.SelectionMethod)
		assert.True(t, res.IsReliable)
		assert.Equal(t, v, res.SelectedValue)
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		model     float64
		empirical float64
		opts      []Option
		wantErr   float64
		want      Method
	}{
		{name: "within threshold", model: 110, empirical: 100, wantErr: 10, want: MethodModel},
		{name: "at threshold", model: 115, empirical: 100, wantErr: 15, want: MethodEmpirical},
		{name: "beyond threshold", model: 150, empirical: 100, wantErr: 50, want: MethodEmpirical},
		{name: "zero empirical uses mean", model: 10, empirical: 0, wantErr: 200, want: MethodEmpirical},
		{name: "negative reference stays positive", model: -10, empirical: 0, wantErr: 200, want: MethodEmpirical},
		{name: "custom threshold", model: 150, empirical: 100, opts: []Option{WithMaxErrorPercent(60)}, wantErr: 50, want: MethodModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Select(tt.model, tt.empirical, tt.opts...)
			assert.InDelta(t, tt.wantErr, res.ErrorPercent, 1e-9)
			assert.Equal(t, tt.want, res.SelectionMethod)
			assert.Equal(t, tt.want == MethodModel, res.IsReliable)
			if tt.want == MethodModel {
				assert.Equal(t, tt.model, res.SelectedValue)
			} else {
				assert.Equal(t, tt.empirical, res.SelectedValue)
			}
		})
	}
}
