package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultScale(t *testing.T) *GradeScale {
	t.Helper()
	s, err := NewGradeScale(DefaultGradeBands())
	require.NoError(t, err)
	return s
}

func TestGradeScale_Boundaries(t *testing.T) {
	s := defaultScale(t)

	tests := []struct {
		composite float64
		want      Grade
	}{
		{100.0, GradeA},
		{90.0, GradeA},
		{89.999, GradeB},
		{75.0, GradeB},
		{74.999, GradeC},
		{60.0, GradeC},
		{59.999, GradeD},
		{40.0, GradeD},
		{39.999, GradeF},
		{0.0, GradeF},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, s.Assign(tc.composite), "composite %v", tc.composite)
	}
}

func TestNewGradeScale_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		bands []GradeBand
	}{
		{"empty", nil},
		{"no zero anchor", []GradeBand{{Grade: GradeA, Min: 90}, {Grade: GradeF, Min: 10}}},
		{"duplicate grade", []GradeBand{{Grade: GradeA, Min: 90}, {Grade: GradeA, Min: 0}}},
		{"duplicate minimum", []GradeBand{{Grade: GradeA, Min: 50}, {Grade: GradeB, Min: 50}, {Grade: GradeF, Min: 0}}},
		{"unknown grade", []GradeBand{{Grade: "Z", Min: 0}}},
		{"minimum above 100", []GradeBand{{Grade: GradeA, Min: 101}, {Grade: GradeF, Min: 0}}},
		{"negative minimum", []GradeBand{{Grade: GradeA, Min: -1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGradeScale(tc.bands)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestGradeScale_BandsSortedDescending(t *testing.T) {
	s, err := NewGradeScale([]GradeBand{
		{Grade: GradeF, Min: 0},
		{Grade: GradeA, Min: 90},
		{Grade: GradeC, Min: 60},
	})
	require.NoError(t, err)

	bands := s.Bands()
	require.Len(t, bands, 3)
	assert.Equal(t, GradeA, bands[0].Grade)
	assert.Equal(t, GradeC, bands[1].Grade)
	assert.Equal(t, GradeF, bands[2].Grade)
}
