package normalize

import (
	"math"
	"testing"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     Percentiles
		unit     string
		method   Method
	}{
		{
			name:   "all labelled percentiles",
			text:   "Cycle time 25th percentile: 3 days, median: 5 days, 75th percentile: 8 days, 90th percentile: 12 days.",
			want:   Percentiles{P25: 3, P50: 5, P75: 8, P90: 12},
			unit:   "days",
			method: MethodPercentiles,
		},
		{
			name:   "median only is synthesized",
			text:   "The median: 40 hours across respondents",
			want:   Percentiles{P25: 30, P50: 40, P75: 50, P90: 60},
			unit:   "hours",
			method: MethodMedian,
		},
		{
			name:   "fiftieth percentile counts as median",
			text:   "50th percentile: 10",
			want:   Percentiles{P25: 7.5, P50: 10, P75: 12.5, P90: 15},
			method: MethodMedian,
		},
		{
			name:   "quartiles without median",
			text:   "25th percentile: 2, 75th percentile: 6",
			want:   Percentiles{P25: 2, P50: 4, P75: 6, P90: 7.2},
			method: MethodPercentiles,
		},
		{
			name:   "thousands separators",
			text:   "median: 1,200 and 90th percentile: 2,000",
			want:   Percentiles{P25: 900, P50: 1200, P75: 1500, P90: 2000},
			method: MethodPercentiles,
		},
		{
			name:   "range fallback",
			text:   "Most teams report 10 - 20 days for onboarding",
			want:   Percentiles{P25: 12.5, P50: 15, P75: 17.5, P90: 19, Average: models.Float64(15)},
			unit:   "days",
			method: MethodRange,
		},
		{
			name:   "reversed range",
			text:   "between 20 to 10 hours",
			want:   Percentiles{P25: 12.5, P50: 15, P75: 17.5, P90: 19, Average: models.Float64(15)},
			unit:   "hours",
			method: MethodRange,
		},
		{
			name:   "range after a standard number",
			text:   "ISO 27001 - 2022 audits take 10 - 20 days",
			want:   Percentiles{P25: 12.5, P50: 15, P75: 17.5, P90: 19, Average: models.Float64(15)},
			unit:   "days",
			method: MethodRange,
		},
		{
			name:     "unitless number pair is not a range",
			text:     "Certified under ISO 27001 - 2022",
			category: "cycle_time",
			want:     Percentiles{P25: 5, P50: 10, P75: 15, P90: 20},
			unit:     "days",
			method:   MethodPlaceholder,
		},
		{
			name:   "year span is not a range",
			text:   "Survey 2019 to 2023 of finance teams",
			want:   Percentiles{P25: 25, P50: 50, P75: 75, P90: 90},
			method: MethodPlaceholder,
		},
		{
			name:     "time placeholder",
			text:     "no numbers here",
			category: "cycle_time",
			want:     Percentiles{P25: 5, P50: 10, P75: 15, P90: 20},
			unit:     "days",
			method:   MethodPlaceholder,
		},
		{
			name:     "quality placeholder",
			text:     "",
			category: "defect rate",
			want:     Percentiles{P25: 70, P50: 80, P75: 90, P90: 95},
			unit:     "%",
			method:   MethodPlaceholder,
		},
		{
			name:     "cost placeholder",
			text:     "expensive",
			category: "Cost per hire",
			want:     Percentiles{P25: 1000, P50: 5000, P75: 10000, P90: 20000},
			unit:     "USD",
			method:   MethodPlaceholder,
		},
		{
			name:   "generic placeholder",
			text:   "nothing",
			want:   Percentiles{P25: 25, P50: 50, P75: 75, P90: 90},
			method: MethodPlaceholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text, tt.category)
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.unit, got.Unit)
			assert.InDelta(t, tt.want.P25, got.Values.P25, 1e-9)
			assert.InDelta(t, tt.want.P50, got.Values.P50, 1e-9)
			assert.InDelta(t, tt.want.P75, got.Values.P75, 1e-9)
			assert.InDelta(t, tt.want.P90, got.Values.P90, 1e-9)
			if tt.want.Average == nil {
				assert.Nil(t, got.Values.Average)
			} else {
				require.NotNil(t, got.Values.Average)
				assert.InDelta(t, *tt.want.Average, *got.Values.Average, 1e-9)
			}
		})
	}
}

func TestExtractAverage(t *testing.T) {
	got := Extract("median: 8 days; average: 9.5 days", "")
	require.NotNil(t, got.Values.Average)
	assert.InDelta(t, 9.5, *got.Values.Average, 1e-9)
}

func TestNormalizeUnitHoursToDays(t *testing.T) {
	got, unit := NormalizeUnit(Percentiles{P25: 24, P50: 48, P75: 72, P90: 96}, "hours")
	assert.Equal(t, "days", unit)
	assert.Equal(t, Percentiles{P25: 1, P50: 2, P75: 3, P90: 4}, got)
}

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		name  string
		in    Percentiles
		unit  string
		want  Percentiles
		wantU string
	}{
		{"weeks", Percentiles{P25: 1, P50: 2, P75: 3, P90: 4}, "weeks", Percentiles{P25: 7, P50: 14, P75: 21, P90: 28}, "days"},
		{"minutes", Percentiles{P25: 1440, P50: 2880, P75: 4320, P90: 5760}, "min", Percentiles{P25: 1, P50: 2, P75: 3, P90: 4}, "days"},
		{"days untouched", Percentiles{P25: 1, P50: 2, P75: 3, P90: 4}, "Day", Percentiles{P25: 1, P50: 2, P75: 3, P90: 4}, "days"},
		{"percent clamped", Percentiles{P25: -5, P50: 50, P75: 99, P90: 140}, "%", Percentiles{P25: 0, P50: 50, P75: 99, P90: 100}, "%"},
		{"unknown unit kept", Percentiles{P25: 1, P50: 2, P75: 3, P90: 4}, "USD", Percentiles{P25: 1, P50: 2, P75: 3, P90: 4}, "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unit := NormalizeUnit(tt.in, tt.unit)
			assert.Equal(t, tt.wantU, unit)
			assert.InDelta(t, tt.want.P25, got.P25, 1e-9)
			assert.InDelta(t, tt.want.P50, got.P50, 1e-9)
			assert.InDelta(t, tt.want.P75, got.P75, 1e-9)
			assert.InDelta(t, tt.want.P90, got.P90, 1e-9)
		})
	}
}

func TestNormalizeUnitConvertsAverage(t *testing.T) {
	got, _ := NormalizeUnit(Percentiles{P25: 24, P50: 48, P75: 72, P90: 96, Average: models.Float64(60)}, "hours")
	require.NotNil(t, got.Average)
	assert.InDelta(t, 2.5, *got.Average, 1e-9)
}

func TestTrimOutliers(t *testing.T) {
	t.Run("well shaped input is untouched", func(t *testing.T) {
		in := Percentiles{P25: 10, P50: 20, P75: 30, P90: 40}
		assert.Equal(t, in, TrimOutliers(in))
	})

	t.Run("p90 capped relative to upper fence", func(t *testing.T) {
		// iqr = 2, upper fence = 14, cap = 16.8
		got := TrimOutliers(Percentiles{P25: 9, P50: 10, P75: 11, P90: 500})
		assert.InDelta(t, 16.8, got.P90, 1e-9)
		assert.Equal(t, 10.0, got.P50)
	})

	t.Run("median never adjusted", func(t *testing.T) {
		got := TrimOutliers(Percentiles{P25: 1, P50: 1000, P75: 2, P90: 3})
		assert.Equal(t, 1000.0, got.P50)
	})
}

func TestNormalizeResolvesInversions(t *testing.T) {
	got, _ := Normalize(Percentiles{P25: 1, P50: 1000, P75: 2, P90: 3}, "", "")
	assert.True(t, got.Ordered(), "got %+v", got)
}

func TestNormalizeNonFiniteUsesPlaceholder(t *testing.T) {
	got, unit := Normalize(Percentiles{P25: math.NaN(), P50: 1, P75: 2, P90: 3}, "days", "lead time")
	assert.Equal(t, Percentiles{P25: 5, P50: 10, P75: 15, P90: 20}, got)
	assert.Equal(t, "days", unit)
}

func TestEnsureOrdered(t *testing.T) {
	t.Run("sorts inverted values", func(t *testing.T) {
		got := EnsureOrdered(Percentiles{P25: 9, P50: 3, P75: 5, P90: 1}, "")
		assert.Equal(t, Percentiles{P25: 1, P50: 3, P75: 5, P90: 9}, got)
	})

	t.Run("all zero uses placeholder", func(t *testing.T) {
		got := EnsureOrdered(Percentiles{}, "quality score")
		assert.Equal(t, Percentiles{P25: 70, P50: 80, P75: 90, P90: 95}, got)
	})

	t.Run("infinite uses placeholder", func(t *testing.T) {
		got := EnsureOrdered(Percentiles{P25: 1, P50: math.Inf(1), P75: 2, P90: 3}, "")
		assert.Equal(t, Percentiles{P25: 25, P50: 50, P75: 75, P90: 90}, got)
	})
}

func TestFromText(t *testing.T) {
	got, unit, method := FromText("median: 48 hours", "time to approve")
	assert.Equal(t, MethodMedian, method)
	assert.Equal(t, "days", unit)
	assert.InDelta(t, 2, got.P50, 1e-9)
	assert.InDelta(t, 1.5, got.P25, 1e-9)
}

func TestNormalizeAlwaysOrdered(t *testing.T) {
	units := []string{"", "hours", "minutes", "weeks", "days", "%", "USD"}
	rapid.Check(t, func(rt *rapid.T) {
		in := Percentiles{
			P25: rapid.Float64Range(-1e6, 1e6).Draw(rt, "p25"),
			P50: rapid.Float64Range(-1e6, 1e6).Draw(rt, "p50"),
			P75: rapid.Float64Range(-1e6, 1e6).Draw(rt, "p75"),
			P90: rapid.Float64Range(-1e6, 1e6).Draw(rt, "p90"),
		}
		unit := rapid.SampledFrom(units).Draw(rt, "unit")

		got, _ := Normalize(in, unit, "")
		if !got.Ordered() {
			rt.Fatalf("Normalize(%+v, %q) = %+v, not ordered", in, unit, got)
		}
	})
}
