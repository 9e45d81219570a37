package normalize

import (
	"math"
	"slices"
	"strings"

	"github.com/raphaelgruber/procwise/internal/models"
)

// Canonical units produced by normalization.
const (
	UnitDays    = "days"
	UnitPercent = "%"
)

func canonicalUnit(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "":
		return ""
	case "h", "hr", "hrs", "hour", "hours":
		return "hours"
	case "min", "mins", "minute", "minutes":
		return "minutes"
	case "d", "day", "days":
		return UnitDays
	case "w", "wk", "wks", "week", "weeks":
		return "weeks"
	case "%", "percent", "percentage":
		return UnitPercent
	default:
		return strings.ToLower(strings.TrimSpace(u))
	}
}

// NormalizeUnit converts time units to days and clamps percentages into
// [0, 100]. Unknown units are returned unchanged.
func NormalizeUnit(values Percentiles, unit string) (Percentiles, string) {
	switch canonicalUnit(unit) {
	case "hours":
		return scale(values, func(v float64) float64 { return v / 24 }), UnitDays
	case "minutes":
		return scale(values, func(v float64) float64 { return v / 1440 }), UnitDays
	case "weeks":
		return scale(values, func(v float64) float64 { return v * 7 }), UnitDays
	case UnitDays:
		return values, UnitDays
	case UnitPercent:
		return scale(values, func(v float64) float64 { return math.Max(0, math.Min(100, v)) }), UnitPercent
	default:
		return values, unit
	}
}

func scale(p Percentiles, f func(float64) float64) Percentiles {
	out := Percentiles{
		P25: f(p.P25),
		P50: f(p.P50),
		P75: f(p.P75),
		P90: f(p.P90),
	}
	if p.Average != nil {
		out.Average = models.Float64(f(*p.Average))
	}
	return out
}

// TrimOutliers clamps values to the interquartile fence
// [p25 - 1.5*IQR, p75 + 1.5*IQR]. P90 is additionally capped at 1.2 times
// the upper fence. P50 is left untouched.
func TrimOutliers(values Percentiles) Percentiles {
	iqr := values.P75 - values.P25
	lower := values.P25 - 1.5*iqr
	upper := values.P75 + 1.5*iqr

	out := values
	out.P25 = math.Max(values.P25, lower)
	out.P75 = math.Min(values.P75, upper)
	out.P90 = math.Min(values.P90, 1.2*upper)
	if values.Average != nil {
		avg := math.Max(lower, math.Min(*values.Average, upper))
		out.Average = models.Float64(avg)
	}
	return out
}

// EnsureOrdered sorts the four percentiles so P25 <= P50 <= P75 <= P90.
// Non-finite or all-zero values are replaced by the category placeholder.
func EnsureOrdered(values Percentiles, category string) Percentiles {
	if !finite(values) || allZero(values) {
		p, _ := Placeholder(category)
		return p
	}
	if values.Ordered() {
		return values
	}
	vs := []float64{values.P25, values.P50, values.P75, values.P90}
	slices.Sort(vs)
	values.P25, values.P50, values.P75, values.P90 = vs[0], vs[1], vs[2], vs[3]
	return values
}

func allZero(p Percentiles) bool {
	return p.P25 == 0 && p.P50 == 0 && p.P75 == 0 && p.P90 == 0
}

func finite(p Percentiles) bool {
	for _, v := range []float64{p.P25, p.P50, p.P75, p.P90} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Average == nil || !(math.IsNaN(*p.Average) || math.IsInf(*p.Average, 0))
}

// Normalize runs unit conversion, outlier trimming and ordering. Non-finite
// input is replaced by the category placeholder.
func Normalize(values Percentiles, unit, category string) (Percentiles, string) {
	if !finite(values) {
		return Placeholder(category)
	}
	values, unit = NormalizeUnit(values, unit)
	values = TrimOutliers(values)
	if allZero(values) {
		return Placeholder(category)
	}
	return EnsureOrdered(values, category), unit
}

// FromText extracts and normalizes a distribution in one step.
func FromText(text, category string) (Percentiles, string, Method) {
	ex := Extract(text, category)
	values, unit := Normalize(ex.Values, ex.Unit, category)
	return values, unit, ex.Method
}
