// Package normalize extracts benchmark distributions from free text and
// normalizes their units and outliers.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/raphaelgruber/procwise/internal/models"
)

// Method records how an extraction produced its values.
type Method string

const (
	MethodPercentiles Method = "percentiles"
	MethodMedian      Method = "median"
	MethodRange       Method = "range"
	MethodPlaceholder Method = "placeholder"
)

// Extraction is the result of scanning text for a metric distribution.
type Extraction struct {
	Values Percentiles
	Unit   string
	Method Method
}

// Percentiles is an alias kept local for brevity.
type Percentiles = models.Percentiles

const numberPattern = `([0-9][0-9,]*(?:\.[0-9]+)?)`
const unitPattern = `\s*(days?|hours?|%)?`

var (
	p25Re     = labelled(`25th\s+percentile`)
	medianRe  = labelled(`(?:median|50th\s+percentile)`)
	p75Re     = labelled(`75th\s+percentile`)
	p90Re     = labelled(`90th\s+percentile`)
	averageRe = labelled(`(?:average|mean)`)

	// A range needs a unit, so standard numbers and year spans such as
	// "ISO 27001 - 2022" are not read as metrics.
	rangeRe = regexp.MustCompile(`(?i)\b` + numberPattern + `\s*(?:-|–|to)\s*` + numberPattern + `\s*((?:days?|hours?|weeks?|minutes?)\b|%)`)
)

func labelled(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + label + `\s*:\s*` + numberPattern + unitPattern)
}

type match struct {
	value float64
	unit  string
	ok    bool
}

func find(re *regexp.Regexp, text string) match {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return match{}
	}
	v, err := parseNumber(m[1])
	if err != nil {
		return match{}
	}
	unit := ""
	if len(m) > 2 {
		unit = m[2]
	}
	return match{value: v, unit: canonicalUnit(unit), ok: true}
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// Extract scans text for labelled percentiles, then a numeric range, and
// falls back to category placeholders when neither is present.
func Extract(text, category string) Extraction {
	p25 := find(p25Re, text)
	p50 := find(medianRe, text)
	p75 := find(p75Re, text)
	p90 := find(p90Re, text)
	avg := find(averageRe, text)

	unit := firstUnit(p25, p50, p75, p90, avg)

	if p50.ok && !p25.ok && !p75.ok && !p90.ok {
		vals := Percentiles{
			P25: p50.value * 0.75,
			P50: p50.value,
			P75: p50.value * 1.25,
			P90: p50.value * 1.5,
		}
		if avg.ok {
			vals.Average = models.Float64(avg.value)
		}
		return Extraction{Values: vals, Unit: unit, Method: MethodMedian}
	}

	if p50.ok || (p25.ok && p75.ok) {
		vals := fillPercentiles(p25, p50, p75, p90)
		if avg.ok {
			vals.Average = models.Float64(avg.value)
		}
		return Extraction{Values: vals, Unit: unit, Method: MethodPercentiles}
	}

	if m := rangeRe.FindStringSubmatch(text); m != nil {
		lo, errLo := parseNumber(m[1])
		hi, errHi := parseNumber(m[2])
		if errLo == nil && errHi == nil {
			if lo > hi {
				lo, hi = hi, lo
			}
			span := hi - lo
			vals := Percentiles{
				P25:     lo + span*0.25,
				P50:     lo + span*0.5,
				P75:     lo + span*0.75,
				P90:     lo + span*0.9,
				Average: models.Float64(lo + span*0.5),
			}
			return Extraction{Values: vals, Unit: canonicalUnit(m[3]), Method: MethodRange}
		}
	}

	vals, placeholderUnit := Placeholder(category)
	return Extraction{Values: vals, Unit: placeholderUnit, Method: MethodPlaceholder}
}

// fillPercentiles completes a partial set of labelled percentiles.
// Callers guarantee p50 is present, or both p25 and p75 are.
func fillPercentiles(p25, p50, p75, p90 match) Percentiles {
	var vals Percentiles

	switch {
	case p50.ok:
		vals.P50 = p50.value
	default:
		vals.P50 = (p25.value + p75.value) / 2
	}

	vals.P25 = vals.P50 * 0.75
	if p25.ok {
		vals.P25 = p25.value
	}
	vals.P75 = vals.P50 * 1.25
	if p75.ok {
		vals.P75 = p75.value
	}
	vals.P90 = vals.P75 * 1.2
	if p90.ok {
		vals.P90 = p90.value
	}
	return vals
}

func firstUnit(ms ...match) string {
	for _, m := range ms {
		if m.ok && m.unit != "" {
			return m.unit
		}
	}
	return ""
}

// Category families that select placeholder values.
const (
	familyTime    = "time"
	familyQuality = "quality"
	familyCost    = "cost"
	familyOther   = "other"
)

func family(category string) string {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "time"), strings.Contains(c, "duration"), strings.Contains(c, "cycle"):
		return familyTime
	case strings.Contains(c, "quality"), strings.Contains(c, "percent"), strings.Contains(c, "rate"):
		return familyQuality
	case strings.Contains(c, "cost"), strings.Contains(c, "budget"), strings.Contains(c, "spend"):
		return familyCost
	default:
		return familyOther
	}
}

// Placeholder returns the category default distribution and its unit.
func Placeholder(category string) (Percentiles, string) {
	switch family(category) {
	case familyTime:
		return Percentiles{P25: 5, P50: 10, P75: 15, P90: 20}, "days"
	case familyQuality:
		return Percentiles{P25: 70, P50: 80, P75: 90, P90: 95}, "%"
	case familyCost:
		return Percentiles{P25: 1000, P50: 5000, P75: 10000, P90: 20000}, "USD"
	default:
		return Percentiles{P25: 25, P50: 50, P75: 75, P90: 90}, ""
	}
}
