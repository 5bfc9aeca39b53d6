package automation

import (
	"github.com/shopspring/decimal"
)

// ThresholdDirection states which side of the threshold is alarming
type ThresholdDirection string

const (
	ThresholdDirectionAbove ThresholdDirection = "above"
	ThresholdDirectionBelow ThresholdDirection = "below"
)

// Threshold is a per-metric alert configuration
type Threshold struct {
	Metric    string             `json:"metric"`
	Warning   decimal.Decimal    `json:"warning"`
	Critical  decimal.Decimal    `json:"critical"`
	Unit      string             `json:"unit"`
	Direction ThresholdDirection `json:"direction"`
}

// Metric names with built-in thresholds
const (
	MetricRunwayMonths      = "runway_months"
	MetricDeviationPct      = "deviation_percentage"
	MetricUnmatchedPayments = "unmatched_payments"
)

// DefaultThresholds returns the built-in threshold set. Persisted settings
// override these per metric.
func DefaultThresholds() map[string]Threshold {
	return map[string]Threshold{
		MetricRunwayMonths: {
			Metric:    MetricRunwayMonths,
			Warning:   decimal.NewFromInt(6),
			Critical:  decimal.NewFromInt(3),
			Unit:      "months",
			Direction: ThresholdDirectionBelow,
		},
		MetricDeviationPct: {
			Metric:    MetricDeviationPct,
			Warning:   decimal.NewFromInt(3),
			Critical:  decimal.NewFromInt(5),
			Unit:      "percent",
			Direction: ThresholdDirectionAbove,
		},
		MetricUnmatchedPayments: {
			Metric:    MetricUnmatchedPayments,
			Warning:   decimal.NewFromInt(5),
			Critical:  decimal.NewFromInt(20),
			Unit:      "count",
			Direction: ThresholdDirectionAbove,
		},
	}
}

// ThresholdLevel is the severity a value lands in
type ThresholdLevel string

const (
	ThresholdLevelOK       ThresholdLevel = "ok"
	ThresholdLevelWarning  ThresholdLevel = "warning"
	ThresholdLevelCritical ThresholdLevel = "critical"
)

// Evaluate classifies a value against the threshold
func (t Threshold) Evaluate(value decimal.Decimal) ThresholdLevel {
	if t.Direction == ThresholdDirectionBelow {
		switch {
		case value.LessThan(t.Critical):
			return ThresholdLevelCritical
		case value.LessThan(t.Warning):
			return ThresholdLevelWarning
		}
		return ThresholdLevelOK
	}
	switch {
	case value.GreaterThan(t.Critical):
		return ThresholdLevelCritical
	case value.GreaterThan(t.Warning):
		return ThresholdLevelWarning
	}
	return ThresholdLevelOK
}

// MergeThresholds layers persisted overrides on top of the defaults
func MergeThresholds(overrides map[string]Threshold) map[string]Threshold {
	merged := DefaultThresholds()
	for metric, override := range overrides {
		merged[metric] = override
	}
	return merged
}
