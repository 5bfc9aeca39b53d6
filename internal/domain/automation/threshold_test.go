package automation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdEvaluateBelow(t *testing.T) {
	th := DefaultThresholds()[MetricRunwayMonths]

	assert.Equal(t, ThresholdLevelOK, th.Evaluate(decimal.NewFromInt(12)))
	assert.Equal(t, ThresholdLevelWarning, th.Evaluate(decimal.NewFromInt(4)))
	assert.Equal(t, ThresholdLevelCritical, th.Evaluate(decimal.NewFromInt(2)))
}

func TestThresholdEvaluateAbove(t *testing.T) {
	th := DefaultThresholds()[MetricDeviationPct]

	assert.Equal(t, ThresholdLevelOK, th.Evaluate(decimal.NewFromInt(2)))
	assert.Equal(t, ThresholdLevelWarning, th.Evaluate(decimal.NewFromInt(4)))
	assert.Equal(t, ThresholdLevelCritical, th.Evaluate(decimal.NewFromInt(6)))
}

func TestMergeThresholds(t *testing.T) {
	merged := MergeThresholds(map[string]Threshold{
		MetricRunwayMonths: {
			Metric:    MetricRunwayMonths,
			Warning:   decimal.NewFromInt(9),
			Critical:  decimal.NewFromInt(6),
			Unit:      "months",
			Direction: ThresholdDirectionBelow,
		},
	})

	require.Contains(t, merged, MetricRunwayMonths)
	assert.True(t, merged[MetricRunwayMonths].Warning.Equal(decimal.NewFromInt(9)))
	// untouched defaults survive
	require.Contains(t, merged, MetricDeviationPct)
}
