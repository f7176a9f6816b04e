package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

func testService() *Service {
	return NewService(nil, logger.NewLogger(nil))
}

func fptr(v float64) *float64 { return &v }

func TestAnalyzeLabsFlagsAbnormalMarkers(t *testing.T) {
	svc := testService()

	values := []model.LabValue{
		{Name: "Glucose", Value: 95, Unit: "mg/dL", RefMin: fptr(70), RefMax: fptr(100), Category: "metabolic"},
		{Name: "LDL", Value: 180, Unit: "mg/dL", RefMin: fptr(0), RefMax: fptr(130), Category: "lipids"},
		{Name: "HDL", Value: 30, Unit: "mg/dL", RefMin: fptr(40), RefMax: fptr(90), Category: "lipids"},
	}

	analysis := svc.AnalyzeLabs(values)

	assert.Equal(t, 3, analysis.TotalMarkers)
	require.Len(t, analysis.AbnormalMarkers, 2)

	byName := map[string]model.AbnormalMarker{}
	for _, m := range analysis.AbnormalMarkers {
		byName[m.Name] = m
	}

	// 180 > 130*1.3, so LDL is a high-severity high deviation
	ldl := byName["LDL"]
	assert.Equal(t, "high", ldl.Deviation)
	assert.Equal(t, "high", ldl.Severity)

	// 30 is below 40 but above 40*0.7
	hdl := byName["HDL"]
	assert.Equal(t, "low", hdl.Deviation)
	assert.Equal(t, "moderate", hdl.Severity)

	assert.Equal(t, 2, analysis.Categories["lipids"].MarkerCount)
	assert.Equal(t, 2, analysis.Categories["lipids"].AbnormalCount)
	assert.Equal(t, 0, analysis.Categories["metabolic"].AbnormalCount)

	require.Len(t, analysis.RiskIndicators, 1)
	assert.Equal(t, "high", analysis.RiskIndicators[0].Level)
}

func TestAnalyzeLabsInRangeIsLowRisk(t *testing.T) {
	svc := testService()

	values := []model.LabValue{
		{Name: "Glucose", Value: 85, RefMin: fptr(70), RefMax: fptr(100)},
		{Name: "TSH", Value: 2.0, RefMin: fptr(0.4), RefMax: fptr(4.0)},
	}

	analysis := svc.AnalyzeLabs(values)
	assert.Empty(t, analysis.AbnormalMarkers)
	require.Len(t, analysis.RiskIndicators, 1)
	assert.Equal(t, "low", analysis.RiskIndicators[0].Level)
}

func TestAnalyzeLabsMissingRangeIsSkipped(t *testing.T) {
	svc := testService()
	analysis := svc.AnalyzeLabs([]model.LabValue{
		{Name: "Mystery", Value: 9999},
	})
	assert.Empty(t, analysis.AbnormalMarkers)
}

func TestDetectOutliersRequiresThreeValues(t *testing.T) {
	svc := testService()
	report := svc.DetectOutliers([]model.LabValue{
		{Name: "A", Value: 1},
		{Name: "B", Value: 2},
	})
	assert.Empty(t, report.Outliers)
	assert.NotEmpty(t, report.Message)
}

func TestDetectOutliersFindsExtremeValue(t *testing.T) {
	svc := testService()

	values := []model.LabValue{
		{Name: "A", Value: 10},
		{Name: "B", Value: 11},
		{Name: "C", Value: 10},
		{Name: "D", Value: 12},
		{Name: "E", Value: 11},
		{Name: "F", Value: 10},
		{Name: "Spike", Value: 100},
	}

	report := svc.DetectOutliers(values)
	require.Len(t, report.Outliers, 1)
	assert.Equal(t, "Spike", report.Outliers[0].Name)
	assert.Equal(t, "both", report.Outliers[0].Method)
	assert.Greater(t, report.Outliers[0].ZScore, 2.0)
	assert.InDelta(t, 100.0/7.0, report.OutlierPct, 1e-9)
	assert.Greater(t, report.IQR, 0.0)
}

func TestDetectOutliersUniformValues(t *testing.T) {
	svc := testService()
	report := svc.DetectOutliers([]model.LabValue{
		{Name: "A", Value: 5},
		{Name: "B", Value: 5},
		{Name: "C", Value: 5},
	})
	assert.Empty(t, report.Outliers)
}

func TestAssessRiskGroupsByCondition(t *testing.T) {
	svc := testService()

	values := []model.LabValue{
		{Name: "Glucose", Value: 150, RefMin: fptr(70), RefMax: fptr(100)},
		{Name: "HbA1c", Value: 8.0, RefMin: fptr(4.0), RefMax: fptr(5.7)},
		{Name: "TSH", Value: 2.0, RefMin: fptr(0.4), RefMax: fptr(4.0)},
	}

	assessment := svc.AssessRisk(values)

	diabetes, ok := assessment.Risks["diabetes"]
	require.True(t, ok)
	assert.Equal(t, 2, diabetes.AbnormalMarkers)
	assert.Equal(t, 2, diabetes.TotalMarkers)
	assert.Equal(t, "high", diabetes.RiskLevel)
	assert.InDelta(t, 100.0, diabetes.RiskPercentage, 1e-9)

	thyroid, ok := assessment.Risks["thyroid"]
	require.True(t, ok)
	assert.Equal(t, "low", thyroid.RiskLevel)

	// (100 + 0) / 2 = 50 average risk, score 50
	assert.InDelta(t, 50.0, assessment.OverallHealthScore, 1e-9)

	var hasHighRec bool
	for _, rec := range assessment.Recommendations {
		if rec.Category == "diabetes" && rec.Priority == "high" {
			hasHighRec = true
		}
	}
	assert.True(t, hasHighRec)
}

func TestAssessRiskNoRecognizedMarkers(t *testing.T) {
	svc := testService()
	assessment := svc.AssessRisk([]model.LabValue{
		{Name: "Obscure Marker", Value: 1},
	})
	assert.Empty(t, assessment.Risks)
	assert.Equal(t, 85.0, assessment.OverallHealthScore)
}

func TestRiskLevelThresholds(t *testing.T) {
	assert.Equal(t, "low", riskLevel(0))
	assert.Equal(t, "low", riskLevel(24.9))
	assert.Equal(t, "moderate", riskLevel(25))
	assert.Equal(t, "moderate", riskLevel(49.9))
	assert.Equal(t, "high", riskLevel(50))
	assert.Equal(t, "high", riskLevel(100))
}

func TestTrendDirectionThresholds(t *testing.T) {
	assert.Equal(t, "increasing", trendDirection(0.6))
	assert.Equal(t, "decreasing", trendDirection(-0.6))
	assert.Equal(t, "stable", trendDirection(0.3))
	assert.Equal(t, "stable", trendDirection(-0.5))
}

func TestGenerateInsightsCombinesAnalyses(t *testing.T) {
	svc := testService()

	values := []model.LabValue{
		{Name: "Glucose", Value: 200, RefMin: fptr(70), RefMax: fptr(100)},
		{Name: "HbA1c", Value: 9.0, RefMin: fptr(4.0), RefMax: fptr(5.7)},
		{Name: "TSH", Value: 2.0, RefMin: fptr(0.4), RefMax: fptr(4.0)},
		{Name: "Creatinine", Value: 1.0, RefMin: fptr(0.7), RefMax: fptr(1.3)},
	}

	report := svc.GenerateInsights(values)

	assert.Equal(t, 4, report.TotalMarkers)
	assert.Equal(t, 2, report.AbnormalCount)
	assert.Equal(t, 1, report.HighRiskAreas)
	require.NotNil(t, report.Analysis)
	require.NotNil(t, report.Outliers)
	require.NotNil(t, report.Risk)
	assert.NotEmpty(t, report.Actions)
	assert.NotEmpty(t, report.FollowUps)
}

func TestNormalizeMarkerName(t *testing.T) {
	assert.Equal(t, "cholesterol_total", normalizeMarkerName("Cholesterol Total"))
	assert.Equal(t, "c_peptide", normalizeMarkerName("C-Peptide"))
}
