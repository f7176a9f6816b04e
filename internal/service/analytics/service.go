package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

// conditionMarkers maps a condition to biomarker name fragments used for
// risk grouping. Lab names are normalized before matching.
var conditionMarkers = map[string][]string{
	"cardiovascular": {"cholesterol_total", "ldl", "hdl", "triglycerides", "crp", "homocysteine"},
	"diabetes":       {"glucose", "hba1c", "insulin", "c_peptide"},
	"liver":          {"alt", "ast", "bilirubin", "albumin", "alp"},
	"kidney":         {"creatinine", "bun", "egfr", "protein"},
	"thyroid":        {"tsh", "t4", "t3", "reverse_t3"},
	"inflammation":   {"crp", "esr", "il6", "tnf_alpha"},
}

var trendPeriods = map[string]time.Duration{
	"1_month":  30 * 24 * time.Hour,
	"3_months": 90 * 24 * time.Hour,
	"6_months": 180 * 24 * time.Hour,
	"1_year":   365 * 24 * time.Hour,
}

type Service struct {
	labRepo repository.LabResultRepository
	logger  *logger.Logger
}

func NewService(labRepo repository.LabResultRepository, logger *logger.Logger) *Service {
	return &Service{
		labRepo: labRepo,
		logger:  logger,
	}
}

func (s *Service) RecordResult(ctx context.Context, req *model.CreateLabResultRequest) (*model.LabResult, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}

	testedAt := req.TestedAt
	if testedAt.IsZero() {
		testedAt = time.Now()
	}

	result := &model.LabResult{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patientID,
		Name:      req.Name,
		Value:     req.Value,
		Unit:      req.Unit,
		RefMin:    req.RefMin,
		RefMax:    req.RefMax,
		Category:  req.Category,
		TestedAt:  testedAt,
	}
	if err := s.labRepo.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store lab result: %w", err)
	}
	return result, nil
}

func (s *Service) ListResults(ctx context.Context, patientID uuid.UUID) ([]*model.LabResult, error) {
	return s.labRepo.ListForPatient(ctx, patientID)
}

// AnalyzeLabs computes summary statistics, flags out-of-range markers, and
// derives per-category and risk indicators from a set of lab values.
func (s *Service) AnalyzeLabs(values []model.LabValue) *model.LabAnalysis {
	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = v.Value
	}
	lo, hi := minMax(raw)

	analysis := &model.LabAnalysis{
		TotalMarkers: len(values),
		Mean:         mean(raw),
		StdDev:       stdDev(raw),
		Min:          lo,
		Max:          hi,
		Categories:   make(map[string]model.CategorySummary),
		AnalyzedAt:   time.Now(),
	}

	for _, v := range values {
		if marker := classifyAbnormal(v); marker != nil {
			analysis.AbnormalMarkers = append(analysis.AbnormalMarkers, *marker)
		}
	}

	abnormalByName := make(map[string]bool, len(analysis.AbnormalMarkers))
	for _, m := range analysis.AbnormalMarkers {
		abnormalByName[m.Name] = true
	}
	for _, v := range values {
		category := v.Category
		if category == "" {
			category = "general"
		}
		summary := analysis.Categories[category]
		summary.MarkerCount++
		summary.AverageValue += v.Value
		if abnormalByName[v.Name] {
			summary.AbnormalCount++
		}
		analysis.Categories[category] = summary
	}
	for category, summary := range analysis.Categories {
		summary.AverageValue /= float64(summary.MarkerCount)
		analysis.Categories[category] = summary
	}

	analysis.RiskIndicators = append(analysis.RiskIndicators, riskIndicator(analysis.AbnormalMarkers))
	return analysis
}

// DetectOutliers flags values that stand out by z-score (|z| > 2) or by
// falling outside the 1.5 IQR fences. Both methods run and the union is
// reported.
func (s *Service) DetectOutliers(values []model.LabValue) *model.OutlierReport {
	if len(values) < 3 {
		return &model.OutlierReport{
			Outliers:     []model.Outlier{},
			TotalMarkers: len(values),
			Message:      "insufficient data points for outlier detection (minimum 3 required)",
		}
	}

	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = v.Value
	}

	m := mean(raw)
	sd := stdDev(raw)
	q1 := percentile(raw, 25)
	q3 := percentile(raw, 75)
	iqr := q3 - q1
	lowerFence := q1 - 1.5*iqr
	upperFence := q3 + 1.5*iqr

	report := &model.OutlierReport{
		Outliers:     []model.Outlier{},
		TotalMarkers: len(values),
		Mean:         m,
		StdDev:       sd,
		Q1:           q1,
		Q3:           q3,
		IQR:          iqr,
	}

	for i, v := range values {
		var z float64
		if sd > 0 {
			z = math.Abs((raw[i] - m) / sd)
		}
		byZ := z > 2
		byIQR := raw[i] < lowerFence || raw[i] > upperFence
		if !byZ && !byIQR {
			continue
		}

		method := "iqr"
		switch {
		case byZ && byIQR:
			method = "both"
		case byZ:
			method = "z_score"
		}
		severity := "moderate"
		if z > 3 {
			severity = "high"
		}
		report.Outliers = append(report.Outliers, model.Outlier{
			Name:     v.Name,
			Value:    v.Value,
			ZScore:   z,
			Method:   method,
			Severity: severity,
		})
	}

	report.OutlierPct = float64(len(report.Outliers)) / float64(len(values)) * 100
	return report
}

// BiomarkerTrends analyzes a patient's historical measurements for one
// biomarker over the requested period.
func (s *Service) BiomarkerTrends(ctx context.Context, req *model.TrendRequest) (*model.TrendAnalysis, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}

	period := req.Period
	if period == "" {
		period = "6_months"
	}
	window, ok := trendPeriods[period]
	if !ok {
		return nil, apperrors.BadRequest("unknown period", nil)
	}

	results, err := s.labRepo.ListForBiomarker(ctx, patientID, req.Biomarker, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to load biomarker history: %w", err)
	}
	if len(results) < 2 {
		return nil, apperrors.BadRequest("not enough measurements for trend analysis", nil)
	}

	points := make([]model.TrendPoint, len(results))
	raw := make([]float64, len(results))
	for i, r := range results {
		points[i] = model.TrendPoint{Date: r.TestedAt, Value: r.Value}
		raw[i] = r.Value
	}

	slope := linearSlope(raw)
	lo, hi := minMax(raw)

	analysis := &model.TrendAnalysis{
		PatientID:    patientID,
		Biomarker:    req.Biomarker,
		Period:       period,
		DataPoints:   points,
		CurrentValue: raw[len(raw)-1],
		AverageValue: mean(raw),
		MinValue:     lo,
		MaxValue:     hi,
		StdDev:       stdDev(raw),
		Slope:        slope,
		Direction:    trendDirection(slope),
		Volatility:   stdDev(diffs(raw)),
		Insights:     []model.TrendInsight{},
	}

	if math.Abs(slope) > 1 {
		direction := "increasing"
		if slope < 0 {
			direction = "decreasing"
		}
		severity := "moderate"
		if math.Abs(slope) >= 2 {
			severity = "high"
		}
		analysis.Insights = append(analysis.Insights, model.TrendInsight{
			Type:     "trend",
			Message:  fmt.Sprintf("%s shows a %s trend over %s", req.Biomarker, direction, period),
			Severity: severity,
		})
	}
	if analysis.StdDev > analysis.AverageValue*0.2 {
		analysis.Insights = append(analysis.Insights, model.TrendInsight{
			Type:     "volatility",
			Message:  fmt.Sprintf("%s shows high variability in recent measurements", req.Biomarker),
			Severity: "moderate",
		})
	}

	return analysis, nil
}

// AssessRisk groups lab values by condition and scores each group by its
// share of abnormal markers.
func (s *Service) AssessRisk(values []model.LabValue) *model.RiskAssessment {
	assessment := &model.RiskAssessment{
		Risks:      make(map[string]model.ConditionRisk),
		AssessedAt: time.Now(),
	}

	for condition, markers := range conditionMarkers {
		var matched []string
		abnormal := 0
		for _, v := range values {
			name := normalizeMarkerName(v.Name)
			if !matchesAny(name, markers) {
				continue
			}
			matched = append(matched, v.Name)
			if v.RefMin != nil && v.RefMax != nil && (v.Value < *v.RefMin || v.Value > *v.RefMax) {
				abnormal++
			}
		}
		if len(matched) == 0 {
			continue
		}

		pct := float64(abnormal) / float64(len(matched)) * 100
		assessment.Risks[condition] = model.ConditionRisk{
			RiskPercentage:   pct,
			RiskLevel:        riskLevel(pct),
			MarkersEvaluated: matched,
			AbnormalMarkers:  abnormal,
			TotalMarkers:     len(matched),
		}
	}

	if len(assessment.Risks) == 0 {
		// No recognized markers; score stays neutral
		assessment.OverallHealthScore = 85
	} else {
		var sum float64
		for _, risk := range assessment.Risks {
			sum += risk.RiskPercentage
		}
		score := 100 - sum/float64(len(assessment.Risks))
		assessment.OverallHealthScore = math.Round(math.Max(0, score)*10) / 10
	}

	assessment.Recommendations = buildRecommendations(assessment.Risks)
	return assessment
}

// GenerateInsights combines the statistical, outlier, and risk analyses
// into a single report.
func (s *Service) GenerateInsights(values []model.LabValue) *model.InsightReport {
	analysis := s.AnalyzeLabs(values)
	outliers := s.DetectOutliers(values)
	risk := s.AssessRisk(values)

	highRisk := 0
	for _, r := range risk.Risks {
		if r.RiskLevel == "high" {
			highRisk++
		}
	}

	report := &model.InsightReport{
		TotalMarkers:  len(values),
		HealthScore:   risk.OverallHealthScore,
		AbnormalCount: len(analysis.AbnormalMarkers),
		OutlierCount:  len(outliers.Outliers),
		HighRiskAreas: highRisk,
		Analysis:      analysis,
		Outliers:      outliers,
		Risk:          risk,
		Actions:       []model.Recommendation{},
	}

	if highRisk > 0 {
		report.Actions = append(report.Actions, model.Recommendation{
			Category: "general",
			Priority: "high",
			Action:   "Schedule comprehensive medical evaluation within 1-2 weeks",
			Details:  "Multiple high-risk areas identified requiring immediate attention",
		})
	}
	if len(outliers.Outliers) > 2 {
		report.Actions = append(report.Actions, model.Recommendation{
			Category: "general",
			Priority: "moderate",
			Action:   "Repeat testing to confirm values and investigate underlying causes",
			Details:  "Several biomarkers show unusual patterns",
		})
	}

	report.FollowUps = []string{
		"Retest abnormal markers in 4-6 weeks",
		"Consider comprehensive metabolic panel if not recently done",
		"Lifestyle modifications based on identified risk factors",
		"Regular monitoring of trending biomarkers",
	}
	return report
}

// classifyAbnormal returns nil when the value is in range or no range is
// set. Severity is high when the value falls more than 30% beyond either
// bound.
func classifyAbnormal(v model.LabValue) *model.AbnormalMarker {
	if v.RefMin == nil || v.RefMax == nil {
		return nil
	}
	lo, hi := *v.RefMin, *v.RefMax
	if v.Value >= lo && v.Value <= hi {
		return nil
	}

	deviation := "high"
	if v.Value < lo {
		deviation = "low"
	}
	severity := "moderate"
	if v.Value < lo*0.7 || v.Value > hi*1.3 {
		severity = "high"
	}

	mid := (lo + hi) / 2
	halfRange := (hi - lo) / 2
	var pct float64
	if halfRange > 0 {
		pct = math.Abs((v.Value-mid)/halfRange) * 100
	}

	return &model.AbnormalMarker{
		Name:           v.Name,
		Value:          v.Value,
		Unit:           v.Unit,
		ReferenceRange: fmt.Sprintf("%g-%g", lo, hi),
		Deviation:      deviation,
		Severity:       severity,
		PctDeviation:   pct,
	}
}

func riskIndicator(abnormal []model.AbnormalMarker) model.RiskIndicator {
	high, moderate := 0, 0
	for _, m := range abnormal {
		switch m.Severity {
		case "high":
			high++
		case "moderate":
			moderate++
		}
	}

	switch {
	case high > 0:
		return model.RiskIndicator{
			Level:          "high",
			Description:    fmt.Sprintf("%d markers with significant deviations detected", high),
			Recommendation: "Immediate medical consultation recommended",
		}
	case moderate > 2:
		return model.RiskIndicator{
			Level:          "moderate",
			Description:    fmt.Sprintf("%d markers outside normal ranges", moderate),
			Recommendation: "Follow-up testing and lifestyle modifications suggested",
		}
	default:
		return model.RiskIndicator{
			Level:          "low",
			Description:    "Most markers within acceptable ranges",
			Recommendation: "Continue current health maintenance practices",
		}
	}
}

func buildRecommendations(risks map[string]model.ConditionRisk) []model.Recommendation {
	recommendations := []model.Recommendation{}
	anyHigh := false
	for condition, risk := range risks {
		switch risk.RiskLevel {
		case "high":
			anyHigh = true
			recommendations = append(recommendations, model.Recommendation{
				Category: condition,
				Priority: "high",
				Action:   fmt.Sprintf("Immediate consultation recommended for %s risk factors", condition),
				Details:  fmt.Sprintf("%d out of %d markers abnormal", risk.AbnormalMarkers, risk.TotalMarkers),
			})
		case "moderate":
			recommendations = append(recommendations, model.Recommendation{
				Category: condition,
				Priority: "moderate",
				Action:   fmt.Sprintf("Monitor and lifestyle modifications for %s health", condition),
				Details:  fmt.Sprintf("Some %s markers outside optimal ranges", condition),
			})
		}
	}
	if !anyHigh {
		recommendations = append(recommendations, model.Recommendation{
			Category: "general",
			Priority: "low",
			Action:   "Continue healthy lifestyle practices",
			Details:  "Most health markers within acceptable ranges",
		})
	}
	return recommendations
}

func riskLevel(pct float64) string {
	switch {
	case pct < 25:
		return "low"
	case pct < 50:
		return "moderate"
	default:
		return "high"
	}
}

func trendDirection(slope float64) string {
	switch {
	case slope > 0.5:
		return "increasing"
	case slope < -0.5:
		return "decreasing"
	default:
		return "stable"
	}
}

func normalizeMarkerName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "-", "_")
}

func matchesAny(name string, fragments []string) bool {
	for _, fragment := range fragments {
		if strings.Contains(name, fragment) {
			return true
		}
	}
	return false
}
