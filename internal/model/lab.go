package model

import (
	"time"

	"github.com/google/uuid"
)

// LabResult is a single stored biomarker measurement.
type LabResult struct {
	Base
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Name      string    `db:"name" json:"name"`
	Value     float64   `db:"value" json:"value"`
	Unit      string    `db:"unit" json:"unit"`
	RefMin    *float64  `db:"ref_min" json:"reference_range_min,omitempty"`
	RefMax    *float64  `db:"ref_max" json:"reference_range_max,omitempty"`
	Category  string    `db:"category" json:"category,omitempty"`
	TestedAt  time.Time `db:"tested_at" json:"tested_at"`
}

type CreateLabResultRequest struct {
	PatientID string    `json:"patient_id" binding:"required,uuid"`
	Name      string    `json:"name" binding:"required"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit" binding:"required"`
	RefMin    *float64  `json:"reference_range_min"`
	RefMax    *float64  `json:"reference_range_max"`
	Category  string    `json:"category"`
	TestedAt  time.Time `json:"tested_at"`
}

// LabValue is the transient analysis input shape.
type LabValue struct {
	Name     string   `json:"name" binding:"required"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
	RefMin   *float64 `json:"reference_range_min"`
	RefMax   *float64 `json:"reference_range_max"`
	Category string   `json:"category"`
}

type LabAnalysisRequest struct {
	PatientID *string    `json:"patient_id" binding:"omitempty,uuid"`
	LabValues []LabValue `json:"lab_values" binding:"required,min=1,dive"`
}

type TrendRequest struct {
	PatientID string `json:"patient_id" binding:"required,uuid"`
	Biomarker string `json:"biomarker" binding:"required"`
	Period    string `json:"period" binding:"omitempty,oneof=1_month 3_months 6_months 1_year"`
}

// Analysis output shapes

type AbnormalMarker struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	ReferenceRange string  `json:"reference_range"`
	Deviation      string  `json:"deviation"` // low | high
	Severity       string  `json:"severity"`  // moderate | high
	PctDeviation   float64 `json:"percentage_deviation"`
}

type CategorySummary struct {
	MarkerCount   int     `json:"marker_count"`
	AverageValue  float64 `json:"average_value"`
	AbnormalCount int     `json:"abnormal_count"`
}

type RiskIndicator struct {
	Level          string `json:"level"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

type LabAnalysis struct {
	TotalMarkers    int                        `json:"total_markers"`
	Mean            float64                    `json:"mean"`
	StdDev          float64                    `json:"std_deviation"`
	Min             float64                    `json:"min"`
	Max             float64                    `json:"max"`
	AbnormalMarkers []AbnormalMarker           `json:"abnormal_markers"`
	Categories      map[string]CategorySummary `json:"categories_analysis"`
	RiskIndicators  []RiskIndicator            `json:"risk_indicators"`
	AnalyzedAt      time.Time                  `json:"analyzed_at"`
}

type Outlier struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	ZScore   float64 `json:"z_score"`
	Method   string  `json:"method"` // z_score | iqr | both
	Severity string  `json:"severity"`
}

type OutlierReport struct {
	Outliers     []Outlier `json:"outliers"`
	TotalMarkers int       `json:"total_markers"`
	OutlierPct   float64   `json:"outlier_percentage"`
	Mean         float64   `json:"mean"`
	StdDev       float64   `json:"std"`
	Q1           float64   `json:"q1"`
	Q3           float64   `json:"q3"`
	IQR          float64   `json:"iqr"`
	Message      string    `json:"message,omitempty"`
}

type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type TrendAnalysis struct {
	PatientID    uuid.UUID    `json:"patient_id"`
	Biomarker    string       `json:"biomarker"`
	Period       string       `json:"period"`
	DataPoints   []TrendPoint `json:"data_points"`
	CurrentValue float64      `json:"current_value"`
	AverageValue float64      `json:"average_value"`
	MinValue     float64      `json:"min_value"`
	MaxValue     float64      `json:"max_value"`
	StdDev       float64      `json:"std_deviation"`
	Slope        float64      `json:"trend_slope"`
	Direction    string       `json:"trend_direction"` // increasing | decreasing | stable
	Volatility   float64      `json:"volatility"`
	Insights     []TrendInsight `json:"insights"`
}

type TrendInsight struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type ConditionRisk struct {
	RiskPercentage  float64  `json:"risk_percentage"`
	RiskLevel       string   `json:"risk_level"`
	MarkersEvaluated []string `json:"markers_evaluated"`
	AbnormalMarkers int      `json:"abnormal_markers"`
	TotalMarkers    int      `json:"total_markers"`
}

type Recommendation struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Details  string `json:"details"`
}

type RiskAssessment struct {
	OverallHealthScore float64                  `json:"overall_health_score"`
	Risks              map[string]ConditionRisk `json:"risk_assessments"`
	Recommendations    []Recommendation         `json:"recommendations"`
	AssessedAt         time.Time                `json:"assessment_date"`
}

type InsightReport struct {
	TotalMarkers   int             `json:"total_markers_analyzed"`
	HealthScore    float64         `json:"overall_health_score"`
	AbnormalCount  int             `json:"abnormal_markers_count"`
	OutlierCount   int             `json:"outliers_detected"`
	HighRiskAreas  int             `json:"high_risk_areas"`
	Analysis       *LabAnalysis    `json:"statistical_analysis"`
	Outliers       *OutlierReport  `json:"outlier_detection"`
	Risk           *RiskAssessment `json:"risk_assessment"`
	Actions        []Recommendation `json:"actionable_insights"`
	FollowUps      []string        `json:"follow_up_recommendations"`
}
