package models

import "time"

// KPISummary represents portfolio-level metrics over a record collection
type KPISummary struct {
	TotalApplications int     `json:"total_applications"`
	Defaults          int     `json:"defaults"`
	DefaultRate       float64 `json:"default_rate"`   // percent, 2 decimals
	RepaymentRate     float64 `json:"repayment_rate"` // 100 - DefaultRate

	MedianAge           float64 `json:"median_age"`
	MedianIncome        float64 `json:"median_income"`
	MeanIncome          float64 `json:"mean_income"`
	MeanCredit          float64 `json:"mean_credit"`
	MeanAnnuity         float64 `json:"mean_annuity"`
	MeanFamilySize      float64 `json:"mean_family_size"`
	MeanEmploymentYears float64 `json:"mean_employment_years"`
	MeanDTI             float64 `json:"mean_dti"`
	MeanLTI             float64 `json:"mean_lti"`

	IncomeDefaulters float64 `json:"income_defaulters"`
	IncomeRepaid     float64 `json:"income_repaid"`
	IncomeGap        float64 `json:"income_gap"` // IncomeRepaid - IncomeDefaulters, may be negative

	MalePct         float64 `json:"male_pct"`
	FemalePct       float64 `json:"female_pct"`
	WithChildrenPct float64 `json:"with_children_pct"`
	LargeLoanPct    float64 `json:"large_loan_pct"`
}

// Metrics flattens the summary into named values for presentation
func (k KPISummary) Metrics() map[string]float64 {
	return map[string]float64{
		"total_applications":    float64(k.TotalApplications),
		"defaults":              float64(k.Defaults),
		"default_rate":          k.DefaultRate,
		"repayment_rate":        k.RepaymentRate,
		"median_age":            k.MedianAge,
		"median_income":         k.MedianIncome,
		"mean_income":           k.MeanIncome,
		"mean_credit":           k.MeanCredit,
		"mean_annuity":          k.MeanAnnuity,
		"mean_family_size":      k.MeanFamilySize,
		"mean_employment_years": k.MeanEmploymentYears,
		"mean_dti":              k.MeanDTI,
		"mean_lti":              k.MeanLTI,
		"income_defaulters":     k.IncomeDefaulters,
		"income_repaid":         k.IncomeRepaid,
		"income_gap":            k.IncomeGap,
		"male_pct":              k.MalePct,
		"female_pct":            k.FemalePct,
		"with_children_pct":     k.WithChildrenPct,
		"large_loan_pct":        k.LargeLoanPct,
	}
}

// ChartPoint is one entry of a chart series: a category or a bin with its value
type ChartPoint struct {
	Label string   `json:"label"`
	Value float64  `json:"value"`
	Count int      `json:"count"`
	Lo    *float64 `json:"lo,omitempty"`
	Hi    *float64 `json:"hi,omitempty"`
	// Blank marks the group of records with no value for the category
	Blank bool `json:"blank,omitempty"`
}

// CorrelationCell is one pairwise Pearson coefficient
type CorrelationCell struct {
	X           NumericField `json:"x"`
	Y           NumericField `json:"y"`
	Coefficient float64      `json:"coefficient"`
}

// DatasetInfo describes the batch currently held by the service
type DatasetInfo struct {
	BatchID     string    `json:"batch_id"`
	Source      string    `json:"source"` // "synthetic" or the uploaded file name
	Records     int       `json:"records"`
	Seed        *uint64   `json:"seed,omitempty"`
	SkippedRows int       `json:"skipped_rows"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// KeyRateQuote is one published central bank key rate, in percent
type KeyRateQuote struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// KeyRate is the lending rate derived from the latest key rate plus the bank margin
type KeyRate struct {
	Rate     float64        `json:"key_rate"` // BaseRate + Margin, percent
	BaseRate float64        `json:"base_rate"`
	Margin   float64        `json:"margin"`
	AsOf     time.Time      `json:"as_of"`
	History  []KeyRateQuote `json:"history"` // newest first
}
