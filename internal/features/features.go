package features

import (
	"sort"

	"github.com/Dan9191/credit-analytics/internal/models"
	"github.com/Dan9191/credit-analytics/internal/stats"
)

const daysPerYear = 365.25

// Derive returns copies of records with Features populated.
// The input slice and its records are left untouched.
func Derive(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	for i, r := range records {
		f := compute(r)
		r.Features = &f
		out[i] = r
	}
	return out
}

func compute(r models.Record) models.Features {
	f := models.Features{
		AgeYears:        stats.Round(-float64(r.DaysBirth)/daysPerYear, 1),
		EmploymentYears: employmentYears(r),
	}

	// a zero denominator leaves the ratios built on it undefined
	if r.Income != 0 {
		f.DTI = stats.Round(r.Annuity/r.Income, 3)
		f.LTI = stats.Round(r.Credit/r.Income, 2)
		f.IncomeRatiosDefined = true
	}
	if r.Credit != 0 {
		f.AnnuityToCredit = stats.Round(r.Annuity/r.Credit, 3)
		f.CreditRatioDefined = true
	}
	return f
}

func employmentYears(r models.Record) float64 {
	if r.Unemployed() {
		return 0
	}
	years := stats.Round(-float64(r.DaysEmployed)/daysPerYear, 1)
	if years < 0 {
		return 0
	}
	return years
}

// Bracket assigns Low/Mid/High income brackets relative to the supplied batch.
// Q1 and Q3 are read from the sorted incomes at floor(n*0.25) and floor(n*0.75).
func Bracket(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	copy(out, records)
	if len(out) == 0 {
		return out
	}

	q1, q3 := Quartiles(records)
	for i := range out {
		out[i].IncomeBracket = classify(out[i].Income, q1, q3)
	}
	return out
}

// Quartiles returns the non-interpolated 25th and 75th percentile incomes of the batch
func Quartiles(records []models.Record) (q1, q3 float64) {
	n := len(records)
	if n == 0 {
		return 0, 0
	}
	incomes := make([]float64, n)
	for i, r := range records {
		incomes[i] = r.Income
	}
	sort.Float64s(incomes)
	return incomes[n/4], incomes[n*3/4]
}

func classify(income, q1, q3 float64) models.IncomeBracket {
	switch {
	case income <= q1:
		return models.BracketLow
	case income >= q3:
		return models.BracketHigh
	default:
		return models.BracketMid
	}
}

// Pipeline runs Derive then Bracket over a freshly loaded batch
func Pipeline(records []models.Record) []models.Record {
	return Bracket(Derive(records))
}
