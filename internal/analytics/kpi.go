package analytics

import (
	"github.com/Dan9191/credit-analytics/internal/models"
	"github.com/Dan9191/credit-analytics/internal/stats"
)

// LargeLoanThreshold is the credit amount above which a loan counts as large
const LargeLoanThreshold = 1_000_000

// ComputeKPIs summarises a record collection. Empty input yields a zero summary.
func ComputeKPIs(records []models.Record) models.KPISummary {
	var k models.KPISummary
	n := len(records)
	if n == 0 {
		return k
	}

	var (
		ages, incomes, credits, annuities, family, tenure, dti, lti []float64
		incomeDefaulted, incomeRepaid                               []float64
		males, females, withChildren, largeLoans                    int
	)
	for _, r := range records {
		if r.Defaulted() {
			k.Defaults++
			incomeDefaulted = append(incomeDefaulted, r.Income)
		} else {
			incomeRepaid = append(incomeRepaid, r.Income)
		}

		incomes = append(incomes, r.Income)
		credits = append(credits, r.Credit)
		annuities = append(annuities, r.Annuity)
		family = append(family, r.FamilyMembers)
		collect(&ages, models.FieldAgeYears, r)
		collect(&tenure, models.FieldEmploymentYears, r)
		collect(&dti, models.FieldDTI, r)
		collect(&lti, models.FieldLTI, r)

		switch r.Gender {
		case models.GenderMale:
			males++
		case models.GenderFemale:
			females++
		}
		if r.Children > 0 {
			withChildren++
		}
		if r.Credit > LargeLoanThreshold {
			largeLoans++
		}
	}

	k.TotalApplications = n
	k.DefaultRate = stats.Round(stats.Percent(k.Defaults, n), 2)
	k.RepaymentRate = stats.Round(100-k.DefaultRate, 2)

	k.MedianAge = median(ages, 1)
	k.MedianIncome = median(incomes, 0)
	k.MeanIncome = mean(incomes, 0)
	k.MeanCredit = mean(credits, 0)
	k.MeanAnnuity = mean(annuities, 0)
	k.MeanFamilySize = mean(family, 1)
	k.MeanEmploymentYears = mean(tenure, 1)
	k.MeanDTI = mean(dti, 3)
	k.MeanLTI = mean(lti, 2)

	k.IncomeDefaulters = mean(incomeDefaulted, 0)
	k.IncomeRepaid = mean(incomeRepaid, 0)
	k.IncomeGap = k.IncomeRepaid - k.IncomeDefaulters

	k.MalePct = stats.Round(stats.Percent(males, n), 1)
	k.FemalePct = stats.Round(stats.Percent(females, n), 1)
	k.WithChildrenPct = stats.Round(stats.Percent(withChildren, n), 1)
	k.LargeLoanPct = stats.Round(stats.Percent(largeLoans, n), 1)
	return k
}

func collect(dst *[]float64, field models.NumericField, r models.Record) {
	if v, ok := field.Value(r); ok {
		*dst = append(*dst, v)
	}
}

func mean(values []float64, places int) float64 {
	m, ok := stats.Mean(values)
	if !ok {
		return 0
	}
	return stats.Round(m, places)
}

func median(values []float64, places int) float64 {
	m, ok := stats.Median(values)
	if !ok {
		return 0
	}
	return stats.Round(m, places)
}
