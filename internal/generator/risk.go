package generator

// defaultRisk composes the baseline default rate with independent adjustment factors.
// tenure < 0 means unemployed.
func defaultRisk(age, income float64, education string, tenure float64) float64 {
	risk := baseDefaultRate *
		ageFactor(age) *
		incomeFactor(income) *
		educationFactor(education) *
		tenureFactor(tenure)
	if risk > maxDefaultRisk {
		return maxDefaultRisk
	}
	return risk
}

func ageFactor(age float64) float64 {
	switch {
	case age < 25:
		return 1.5
	case age > 65:
		return 1.3
	case age >= 35 && age <= 55:
		return 0.8
	default:
		return 1.0
	}
}

func incomeFactor(income float64) float64 {
	switch {
	case income < 100000:
		return 1.4
	case income < 200000:
		return 1.15
	case income > 500000:
		return 0.7
	default:
		return 1.0
	}
}

func educationFactor(education string) float64 {
	switch education {
	case "Higher education", "Academic degree":
		return 0.75
	case "Lower secondary":
		return 1.35
	default:
		return 1.0
	}
}

func tenureFactor(tenure float64) float64 {
	switch {
	case tenure < 1:
		return 1.5
	case tenure > 10:
		return 0.7
	default:
		return 1.0
	}
}
