package models

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownField is returned when a field name does not resolve to an accessor
var ErrUnknownField = errors.New("unknown field")

// CategoricalField names a record attribute that can be grouped on
type CategoricalField string

const (
	FieldGender        CategoricalField = "gender"
	FieldEducation     CategoricalField = "education"
	FieldFamilyStatus  CategoricalField = "family_status"
	FieldHousingType   CategoricalField = "housing_type"
	FieldOccupation    CategoricalField = "occupation"
	FieldContractType  CategoricalField = "contract_type"
	FieldIncomeBracket CategoricalField = "income_bracket"
	FieldAgeGroup      CategoricalField = "age_group"
	FieldTargetLabel   CategoricalField = "target"
)

var categoricalAccessors = map[CategoricalField]func(Record) string{
	FieldGender:        func(r Record) string { return r.Gender },
	FieldEducation:     func(r Record) string { return r.Education },
	FieldFamilyStatus:  func(r Record) string { return r.FamilyStatus },
	FieldHousingType:   func(r Record) string { return r.HousingType },
	FieldOccupation:    func(r Record) string { return r.Occupation },
	FieldContractType:  func(r Record) string { return r.ContractType },
	FieldIncomeBracket: func(r Record) string { return string(r.IncomeBracket) },
	FieldAgeGroup: func(r Record) string {
		if r.Features == nil {
			return ""
		}
		return AgeGroup(r.Features.AgeYears)
	},
	FieldTargetLabel: func(r Record) string { return strconv.Itoa(r.Target) },
}

// Value returns the string form of the field for r
func (f CategoricalField) Value(r Record) string {
	if get, ok := categoricalAccessors[f]; ok {
		return get(r)
	}
	return ""
}

// Valid reports whether f is a known categorical field
func (f CategoricalField) Valid() bool {
	_, ok := categoricalAccessors[f]
	return ok
}

// ParseCategoricalField resolves a field name to a CategoricalField
func ParseCategoricalField(name string) (CategoricalField, error) {
	f := CategoricalField(name)
	if !f.Valid() {
		return "", fmt.Errorf("%w: categorical %q", ErrUnknownField, name)
	}
	return f, nil
}

// NumericField names a record attribute with a numeric value
type NumericField string

const (
	FieldAgeYears        NumericField = "age_years"
	FieldEmploymentYears NumericField = "employment_years"
	FieldIncome          NumericField = "income"
	FieldCredit          NumericField = "credit"
	FieldAnnuity         NumericField = "annuity"
	FieldGoodsPrice      NumericField = "goods_price"
	FieldDTI             NumericField = "dti"
	FieldLTI             NumericField = "lti"
	FieldAnnuityToCredit NumericField = "annuity_to_credit"
	FieldChildren        NumericField = "children"
	FieldFamilyMembers   NumericField = "family_members"
	FieldRegionRating    NumericField = "region_rating"
	FieldTarget          NumericField = "target"
)

// NumericFields lists every numeric field in display order
var NumericFields = []NumericField{
	FieldAgeYears, FieldEmploymentYears, FieldIncome, FieldCredit, FieldAnnuity, FieldGoodsPrice,
	FieldDTI, FieldLTI, FieldAnnuityToCredit, FieldChildren, FieldFamilyMembers, FieldRegionRating, FieldTarget,
}

func present(v float64) (float64, bool) { return v, true }

var numericAccessors = map[NumericField]func(Record) (float64, bool){
	FieldAgeYears: func(r Record) (float64, bool) {
		if r.Features == nil {
			return 0, false
		}
		return r.Features.AgeYears, true
	},
	FieldEmploymentYears: func(r Record) (float64, bool) {
		if r.Features == nil {
			return 0, false
		}
		return r.Features.EmploymentYears, true
	},
	FieldIncome:     func(r Record) (float64, bool) { return present(r.Income) },
	FieldCredit:     func(r Record) (float64, bool) { return present(r.Credit) },
	FieldAnnuity:    func(r Record) (float64, bool) { return present(r.Annuity) },
	FieldGoodsPrice: func(r Record) (float64, bool) { return present(r.GoodsPrice) },
	FieldDTI: func(r Record) (float64, bool) {
		if r.Features == nil || !r.Features.IncomeRatiosDefined {
			return 0, false
		}
		return r.Features.DTI, true
	},
	FieldLTI: func(r Record) (float64, bool) {
		if r.Features == nil || !r.Features.IncomeRatiosDefined {
			return 0, false
		}
		return r.Features.LTI, true
	},
	FieldAnnuityToCredit: func(r Record) (float64, bool) {
		if r.Features == nil || !r.Features.CreditRatioDefined {
			return 0, false
		}
		return r.Features.AnnuityToCredit, true
	},
	FieldChildren:      func(r Record) (float64, bool) { return present(float64(r.Children)) },
	FieldFamilyMembers: func(r Record) (float64, bool) { return present(r.FamilyMembers) },
	FieldRegionRating:  func(r Record) (float64, bool) { return present(float64(r.RegionRating)) },
	FieldTarget:        func(r Record) (float64, bool) { return present(float64(r.Target)) },
}

// Value returns the numeric value of the field for r; false means the value is missing
func (f NumericField) Value(r Record) (float64, bool) {
	if get, ok := numericAccessors[f]; ok {
		return get(r)
	}
	return 0, false
}

// Valid reports whether f is a known numeric field
func (f NumericField) Valid() bool {
	_, ok := numericAccessors[f]
	return ok
}

// ParseNumericField resolves a field name to a NumericField
func ParseNumericField(name string) (NumericField, error) {
	f := NumericField(name)
	if !f.Valid() {
		return "", fmt.Errorf("%w: numeric %q", ErrUnknownField, name)
	}
	return f, nil
}

// AgeGroup buckets an age in years into a display label
func AgeGroup(age float64) string {
	switch {
	case age < 25:
		return "<25"
	case age < 35:
		return "25-34"
	case age < 45:
		return "35-44"
	case age < 55:
		return "45-54"
	case age < 65:
		return "55-64"
	default:
		return "65+"
	}
}
