package filter

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Dan9191/credit-analytics/internal/models"
)

// Bracket filter values. Matching is exact and case-sensitive.
const (
	BracketAll  = "all"
	BracketLow  = "low"
	BracketMid  = "mid"
	BracketHigh = "high"
)

// Range is an inclusive numeric interval
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains reports whether v lies in [Lo, Hi]. A reversed range contains nothing.
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Spec describes a multi-field record filter. All constraints are AND-combined,
// values inside one set are OR-combined and an empty set places no constraint.
type Spec struct {
	Genders        []string `json:"genders,omitempty"`
	Educations     []string `json:"educations,omitempty"`
	FamilyStatuses []string `json:"family_statuses,omitempty"`
	HousingTypes   []string `json:"housing_types,omitempty"`
	Occupations    []string `json:"occupations,omitempty"`
	ContractTypes  []string `json:"contract_types,omitempty"`

	Age           *Range `json:"age,omitempty"`
	IncomeBracket string `json:"income_bracket,omitempty" validate:"omitempty,oneof=all low mid high"`
	Employment    *Range `json:"employment,omitempty"`
}

// ErrInvalidSpec is returned by Validate for malformed filters
var ErrInvalidSpec = errors.New("invalid filter")

var validate = validator.New()

// Validate checks the spec for unknown enumeration values
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return nil
}

// IsEmpty reports whether the spec places no constraint at all
func (s Spec) IsEmpty() bool {
	return len(s.Genders) == 0 && len(s.Educations) == 0 && len(s.FamilyStatuses) == 0 &&
		len(s.HousingTypes) == 0 && len(s.Occupations) == 0 && len(s.ContractTypes) == 0 &&
		s.Age == nil && s.Employment == nil && (s.IncomeBracket == "" || s.IncomeBracket == BracketAll)
}

// bracketOf maps a filter value to the record bracket it selects.
// "" and "all" select any bracket; ok is false for a value Validate would reject.
func bracketOf(v string) (b models.IncomeBracket, ok bool) {
	switch v {
	case "", BracketAll:
		return "", true
	case BracketLow:
		return models.BracketLow, true
	case BracketMid:
		return models.BracketMid, true
	case BracketHigh:
		return models.BracketHigh, true
	default:
		return "", false
	}
}

type compiled struct {
	sets       []setConstraint
	age        *Range
	employment *Range
	bracket    models.IncomeBracket
	// an unrecognised bracket value matches nothing
	noMatch bool
}

type setConstraint struct {
	field   models.CategoricalField
	allowed map[string]bool
}

func compile(s Spec) compiled {
	c := compiled{age: s.Age, employment: s.Employment}
	bracket, ok := bracketOf(s.IncomeBracket)
	c.bracket, c.noMatch = bracket, !ok
	add := func(field models.CategoricalField, values []string) {
		if len(values) == 0 {
			return
		}
		allowed := make(map[string]bool, len(values))
		for _, v := range values {
			allowed[v] = true
		}
		c.sets = append(c.sets, setConstraint{field: field, allowed: allowed})
	}
	add(models.FieldGender, s.Genders)
	add(models.FieldEducation, s.Educations)
	add(models.FieldFamilyStatus, s.FamilyStatuses)
	add(models.FieldHousingType, s.HousingTypes)
	add(models.FieldOccupation, s.Occupations)
	add(models.FieldContractType, s.ContractTypes)
	return c
}

func (c compiled) match(r models.Record) bool {
	if c.noMatch {
		return false
	}
	for _, sc := range c.sets {
		if !sc.allowed[sc.field.Value(r)] {
			return false
		}
	}
	if c.bracket != "" && r.IncomeBracket != c.bracket {
		return false
	}
	// records without a derived age pass the age predicate
	if c.age != nil && r.Features != nil && !c.age.Contains(r.Features.AgeYears) {
		return false
	}
	// zero or absent tenure passes the employment predicate
	if c.employment != nil && r.Features != nil && r.Features.EmploymentYears != 0 &&
		!c.employment.Contains(r.Features.EmploymentYears) {
		return false
	}
	return true
}

// Apply returns the records matching spec in their original order.
// Neither records nor spec are modified.
func Apply(records []models.Record, spec Spec) []models.Record {
	if spec.IsEmpty() {
		out := make([]models.Record, len(records))
		copy(out, records)
		return out
	}

	c := compile(spec)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if c.match(r) {
			out = append(out, r)
		}
	}
	return out
}
