package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Dan9191/credit-analytics/internal/models"
	"github.com/Dan9191/credit-analytics/internal/stats"
)

// ErrUnknownChartKind is returned by Prepare for an unsupported kind
var ErrUnknownChartKind = errors.New("unknown chart kind")

// ChartKind selects which series Prepare builds
type ChartKind string

const (
	ChartTargetDistribution ChartKind = "target_distribution"
	ChartAgeHistogram       ChartKind = "age_histogram"
	ChartIncomeHistogram    ChartKind = "income_histogram"
	ChartDTIHistogram       ChartKind = "dti_histogram"
	ChartGender             ChartKind = "gender_breakdown"
	ChartEducation          ChartKind = "education_breakdown"
	ChartFamilyStatus       ChartKind = "family_status_breakdown"
	ChartHousing            ChartKind = "housing_breakdown"
	ChartIncomeBracket      ChartKind = "income_bracket_breakdown"
	ChartOccupation         ChartKind = "occupation_breakdown"
	ChartContractType       ChartKind = "contract_type_breakdown"
	ChartDefaultByGender    ChartKind = "default_rate_by_gender"
	ChartDefaultByEducation ChartKind = "default_rate_by_education"
	ChartDefaultByHousing   ChartKind = "default_rate_by_housing"
	ChartDefaultByFamily    ChartKind = "default_rate_by_family_status"
	ChartDefaultByBracket   ChartKind = "default_rate_by_income_bracket"
	ChartDefaultByAgeGroup  ChartKind = "default_rate_by_age_group"
)

// Histogram bin counts per numeric chart
const (
	AgeBins    = 20
	IncomeBins = 30
	DTIBins    = 20
)

// blankLabel is shown for records with no value; the point also carries Blank
const blankLabel = "(not specified)"

type chartSpec struct {
	histogram   models.NumericField
	bins        int
	breakdown   models.CategoricalField
	defaultRate models.CategoricalField
}

var chartSpecs = map[ChartKind]chartSpec{
	ChartTargetDistribution: {breakdown: models.FieldTargetLabel},
	ChartAgeHistogram:       {histogram: models.FieldAgeYears, bins: AgeBins},
	ChartIncomeHistogram:    {histogram: models.FieldIncome, bins: IncomeBins},
	ChartDTIHistogram:       {histogram: models.FieldDTI, bins: DTIBins},
	ChartGender:             {breakdown: models.FieldGender},
	ChartEducation:          {breakdown: models.FieldEducation},
	ChartFamilyStatus:       {breakdown: models.FieldFamilyStatus},
	ChartHousing:            {breakdown: models.FieldHousingType},
	ChartIncomeBracket:      {breakdown: models.FieldIncomeBracket},
	ChartOccupation:         {breakdown: models.FieldOccupation},
	ChartContractType:       {breakdown: models.FieldContractType},
	ChartDefaultByGender:    {defaultRate: models.FieldGender},
	ChartDefaultByEducation: {defaultRate: models.FieldEducation},
	ChartDefaultByHousing:   {defaultRate: models.FieldHousingType},
	ChartDefaultByFamily:    {defaultRate: models.FieldFamilyStatus},
	ChartDefaultByBracket:   {defaultRate: models.FieldIncomeBracket},
	ChartDefaultByAgeGroup:  {defaultRate: models.FieldAgeGroup},
}

// ChartKinds lists every supported kind, sorted by name
func ChartKinds() []ChartKind {
	kinds := make([]ChartKind, 0, len(chartSpecs))
	for k := range chartSpecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Prepare builds the chart-ready series of the given kind
func Prepare(records []models.Record, kind ChartKind) ([]models.ChartPoint, error) {
	spec, ok := chartSpecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChartKind, kind)
	}

	switch {
	case spec.histogram != "":
		return binPoints(Bins(NumericValues(records, spec.histogram), spec.bins)), nil
	case spec.defaultRate != "":
		return ratePoints(DefaultRateByCategory(records, spec.defaultRate)), nil
	default:
		points := countPoints(GroupBy(records, spec.breakdown))
		if kind == ChartTargetDistribution {
			relabelTarget(points)
		}
		return points, nil
	}
}

// Bin is one equal-width histogram interval [Lo, Hi)
type Bin struct {
	Label string  `json:"label"`
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Bins splits [min, max] into n equal-width bins and counts membership.
// The maximum value lands in the last bin. When all values are equal every
// value is counted in bin 0.
func Bins(values []float64, n int) []Bin {
	lo, hi, ok := stats.MinMax(values)
	if !ok || n <= 0 {
		return nil
	}

	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bLo := lo + float64(i)*width
		bHi := lo + float64(i+1)*width
		bins[i] = Bin{
			Label: fmt.Sprintf("%.0f-%.0f", math.Round(bLo), math.Round(bHi)),
			Lo:    bLo,
			Hi:    bHi,
		}
	}

	for _, v := range values {
		idx := 0
		if width > 0 {
			idx = int((v - lo) / width)
		}
		if idx >= n {
			idx = n - 1
		}
		bins[idx].Count++
	}
	return bins
}

// CategoryCount is the size of one category
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// GroupBy counts records per distinct value of field, largest first.
// Ties keep first-encountered order.
func GroupBy(records []models.Record, field models.CategoricalField) []CategoryCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range records {
		key := field.Value(r)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	out := make([]CategoryCount, len(order))
	for i, key := range order {
		out[i] = CategoryCount{Category: key, Count: counts[key]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// CategoryRate is the default rate within one category
type CategoryRate struct {
	Category string  `json:"category"`
	Rate     float64 `json:"rate"` // percent, 2 decimals
	Defaults int     `json:"defaults"`
	Total    int     `json:"total"`
}

// DefaultRateByCategory computes the default percentage per observed category,
// highest rate first. Ties keep first-encountered order.
func DefaultRateByCategory(records []models.Record, field models.CategoricalField) []CategoryRate {
	type tally struct{ defaults, total int }
	tallies := make(map[string]*tally)
	order := make([]string, 0)
	for _, r := range records {
		key := field.Value(r)
		t, seen := tallies[key]
		if !seen {
			t = &tally{}
			tallies[key] = t
			order = append(order, key)
		}
		t.total++
		if r.Defaulted() {
			t.defaults++
		}
	}

	out := make([]CategoryRate, len(order))
	for i, key := range order {
		t := tallies[key]
		out[i] = CategoryRate{
			Category: key,
			Rate:     stats.Round(stats.Percent(t.defaults, t.total), 2),
			Defaults: t.defaults,
			Total:    t.total,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate > out[j].Rate })
	return out
}

// NumericValues collects the present values of field
func NumericValues(records []models.Record, field models.NumericField) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := field.Value(r); ok {
			values = append(values, v)
		}
	}
	return values
}

func categoryPoint(category string, value float64, count int) models.ChartPoint {
	if category == "" {
		return models.ChartPoint{Label: blankLabel, Value: value, Count: count, Blank: true}
	}
	return models.ChartPoint{Label: category, Value: value, Count: count}
}

func binPoints(bins []Bin) []models.ChartPoint {
	points := make([]models.ChartPoint, len(bins))
	for i, b := range bins {
		lo, hi := b.Lo, b.Hi
		points[i] = models.ChartPoint{Label: b.Label, Value: float64(b.Count), Count: b.Count, Lo: &lo, Hi: &hi}
	}
	return points
}

func countPoints(groups []CategoryCount) []models.ChartPoint {
	points := make([]models.ChartPoint, len(groups))
	for i, g := range groups {
		points[i] = categoryPoint(g.Category, float64(g.Count), g.Count)
	}
	return points
}

func ratePoints(rates []CategoryRate) []models.ChartPoint {
	points := make([]models.ChartPoint, len(rates))
	for i, r := range rates {
		points[i] = categoryPoint(r.Category, r.Rate, r.Total)
	}
	return points
}

func relabelTarget(points []models.ChartPoint) {
	for i := range points {
		switch points[i].Label {
		case "0":
			points[i].Label = "Repaid"
		case "1":
			points[i].Label = "Defaulted"
		}
	}
}
