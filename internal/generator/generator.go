package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Dan9191/credit-analytics/internal/models"
)

// ErrInvalidCount is returned when the requested record count is not positive
var ErrInvalidCount = errors.New("record count must be positive")

const (
	firstID = 100001

	ageMean   = 42.0
	ageStdDev = 12.0
	ageMin    = 18.0
	ageMax    = 80.0

	// log-normal income, median around 147k
	incomeMu    = 11.9
	incomeSigma = 0.55

	blankOccupationProb = 0.05
	unemployedProb      = 0.10
	unspecifiedGender   = 0.005
	maxTenureYears      = 25.0

	baseDefaultRate = 0.08
	maxDefaultRisk  = 0.5

	daysPerYear = 365.25

	// DefaultEffectiveRate is the annual rate used for annuities when no key rate is configured
	DefaultEffectiveRate = 0.12
)

var (
	Educations = []string{
		"Secondary / secondary special",
		"Higher education",
		"Incomplete higher",
		"Lower secondary",
		"Academic degree",
	}
	FamilyStatuses = []string{
		"Married",
		"Single / not married",
		"Civil marriage",
		"Separated",
		"Widow",
	}
	HousingTypes = []string{
		"House / apartment",
		"With parents",
		"Municipal apartment",
		"Rented apartment",
		"Office apartment",
		"Co-op apartment",
	}
	Occupations = []string{
		"Laborers", "Sales staff", "Core staff", "Managers", "Drivers",
		"High skill tech staff", "Accountants", "Medicine staff", "Security staff",
		"Cooking staff", "Cleaning staff", "Private service staff", "Low-skill Laborers",
		"Waiters/barmen staff", "Secretaries", "Realty agents", "HR staff", "IT staff",
	}
	ContractTypes = []string{"Cash loans", "Revolving loans"}
)

// Options tunes the synthetic portfolio
type Options struct {
	// EffectiveRate is the annual interest rate (0.12 = 12%) behind the annuity calculation
	EffectiveRate float64
}

// DefaultOptions returns the options used when nothing else is configured
func DefaultOptions() Options {
	return Options{EffectiveRate: DefaultEffectiveRate}
}

// NewSource returns a deterministic random source for the given seed
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate produces count raw applications drawn from rng.
// The same seed always yields the same records.
func Generate(count int, rng *rand.Rand, opts Options) ([]models.Record, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if opts.EffectiveRate <= 0 {
		opts.EffectiveRate = DefaultEffectiveRate
	}

	records := make([]models.Record, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, generateOne(int64(firstID+i), rng, opts))
	}
	return records, nil
}

func generateOne(id int64, rng *rand.Rand, opts Options) models.Record {
	age := drawAge(rng)
	income := math.Round(math.Exp(incomeMu + incomeSigma*rng.NormFloat64()))

	gender := pickGender(rng)
	education := pick(rng, Educations)
	familyStatus := pick(rng, FamilyStatuses)
	housing := pick(rng, HousingTypes)
	occupation := pick(rng, Occupations)
	if rng.Float64() < blankOccupationProb {
		occupation = ""
	}
	contract := pick(rng, ContractTypes)

	tenure := rng.Float64() * maxTenureYears
	if rng.Float64() < unemployedProb {
		tenure = -1
	}

	risk := defaultRisk(age, income, education, tenure)
	target := 0
	if rng.Float64() < risk {
		target = 1
	}

	credit := math.Round(income * (2 + rng.Float64()*6) * (0.9 + rng.Float64()*0.2))
	rate := opts.EffectiveRate * (0.8 + rng.Float64()*0.4)
	annuity := math.Round(credit*rate/12*100) / 100
	goods := math.Round(credit * (0.8 + rng.Float64()*0.4))

	children := pick(rng, []int{0, 0, 0, 1, 1, 2, 3})
	members := float64(children + 1)
	if familyStatus == "Married" || familyStatus == "Civil marriage" {
		members++
	}

	return models.Record{
		ID:            id,
		Target:        target,
		Gender:        gender,
		FamilyStatus:  familyStatus,
		Education:     education,
		Occupation:    occupation,
		HousingType:   housing,
		ContractType:  contract,
		OwnCar:        rng.Float64() < 0.35,
		OwnRealty:     rng.Float64() < 0.7,
		DaysBirth:     -int(age * daysPerYear),
		DaysEmployed:  daysEmployed(tenure),
		Children:      children,
		FamilyMembers: members,
		Income:        income,
		Credit:        credit,
		Annuity:       annuity,
		GoodsPrice:    goods,
		RegionRating:  1 + rng.IntN(3),
	}
}

// drawAge rejection-samples a normal distribution into [ageMin, ageMax]
func drawAge(rng *rand.Rand) float64 {
	for {
		age := ageMean + ageStdDev*rng.NormFloat64()
		if age >= ageMin && age <= ageMax {
			return age
		}
	}
}

func daysEmployed(tenure float64) int {
	if tenure < 0 {
		return models.DaysEmployedUnemployed
	}
	return -int(tenure * daysPerYear)
}

func pickGender(rng *rand.Rand) string {
	if rng.Float64() < unspecifiedGender {
		return models.GenderUnspecified
	}
	if rng.IntN(2) == 0 {
		return models.GenderMale
	}
	return models.GenderFemale
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
