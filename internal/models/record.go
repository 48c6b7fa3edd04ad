package models

// DaysEmployedUnemployed is the DAYS_EMPLOYED value reserved for applicants without a current job
const DaysEmployedUnemployed = 365243

// Gender values as they appear in CODE_GENDER
const (
	GenderMale        = "M"
	GenderFemale      = "F"
	GenderUnspecified = "XNA"
)

// IncomeBracket is the batch-relative income classification
type IncomeBracket string

const (
	BracketLow  IncomeBracket = "Low"
	BracketMid  IncomeBracket = "Mid"
	BracketHigh IncomeBracket = "High"
)

// Record represents a single loan application
type Record struct {
	ID     int64 `json:"id"`
	Target int   `json:"target"` // 1 = defaulted, 0 = repaid

	Gender       string `json:"gender"`
	FamilyStatus string `json:"family_status"`
	Education    string `json:"education"`
	Occupation   string `json:"occupation"`
	HousingType  string `json:"housing_type"`
	ContractType string `json:"contract_type"`
	OwnCar       bool   `json:"own_car"`
	OwnRealty    bool   `json:"own_realty"`

	DaysBirth     int     `json:"days_birth"`
	DaysEmployed  int     `json:"days_employed"`
	Children      int     `json:"children"`
	FamilyMembers float64 `json:"family_members"`
	Income        float64 `json:"income"`
	Credit        float64 `json:"credit"`
	Annuity       float64 `json:"annuity"`
	GoodsPrice    float64 `json:"goods_price"`
	RegionRating  int     `json:"region_rating"`

	Features      *Features     `json:"features,omitempty"`
	IncomeBracket IncomeBracket `json:"income_bracket,omitempty"`
}

// Features holds values derived from the raw fields of a record
type Features struct {
	AgeYears        float64 `json:"age_years"`
	EmploymentYears float64 `json:"employment_years"`
	DTI             float64 `json:"dti"`
	LTI             float64 `json:"lti"`
	AnnuityToCredit float64 `json:"annuity_to_credit"`
	// IncomeRatiosDefined is false when income is zero; DTI and LTI are then 0 and must be ignored
	IncomeRatiosDefined bool `json:"income_ratios_defined"`
	// CreditRatioDefined is false when credit is zero; AnnuityToCredit is then 0 and must be ignored
	CreditRatioDefined bool `json:"credit_ratio_defined"`
}

// Defaulted reports whether the applicant failed to repay
func (r Record) Defaulted() bool {
	return r.Target == 1
}

// Unemployed reports whether DaysEmployed carries the unemployed sentinel
func (r Record) Unemployed() bool {
	return r.DaysEmployed == DaysEmployedUnemployed
}
