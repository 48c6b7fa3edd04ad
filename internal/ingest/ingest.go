package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Dan9191/credit-analytics/internal/models"
)

// ErrMissingColumns is returned when a file lacks one of the required columns
var ErrMissingColumns = errors.New("missing required columns")

// ErrNoRows is returned when a file has a header but no data
var ErrNoRows = errors.New("file has no data rows")

// RequiredColumns must be present in every uploaded dataset
var RequiredColumns = []string{"TARGET", "CODE_GENDER", "DAYS_BIRTH", "AMT_INCOME_TOTAL", "AMT_CREDIT"}

const defaultContractType = "Cash loans"

// Result is the outcome of parsing an uploaded dataset
type Result struct {
	Records []models.Record
	Skipped int // rows dropped because a required value was not a finite number
}

// ParseCSV reads a comma-separated Home Credit extract
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return FromRows(rows)
}

// ParseXLSX reads the first sheet of an Excel workbook
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return FromRows(rows)
}

// FromRows converts a header row plus data rows into raw records.
// Optional columns fall back to defaults; rows whose required numbers do not parse are skipped.
func FromRows(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		header[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	res := &Result{Records: make([]models.Record, 0, len(rows)-1)}
	for i, cells := range rows[1:] {
		rec, ok := parseRow(cells, header, int64(i+1))
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

type row struct {
	cells  []string
	header map[string]int
}

func (r row) str(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// parseFinite parses a decimal number, rejecting NaN, infinities and overflow
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

func (r row) number(col string, def float64) float64 {
	v, err := parseFinite(r.str(col))
	if err != nil {
		return def
	}
	return v
}

func (r row) integer(col string, def int) int {
	return int(r.number(col, float64(def)))
}

func (r row) flag(col string) bool {
	switch strings.ToUpper(r.str(col)) {
	case "Y", "1", "TRUE":
		return true
	default:
		return false
	}
}

func parseRow(cells []string, header map[string]int, seq int64) (models.Record, bool) {
	r := row{cells: cells, header: header}

	target, err := parseFinite(r.str("TARGET"))
	if err != nil || (target != 0 && target != 1) {
		return models.Record{}, false
	}
	daysBirth, err := parseFinite(r.str("DAYS_BIRTH"))
	if err != nil {
		return models.Record{}, false
	}
	income, err := parseFinite(r.str("AMT_INCOME_TOTAL"))
	if err != nil {
		return models.Record{}, false
	}
	credit, err := parseFinite(r.str("AMT_CREDIT"))
	if err != nil {
		return models.Record{}, false
	}

	id := int64(r.integer("SK_ID_CURR", 0))
	if id == 0 {
		id = seq
	}
	gender := r.str("CODE_GENDER")
	if gender == "" {
		gender = models.GenderUnspecified
	}
	contract := r.str("NAME_CONTRACT_TYPE")
	if contract == "" {
		contract = defaultContractType
	}

	return models.Record{
		ID:            id,
		Target:        int(target),
		Gender:        gender,
		FamilyStatus:  r.str("NAME_FAMILY_STATUS"),
		Education:     r.str("NAME_EDUCATION_TYPE"),
		Occupation:    r.str("OCCUPATION_TYPE"),
		HousingType:   r.str("NAME_HOUSING_TYPE"),
		ContractType:  contract,
		OwnCar:        r.flag("FLAG_OWN_CAR"),
		OwnRealty:     r.flag("FLAG_OWN_REALTY"),
		DaysBirth:     int(daysBirth),
		DaysEmployed:  r.integer("DAYS_EMPLOYED", 0),
		Children:      r.integer("CNT_CHILDREN", 0),
		FamilyMembers: r.number("CNT_FAM_MEMBERS", 1),
		Income:        income,
		Credit:        credit,
		Annuity:       r.number("AMT_ANNUITY", 0),
		GoodsPrice:    r.number("AMT_GOODS_PRICE", credit),
		RegionRating:  r.integer("REGION_RATING_CLIENT", 2),
	}, true
}
