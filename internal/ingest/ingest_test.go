package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dan9191/credit-analytics/internal/models"
)

const sampleCSV = `SK_ID_CURR,TARGET,CODE_GENDER,DAYS_BIRTH,DAYS_EMPLOYED,AMT_INCOME_TOTAL,AMT_CREDIT,AMT_ANNUITY,CNT_FAM_MEMBERS,NAME_CONTRACT_TYPE,FLAG_OWN_CAR,NAME_EDUCATION_TYPE
100002,1,M,-9461,-637,202500,406597.5,24700.5,1,Cash loans,N,Secondary / secondary special
100003,0,F,-16765,-1188,270000,1293502.5,35698.5,2,Cash loans,N,Higher education
100004,0,M,-19046,365243,67500,135000,,,Revolving loans,Y,Secondary / secondary special
100005,x,F,-19005,-3039,135000,312682.5,29686.5,2,Cash loans,N,Secondary / secondary special
`

func TestParseCSV(t *testing.T) {
	res, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, 1, res.Skipped, "non-numeric target is skipped")

	first := res.Records[0]
	assert.Equal(t, int64(100002), first.ID)
	assert.Equal(t, 1, first.Target)
	assert.Equal(t, models.GenderMale, first.Gender)
	assert.Equal(t, -9461, first.DaysBirth)
	assert.Equal(t, 406597.5, first.Credit)
	assert.Equal(t, 406597.5, first.GoodsPrice, "goods price defaults to credit")
	assert.Equal(t, 2, first.RegionRating)

	third := res.Records[2]
	assert.True(t, third.Unemployed())
	assert.Equal(t, 0.0, third.Annuity, "missing annuity defaults to 0")
	assert.Equal(t, 1.0, third.FamilyMembers, "missing family size defaults to 1")
	assert.Equal(t, "Revolving loans", third.ContractType)
	assert.True(t, third.OwnCar)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("SK_ID_CURR,TARGET,DAYS_BIRTH\n1,0,-10000\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "CODE_GENDER")
	assert.Contains(t, err.Error(), "AMT_INCOME_TOTAL")
	assert.Contains(t, err.Error(), "AMT_CREDIT")
}

func TestFromRows_Defaults(t *testing.T) {
	rows := [][]string{
		{"\ufeffTARGET", "CODE_GENDER", "DAYS_BIRTH", "AMT_INCOME_TOTAL", "AMT_CREDIT"},
		{"0", "", "-12000", "90000", "180000"},
	}
	res, err := FromRows(rows)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, int64(1), r.ID, "sequential id without SK_ID_CURR")
	assert.Equal(t, models.GenderUnspecified, r.Gender)
	assert.Equal(t, "Cash loans", r.ContractType)
	assert.Equal(t, 0, r.Children)
	assert.Equal(t, 0, r.DaysEmployed)
}

func TestFromRows_Empty(t *testing.T) {
	_, err := FromRows(nil)
	assert.Error(t, err)

	_, err = FromRows([][]string{RequiredColumns})
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"SK_ID_CURR", "TARGET", "CODE_GENDER", "DAYS_BIRTH", "AMT_INCOME_TOTAL", "AMT_CREDIT"},
		{100010, 0, "M", -18850, 360000, 1530000},
		{100011, 1, "F", -20099, 112500, 1019610},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := ParseXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, int64(100011), res.Records[1].ID)
	assert.Equal(t, 1, res.Records[1].Target)
	assert.Equal(t, 1530000.0, res.Records[0].Credit)
}

func TestFromRows_NonFiniteNumbers(t *testing.T) {
	rows := [][]string{
		{"TARGET", "CODE_GENDER", "DAYS_BIRTH", "AMT_INCOME_TOTAL", "AMT_CREDIT", "AMT_ANNUITY", "CNT_FAM_MEMBERS"},
		{"0", "M", "-12000", "NaN", "180000", "9000", "2"},
		{"1", "F", "-13000", "150000", "Inf", "9000", "2"},
		{"0", "F", "-14000", "150000", "1e400", "9000", "2"},
		{"NaN", "M", "-15000", "150000", "300000", "9000", "2"},
		{"0", "M", "-16000", "150000", "300000", "-Inf", "NaN"},
	}
	res, err := FromRows(rows)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Skipped, "rows with non-finite required values are skipped")
	require.Len(t, res.Records, 1)

	kept := res.Records[0]
	assert.Equal(t, 0.0, kept.Annuity, "non-finite optional value falls back to its default")
	assert.Equal(t, 1.0, kept.FamilyMembers)
	assert.Equal(t, 300000.0, kept.GoodsPrice)
}
