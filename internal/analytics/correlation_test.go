package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/credit-analytics/internal/models"
)

func TestCorrelation_SkipsMissingValues(t *testing.T) {
	var records []models.Record
	for i := 1; i <= 10; i++ {
		records = append(records, models.Record{
			Income:   float64(i * 1000),
			Credit:   float64(i*2000 + 500),
			Features: &models.Features{AgeYears: float64(20 + i)},
		})
	}
	// no derived age: dropped from age pairs only
	records = append(records, models.Record{Income: 1, Credit: 999999})

	assert.InDelta(t, 1.0, Correlation(records[:10], models.FieldIncome, models.FieldCredit), 1e-9)
	assert.InDelta(t, 1.0, Correlation(records, models.FieldAgeYears, models.FieldIncome), 1e-9)
	assert.Less(t, Correlation(records, models.FieldIncome, models.FieldCredit), 1.0)
}

func TestCorrelation_ZeroVariance(t *testing.T) {
	records := []models.Record{
		{Income: 1, Children: 2}, {Income: 2, Children: 2}, {Income: 3, Children: 2},
	}
	assert.Equal(t, 0.0, Correlation(records, models.FieldIncome, models.FieldChildren))
}

func TestCorrelationMatrix(t *testing.T) {
	records := syntheticBatch(t, 600, 17)
	fields := []models.NumericField{models.FieldIncome, models.FieldCredit, models.FieldAgeYears}

	cells := CorrelationMatrix(records, fields)
	require.Len(t, cells, 9)
	for i, c := range cells {
		assert.False(t, math.IsNaN(c.Coefficient))
		assert.LessOrEqual(t, math.Abs(c.Coefficient), 1.0)
		if c.X == c.Y {
			assert.Equal(t, 1.0, c.Coefficient, "diagonal at %d", i)
		}
	}
	// credit is drawn as a multiple of income
	assert.Greater(t, cells[1].Coefficient, 0.5)
	assert.Equal(t, cells[1].Coefficient, cells[3].Coefficient, "matrix is symmetric")
}

func TestTargetCorrelations(t *testing.T) {
	records := syntheticBatch(t, 600, 17)
	cells := TargetCorrelations(records, models.NumericFields)

	require.Len(t, cells, len(models.NumericFields)-1)
	for i := 1; i < len(cells); i++ {
		assert.GreaterOrEqual(t, math.Abs(cells[i-1].Coefficient), math.Abs(cells[i].Coefficient))
	}
	for _, c := range cells {
		assert.Equal(t, models.FieldTarget, c.Y)
		assert.NotEqual(t, models.FieldTarget, c.X)
	}
}
