package analytics

import (
	"math"
	"sort"

	"github.com/Dan9191/credit-analytics/internal/models"
	"github.com/Dan9191/credit-analytics/internal/stats"
)

// Correlation returns the Pearson coefficient of x and y over records where both are present
func Correlation(records []models.Record, x, y models.NumericField) float64 {
	pairs := make([]stats.Pair, 0, len(records))
	for _, r := range records {
		xv, okX := x.Value(r)
		yv, okY := y.Value(r)
		if okX && okY {
			pairs = append(pairs, stats.Pair{X: xv, Y: yv})
		}
	}
	return stats.Round(stats.Pearson(pairs), 3)
}

// CorrelationMatrix returns the coefficient for every ordered pair of fields, row by row
func CorrelationMatrix(records []models.Record, fields []models.NumericField) []models.CorrelationCell {
	cells := make([]models.CorrelationCell, 0, len(fields)*len(fields))
	for _, x := range fields {
		for _, y := range fields {
			cells = append(cells, models.CorrelationCell{X: x, Y: y, Coefficient: Correlation(records, x, y)})
		}
	}
	return cells
}

// TargetCorrelations ranks fields by the strength of their correlation with the target
func TargetCorrelations(records []models.Record, fields []models.NumericField) []models.CorrelationCell {
	cells := make([]models.CorrelationCell, 0, len(fields))
	for _, f := range fields {
		if f == models.FieldTarget {
			continue
		}
		cells = append(cells, models.CorrelationCell{
			X:           f,
			Y:           models.FieldTarget,
			Coefficient: Correlation(records, f, models.FieldTarget),
		})
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return math.Abs(cells[i].Coefficient) > math.Abs(cells[j].Coefficient)
	})
	return cells
}
