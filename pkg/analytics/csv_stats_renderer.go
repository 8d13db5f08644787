package analytics

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"github.com/expensetracker/expenses/pkg/record"
	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderStats(stats ExpenseStats) (string, error)
	RenderRecords(records []record.Record) (string, error)
}

type CsvStatsRendererImpl struct {
}

func NewCsvStatsRenderer() *CsvStatsRendererImpl {
	return &CsvStatsRendererImpl{}
}

// RenderStats writes one row per trend month followed by the totals and the per-category counts.
func (t *CsvStatsRendererImpl) RenderStats(stats ExpenseStats) (string, error) {
	data := make([][]string, 0, len(stats.MonthlyTrend)+len(stats.CategoryCounts)+4)
	data = append(data, []string{"Month", "Amount"})
	for _, month := range stats.MonthlyTrend {
		data = append(data, []string{month.Label, month.Amount.StringFixed(2)})
	}
	data = append(data,
		[]string{"Total", stats.TotalAmount.StringFixed(2)},
		[]string{"Average", stats.AverageAmount.StringFixed(2)},
		[]string{"Count", strconv.Itoa(stats.TotalExpenses)},
	)

	categories := make([]string, 0, len(stats.CategoryCounts))
	for category := range stats.CategoryCounts {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		data = append(data, []string{category, strconv.Itoa(stats.CategoryCounts[category])})
	}

	return writeCsv(data)
}

func (t *CsvStatsRendererImpl) RenderRecords(records []record.Record) (string, error) {
	data := make([][]string, 0, len(records)+1)
	data = append(data, []string{"Date", "Description", "Category", "Amount"})
	for _, r := range records {
		data = append(data, []string{
			r.Date.Format("2006-01-02"),
			r.Text,
			r.Category,
			r.Amount.StringFixed(2),
		})
	}
	return writeCsv(data)
}

func writeCsv(data [][]string) (string, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}
