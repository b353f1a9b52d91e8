package parser

import (
	"encoding/csv"
	"strings"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

// csvColumns holds the indices located from the header row; -1 when absent.
type csvColumns struct {
	credit  int
	debit   int
	balance int
}

func locateColumns(header []string) csvColumns {
	return csvColumns{
		credit:  headerIndex(header, "credit"),
		debit:   headerIndex(header, "debit"),
		balance: headerIndex(header, "balance"),
	}
}

// splitRow splits one CSV line, honouring quoted cells such as "1,250.00".
// Lines the csv package rejects fall back to a plain comma split.
func splitRow(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	record, err := r.Read()
	if err != nil {
		record = strings.Split(line, ",")
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func extractCSV(lines []string, trace bool) (models.FinancialAggregates, []models.TraceLine) {
	var agg models.FinancialAggregates
	var traces []models.TraceLine
	if len(lines) == 0 {
		return agg, nil
	}

	cols := locateColumns(splitRow(lines[0]))
	if trace {
		traces = append(traces, models.TraceLine{LineNum: 1, Text: lines[0], Result: "header"})
	}

	for i := 1; i < len(lines); i++ {
		row := splitRow(lines[i])
		t := models.TraceLine{LineNum: i + 1, Text: lines[i], Result: "skipped"}

		if v, err := parseAmount(cell(row, cols.credit)); err == nil && v > 0 {
			agg.TotalDeposits += v
			agg.TransactionCount++
			t.Result = "deposit"
			t.Amounts = append(t.Amounts, v)
		}
		if v, err := parseAmount(cell(row, cols.debit)); err == nil && v > 0 {
			agg.TotalWithdrawals += v
			agg.TransactionCount++
			if t.Result == "deposit" {
				t.Result = "deposit+withdrawal"
			} else {
				t.Result = "withdrawal"
			}
			t.Amounts = append(t.Amounts, v)
		}
		// Last parseable balance wins, even if it is lower than earlier rows.
		if v, err := parseAmount(cell(row, cols.balance)); err == nil {
			agg.TotalBalance = v
			if t.Result == "skipped" {
				t.Result = "balance"
			}
		}

		if trace {
			traces = append(traces, t)
		}
	}
	return agg, traces
}
