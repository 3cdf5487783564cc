package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Required headers of the legacy export. Order in the file is not significant.
var requiredColumns = []string{"date", "category", "poids_kg", "destination", "notes"}

// RawImportRow is one parsed CSV data line. Never persisted directly.
type RawImportRow struct {
	Line        int
	Date        time.Time
	CategoryRaw string
	PoidsKg     float64
	Destination string
	Notes       string
}

// ValidationStatistics aggregates per-scan counters.
type ValidationStatistics struct {
	TotalLines      int      `json:"total_lines"`
	ValidLines      int      `json:"valid_lines"`
	InvalidLines    int      `json:"invalid_lines"`
	MissingColumns  []string `json:"missing_columns"`
	ExtraColumns    []string `json:"extra_columns"`
	DateErrors      int      `json:"date_errors"`
	WeightErrors    int      `json:"weight_errors"`
	StructureIssues int      `json:"structure_issues"`
}

// ValidationReport is a complete inventory of structural problems in one
// export. Errors and warnings are accumulated; the scan never aborts on the
// first failure.
type ValidationReport struct {
	IsValid    bool                 `json:"is_valid"`
	Errors     []string             `json:"errors"`
	Warnings   []string             `json:"warnings"`
	Statistics ValidationStatistics `json:"statistics"`
}

// Validate checks column presence and per-row well-formedness of a legacy CSV
// export. IsValid holds iff Errors is empty.
func Validate(data []byte) ValidationReport {
	_, report := ParseRows(data)
	return report
}

// ParseRows validates the export and returns the rows that passed, alongside
// the full report. Footer/totals artifacts are excluded from line counts.
func ParseRows(data []byte) ([]RawImportRow, ValidationReport) {
	report := ValidationReport{}
	records, err := readRecords(data)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("fichier CSV illisible: %v", err))
		return nil, finalize(report)
	}
	if len(records) == 0 {
		report.Errors = append(report.Errors, "fichier CSV vide")
		return nil, finalize(report)
	}

	index := headerIndex(records[0])
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			report.Statistics.MissingColumns = append(report.Statistics.MissingColumns, col)
			report.Errors = append(report.Errors, fmt.Sprintf("colonne obligatoire manquante: %s", col))
		}
	}
	for _, col := range records[0] {
		name := strings.ToLower(strings.TrimSpace(stripBOM(col)))
		if !isRequired(name) {
			report.Statistics.ExtraColumns = append(report.Statistics.ExtraColumns, name)
			report.Warnings = append(report.Warnings, fmt.Sprintf("colonne inconnue ignorée: %s", name))
		}
	}
	if len(report.Statistics.MissingColumns) > 0 {
		// Without the full header set the rows cannot be addressed.
		return nil, finalize(report)
	}

	var rows []RawImportRow
	for i, rec := range records[1:] {
		line := i + 2 // 1-based, after the header

		if isFooterRow(rec, index) {
			report.Statistics.StructureIssues++
			report.Warnings = append(report.Warnings, fmt.Sprintf("ligne %d ignorée: ligne de totaux", line))
			continue
		}

		report.Statistics.TotalLines++
		rowOK := true

		date, err := parseISODate(field(rec, index, "date"))
		if err != nil {
			report.Statistics.DateErrors++
			report.Errors = append(report.Errors, fmt.Sprintf("ligne %d: date invalide %q (format attendu AAAA-MM-JJ)", line, field(rec, index, "date")))
			rowOK = false
		}

		weight, err := parseWeight(field(rec, index, "poids_kg"))
		if err != nil {
			report.Statistics.WeightErrors++
			report.Errors = append(report.Errors, fmt.Sprintf("ligne %d: poids invalide %q (nombre strictement positif attendu)", line, field(rec, index, "poids_kg")))
			rowOK = false
		}

		category := strings.TrimSpace(field(rec, index, "category"))
		if category == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("ligne %d: catégorie vide", line))
			rowOK = false
		}

		if !rowOK {
			report.Statistics.InvalidLines++
			continue
		}
		report.Statistics.ValidLines++
		rows = append(rows, RawImportRow{
			Line:        line,
			Date:        date,
			CategoryRaw: category,
			PoidsKg:     weight,
			Destination: strings.TrimSpace(field(rec, index, "destination")),
			Notes:       strings.TrimSpace(field(rec, index, "notes")),
		})
	}
	return rows, finalize(report)
}

func finalize(r ValidationReport) ValidationReport {
	r.IsValid = len(r.Errors) == 0
	return r
}

func readRecords(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	csvr := csv.NewReader(bytes.NewReader(data))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	var out [][]string
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(stripBOM(col)))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return index
}

func isRequired(name string) bool {
	for _, col := range requiredColumns {
		if col == name {
			return true
		}
	}
	return false
}

func field(rec []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// isFooterRow flags totals/footer artifacts heuristically: a TOTAL/TOTAUX
// token in any cell, or at least two leading empty cells followed by a
// numeric weight.
func isFooterRow(rec []string, index map[string]int) bool {
	for _, cell := range rec {
		for _, tok := range strings.FieldsFunc(strings.ToUpper(cell), func(r rune) bool { return !unicode.IsLetter(r) }) {
			if tok == "TOTAL" || tok == "TOTAUX" {
				return true
			}
		}
	}
	leadingEmpty := 0
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			break
		}
		leadingEmpty++
	}
	if leadingEmpty >= 2 {
		if _, err := parseWeight(field(rec, index, "poids_kg")); err == nil {
			return true
		}
	}
	return false
}

// parseISODate accepts ISO-8601 YYYY-MM-DD exactly. Locale formats such as
// DD/MM/YYYY are errors, never a silent fallback.
func parseISODate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(s))
}

// parseWeight normalizes comma decimals and stray spaces, then requires a
// strictly positive number.
func parseWeight(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, fmt.Errorf("poids vide")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("poids non positif: %v", f)
	}
	return f, nil
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
