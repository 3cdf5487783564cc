package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validCSV = "date,category,poids_kg,destination,notes\n" +
	"2025-01-15,Vaisselle,12.5,Réemploi,assiettes\n" +
	"2025-01-16,DEEE,3.2,Recyclage,\n"

func TestValidateOK(t *testing.T) {
	t.Parallel()

	report := Validate([]byte(validCSV))
	require.True(t, report.IsValid)
	require.Empty(t, report.Errors)
	require.Equal(t, 2, report.Statistics.TotalLines)
	require.Equal(t, 2, report.Statistics.ValidLines)
	require.Equal(t, 0, report.Statistics.InvalidLines)
}

func TestValidateHeaderOrderIndependent(t *testing.T) {
	t.Parallel()

	data := "notes,poids_kg,category,destination,date\n" +
		"rien,4,Textile,Réemploi,2025-02-01\n"
	rows, report := ParseRows([]byte(data))
	require.True(t, report.IsValid)
	require.Len(t, rows, 1)
	require.Equal(t, "Textile", rows[0].CategoryRaw)
	require.InDelta(t, 4.0, rows[0].PoidsKg, 1e-9)
}

func TestValidateBOMTolerated(t *testing.T) {
	t.Parallel()

	report := Validate([]byte("\ufeff" + validCSV))
	require.True(t, report.IsValid)
}

func TestValidateMissingNotesColumn(t *testing.T) {
	t.Parallel()

	data := "date,category,poids_kg,destination\n2025-01-15,Vaisselle,2,Réemploi\n"
	report := Validate([]byte(data))
	require.False(t, report.IsValid)
	require.Contains(t, report.Statistics.MissingColumns, "notes")
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "notes") {
			found = true
		}
	}
	require.True(t, found, "an error must name the missing column")
}

func TestValidateExtraColumnWarns(t *testing.T) {
	t.Parallel()

	data := "date,category,poids_kg,destination,notes,operateur\n" +
		"2025-01-15,Vaisselle,2,Réemploi,,Jean\n"
	report := Validate([]byte(data))
	require.True(t, report.IsValid)
	require.Contains(t, report.Statistics.ExtraColumns, "operateur")
	require.NotEmpty(t, report.Warnings)
}

func TestValidateNonISODate(t *testing.T) {
	t.Parallel()

	data := "date,category,poids_kg,destination,notes\n15/01/2025,Vaisselle,2,Réemploi,\n"
	report := Validate([]byte(data))
	require.False(t, report.IsValid)
	require.Equal(t, 1, report.Statistics.DateErrors)
	require.Equal(t, 1, report.Statistics.InvalidLines)
}

func TestValidateWeightErrors(t *testing.T) {
	t.Parallel()

	data := "date,category,poids_kg,destination,notes\n" +
		"2025-01-15,Vaisselle,0,Réemploi,\n" +
		"2025-01-16,DEEE,-5.0,Recyclage,\n" +
		"2025-01-17,Textile,abc,Recyclage,\n" +
		"2025-01-18,Livres,,Recyclage,\n"
	report := Validate([]byte(data))
	require.False(t, report.IsValid)
	require.Equal(t, 4, report.Statistics.WeightErrors)
	require.Equal(t, 4, report.Statistics.InvalidLines)
	require.Equal(t, 0, report.Statistics.ValidLines)
}

func TestValidateCommaDecimalWeight(t *testing.T) {
	t.Parallel()

	data := "date,category,poids_kg,destination,notes\n2025-01-15,Vaisselle,\"12,5\",Réemploi,\n"
	rows, report := ParseRows([]byte(data))
	require.True(t, report.IsValid)
	require.Len(t, rows, 1)
	require.InDelta(t, 12.5, rows[0].PoidsKg, 1e-9)
}

func TestValidateEmptyCategory(t *testing.T) {
	t.Parallel()

	data := "date,category,poids_kg,destination,notes\n2025-01-15,,2,Réemploi,\n"
	report := Validate([]byte(data))
	require.False(t, report.IsValid)
	require.Equal(t, 1, report.Statistics.InvalidLines)
}

func TestValidateFooterTotauxIsWarning(t *testing.T) {
	t.Parallel()

	data := validCSV + "TOTAUX,,15.7,,\n"
	report := Validate([]byte(data))
	require.True(t, report.IsValid, "a totals footer must not be a data error")
	require.Equal(t, 2, report.Statistics.TotalLines)
	require.Equal(t, 1, report.Statistics.StructureIssues)
	require.NotEmpty(t, report.Warnings)
}

func TestValidateFooterLeadingEmptyCells(t *testing.T) {
	t.Parallel()

	data := validCSV + ",,15.7,,\n"
	report := Validate([]byte(data))
	require.True(t, report.IsValid)
	require.Equal(t, 1, report.Statistics.StructureIssues)
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	t.Parallel()

	data := "date,category,poids_kg,destination,notes\n" +
		"15/01/2025,Vaisselle,2,Réemploi,\n" +
		"2025-01-16,,0,Recyclage,\n"
	report := Validate([]byte(data))
	require.False(t, report.IsValid)
	// second row carries both an empty category and a zero weight
	require.Len(t, report.Errors, 3)
	require.Equal(t, 2, report.Statistics.InvalidLines)
}
