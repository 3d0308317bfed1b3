package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/compliance"
	"github.com/Veraticus/safe-harbor/internal/incomelimits"
)

const compliantRoll = `Unit,Tenant Name,Household Size,Annual Income,Monthly Rent
101,Jane Smith,2,40000,900
102,John Doe,2,"$40,000",900
103,Maria Garcia,2,55000,900
104,Sam Lee,2,100000,2500
`

func testEngine(t *testing.T) (*compliance.Engine, *incomelimits.Table) {
	t.Helper()
	table := incomelimits.Default()
	engine, err := compliance.NewEngine(table, compliance.DefaultThresholds())
	require.NoError(t, err)
	return engine, table
}

func writeRoll(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestPropertyNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"elm_court.csv", "elm court"},
		{"/data/rolls/oak-terrace.csv", "oak terrace"},
		{"Maple", "Maple"},
		{"-", "Property"},
		{"", "Property"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, propertyNameFromPath(tt.path))
		})
	}
}

func TestSplitPropertyArg(t *testing.T) {
	name, path := splitPropertyArg("Elm Court=rolls/elm.csv")
	assert.Equal(t, "Elm Court", name)
	assert.Equal(t, "rolls/elm.csv", path)

	name, path = splitPropertyArg("rolls/oak_terrace.csv")
	assert.Equal(t, "oak terrace", name)
	assert.Equal(t, "rolls/oak_terrace.csv", path)
}

func TestLoadRentRoll(t *testing.T) {
	path := writeRoll(t, "elm.csv", compliantRoll)

	records, err := loadRentRoll(path, nil)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "40000", records[1].GrossAnnualIncome.String())

	records, err = loadRentRoll("-", strings.NewReader(compliantRoll))
	require.NoError(t, err)
	assert.Len(t, records, 4)

	_, err = loadRentRoll(filepath.Join(t.TempDir(), "missing.csv"), nil)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	bad := writeRoll(t, "bad.csv", "Unit,Tenant Name,Household Size,Annual Income,Monthly Rent\n101,A,zero,1,1\n")
	_, err = loadRentRoll(bad, nil)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "bad.csv")
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTemplate(&buf, ""))
	assert.True(t, strings.HasPrefix(buf.String(), "Unit,"))

	path := filepath.Join(t.TempDir(), "template.csv")
	buf.Reset()
	require.NoError(t, writeTemplate(&buf, path))
	assert.Contains(t, buf.String(), path)

	records, err := loadRentRoll(path, nil)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
