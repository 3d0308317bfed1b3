package incomelimits

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/safe-harbor/internal/common"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDefaultTable_TierOrdering(t *testing.T) {
	table := Default()

	for size := MinHouseholdSize; size <= MaxHouseholdSize; size++ {
		row := table.LimitsFor(size)
		assert.Equal(t, size, row.HouseholdSize)
		assert.True(t, row.VeryLow.LessThan(row.Low60), "size %d: very_low < low_60", size)
		assert.True(t, row.Low60.LessThan(row.Low80), "size %d: low_60 < low_80", size)

		if size > MinHouseholdSize {
			prev := table.LimitsFor(size - 1)
			assert.True(t, prev.VeryLow.LessThan(row.VeryLow), "size %d very_low increases", size)
			assert.True(t, prev.Low60.LessThan(row.Low60), "size %d low_60 increases", size)
			assert.True(t, prev.Low80.LessThan(row.Low80), "size %d low_80 increases", size)
		}
	}
}

func TestDefaultTable_Values(t *testing.T) {
	table := Default()

	assert.Equal(t, DefaultArea, table.Area())
	assert.Equal(t, DefaultYear, table.Year())

	four := table.LimitsFor(4)
	assert.True(t, four.VeryLow.Equal(d("60000")))
	assert.True(t, four.Low60.Equal(d("72000")))
	assert.True(t, four.Low80.Equal(d("96000")))
	assert.True(t, four.Median.Equal(d("120000")))

	two := table.LimitsFor(2)
	assert.True(t, two.Low80.Equal(d("76800")))
	assert.True(t, table.AMI100(2).Equal(d("96000")))
}

func TestLimitsFor_Clamps(t *testing.T) {
	table := Default()

	tests := []struct {
		name string
		size int
		want int
	}{
		{name: "zero clamps to one", size: 0, want: 1},
		{name: "negative clamps to one", size: -3, want: 1},
		{name: "in range", size: 5, want: 5},
		{name: "upper bound", size: 8, want: 8},
		{name: "nine clamps to eight", size: 9, want: 8},
		{name: "large household clamps to eight", size: 14, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.LimitsFor(tt.size).HouseholdSize)
		})
	}
}

func TestNewTable_Validation(t *testing.T) {
	valid := Default().Rows()

	tests := []struct {
		name   string
		mutate func([]Limits) []Limits
	}{
		{
			name:   "too few rows",
			mutate: func(rows []Limits) []Limits { return rows[:7] },
		},
		{
			name: "tier order broken",
			mutate: func(rows []Limits) []Limits {
				rows[2].Low60 = rows[2].Low80
				return rows
			},
		},
		{
			name: "size order broken",
			mutate: func(rows []Limits) []Limits {
				rows[5].VeryLow = rows[4].VeryLow
				return rows
			},
		},
		{
			name: "duplicate size",
			mutate: func(rows []Limits) []Limits {
				rows[7].HouseholdSize = 7
				return rows
			},
		},
		{
			name: "zero limits",
			mutate: func(rows []Limits) []Limits {
				rows[0].VeryLow = decimal.Zero
				return rows
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]Limits, len(valid))
			copy(rows, valid)
			_, err := NewTable("Test", 2025, tt.mutate(rows))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidTable)
		})
	}
}

func TestNewTable_AcceptsUnorderedRows(t *testing.T) {
	rows := Default().Rows()
	rows[0], rows[7] = rows[7], rows[0]

	table, err := NewTable("Shuffled", 2024, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, table.LimitsFor(1).HouseholdSize)
	assert.Equal(t, 8, table.LimitsFor(8).HouseholdSize)
}

func TestRows_ReturnsCopy(t *testing.T) {
	table := Default()
	rows := table.Rows()
	rows[0].Low80 = decimal.NewFromInt(1)

	assert.True(t, table.LimitsFor(1).Low80.Equal(d("67200")))
}

func TestFromMedian_RejectsNonPositive(t *testing.T) {
	_, err := FromMedian("Nowhere", 2025, decimal.Zero)
	assert.ErrorIs(t, err, common.ErrInvalidTable)
}

func TestLoad(t *testing.T) {
	t.Run("median shorthand", func(t *testing.T) {
		doc := `
area: Riverside County
year: 2024
median_four_person: 100000
`
		table, err := Load(strings.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, "Riverside County", table.Area())
		assert.Equal(t, 2024, table.Year())
		assert.True(t, table.LimitsFor(4).Low80.Equal(d("80000")))
		assert.True(t, table.LimitsFor(1).VeryLow.Equal(d("35000")))
	})

	t.Run("explicit rows", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("area: Explicit\nyear: 2025\nrows:\n")
		for _, row := range Default().Rows() {
			b.WriteString("  - household_size: " + decimal.NewFromInt(int64(row.HouseholdSize)).String() + "\n")
			b.WriteString("    very_low: " + row.VeryLow.String() + "\n")
			b.WriteString("    low_60: " + row.Low60.String() + "\n")
			b.WriteString("    low_80: " + row.Low80.String() + "\n")
			b.WriteString("    median: " + row.Median.String() + "\n")
		}

		table, err := Load(strings.NewReader(b.String()))
		require.NoError(t, err)
		assert.True(t, table.LimitsFor(3).Low80.Equal(d("86400")))
	})

	t.Run("errors", func(t *testing.T) {
		docs := map[string]string{
			"empty":        "",
			"no area":      "year: 2025\nmedian_four_person: 90000\n",
			"no data":      "area: X\nyear: 2025\n",
			"unknown key":  "area: X\nmedian: 5\n",
			"both sources": "area: X\nmedian_four_person: 90000\nrows:\n  - household_size: 1\n",
		}
		for name, doc := range docs {
			t.Run(name, func(t *testing.T) {
				_, err := Load(strings.NewReader(doc))
				assert.ErrorIs(t, err, common.ErrInvalidTable)
			})
		}
	})
}
