package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/safe-harbor/internal/service"
)

func TestPostgresStorage_ListSnapshotsQuery(t *testing.T) {
	p := &PostgresStorage{sb: newStatementBuilder()}

	tests := []struct {
		name     string
		wantSQL  string
		wantArgs []any
		filter   service.SnapshotFilter
	}{
		{
			name:    "all",
			filter:  service.SnapshotFilter{},
			wantSQL: "SELECT id::text, property_name, analyzed_at, area, year, denominator, status, deep_option, source, result_json::text FROM compliance_snapshots ORDER BY analyzed_at DESC, id",
		},
		{
			name:     "property with limit",
			filter:   service.SnapshotFilter{PropertyName: "Elm Court", Limit: 5},
			wantSQL:  "SELECT id::text, property_name, analyzed_at, area, year, denominator, status, deep_option, source, result_json::text FROM compliance_snapshots WHERE property_name = $1 ORDER BY analyzed_at DESC, id LIMIT 5",
			wantArgs: []any{"Elm Court"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := p.listSnapshotsQuery(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, query)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestPostgresStorage_InsertSnapshotQuery(t *testing.T) {
	p := &PostgresStorage{sb: newStatementBuilder()}
	snap := createTestSnapshot("Elm Court", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, prepareSnapshot(snap))

	query, args, err := p.insertSnapshotQuery(snap)
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO compliance_snapshots (id,property_name,analyzed_at,area,year,denominator,status,deep_option,source,result_json) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)",
		query)
	require.Len(t, args, 10)
	assert.Equal(t, snap.ID, args[0])
	assert.Equal(t, "Elm Court", args[1])
	assert.Equal(t, "COMPLIANT", args[6])
	assert.Contains(t, args[9], `"is_compliant":true`)
}
