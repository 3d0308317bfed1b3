package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/safe-harbor/internal/common"
	"github.com/Veraticus/safe-harbor/internal/model"
	"github.com/Veraticus/safe-harbor/internal/service"
	"github.com/Veraticus/safe-harbor/internal/sheets"
	"github.com/Veraticus/safe-harbor/internal/testutil"
	"github.com/Veraticus/safe-harbor/internal/testutil/rentrolls"
)

func TestAnalyzeRentRoll(t *testing.T) {
	ctx := context.Background()
	engine, table := testEngine(t)
	store := testutil.SetupTestDB(t).Storage
	path := writeRoll(t, "elm_court.csv", compliantRoll)

	var out bytes.Buffer
	err := analyzeRentRoll(ctx, nil, &out, engine, table, store, path, analyzeOptions{save: true, showUnits: true})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "elm court")
	assert.Contains(t, text, "COMPLIANT (Option A)")
	assert.Contains(t, text, "Saved snapshot")

	snaps, err := store.ListSnapshots(ctx, service.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "elm court", snaps[0].PropertyName)
	assert.Equal(t, path, snaps[0].Source)
	assert.Equal(t, table.Area(), snaps[0].Area)
	assert.Equal(t, model.StatusCompliant, snaps[0].Status)
	assert.Equal(t, 4, snaps[0].Denominator)
}

func TestAnalyzeRentRoll_VacantUnitsAndJSON(t *testing.T) {
	engine, table := testEngine(t)
	path := writeRoll(t, "elm.csv", compliantRoll)

	var out bytes.Buffer
	err := analyzeRentRoll(context.Background(), nil, &out, engine, table, nil, path,
		analyzeOptions{property: "Elm Court", totalUnits: 8, jsonOut: true})
	require.NoError(t, err)

	var result model.ComplianceResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, model.StatusNonCompliant, result.Status)
	assert.Equal(t, 8, result.Stats.Denominator)
	assert.Equal(t, 4, result.Stats.Unverified.Count)
	assert.Equal(t, 5, result.Stats.MarketRate.Count)
}

func TestAnalyzeRentRoll_Errors(t *testing.T) {
	engine, table := testEngine(t)
	ctx := context.Background()

	dup := writeRoll(t, "dup.csv", "Unit,Tenant Name,Household Size,Annual Income,Monthly Rent\n101,A,1,1000,100\n101,B,1,1000,100\n")
	err := analyzeRentRoll(ctx, nil, io.Discard, engine, table, nil, dup, analyzeOptions{})
	assert.ErrorIs(t, err, common.ErrValidation)

	roll := writeRoll(t, "elm.csv", compliantRoll)
	err = analyzeRentRoll(ctx, nil, io.Discard, engine, table, nil, roll, analyzeOptions{totalUnits: 2})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAnalyzePortfolio(t *testing.T) {
	ctx := context.Background()
	engine, table := testEngine(t)
	db := testutil.SetupTestDB(t)

	elm := writeRoll(t, "elm.csv", compliantRoll)
	oak := writeRoll(t, "oak.csv", rentrolls.NewBuilder(t).WithMarket(2).CSV())

	var out bytes.Buffer
	err := analyzePortfolio(ctx, nil, &out, io.Discard, engine, table, db.Storage,
		[]string{"Elm Court=" + elm, "Oak Terrace=" + oak},
		portfolioOptions{save: true, name: "North Side", totalUnits: map[string]int{"Oak Terrace": 3}})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Properties (1 of 2 compliant)")
	assert.Contains(t, text, "Saved 3 snapshots")

	combined := db.MustList("North Side")
	require.Len(t, combined, 1)
	assert.Equal(t, 7, combined[0].Denominator)
	assert.Equal(t, "portfolio", combined[0].Source)

	oakSnaps := db.MustList("Oak Terrace")
	require.Len(t, oakSnaps, 1)
	assert.Equal(t, 3, oakSnaps[0].Denominator)
	assert.Equal(t, model.StatusNonCompliant, oakSnaps[0].Status)
}

func TestLoadPortfolio_Errors(t *testing.T) {
	elm := writeRoll(t, "elm.csv", compliantRoll)

	_, err := loadPortfolio(nil, io.Discard, []string{"A=" + elm, "A=" + elm}, nil)
	assert.ErrorContains(t, err, "more than once")

	_, err = loadPortfolio(nil, io.Discard, []string{"A=" + elm}, map[string]int{"B": 3})
	assert.ErrorContains(t, err, "unknown property")

	_, err = loadPortfolio(strings.NewReader(compliantRoll), io.Discard, []string{"A=-", "B=-"}, nil)
	assert.ErrorContains(t, err, "standard input")
}

func TestClassifyHousehold(t *testing.T) {
	engine, _ := testEngine(t)

	var out bytes.Buffer
	require.NoError(t, classifyHousehold(&out, engine, classifyOptions{income: "76800", size: 2, rent: "0", jsonOut: true}))

	var unit model.ClassifiedUnit
	require.NoError(t, json.Unmarshal(out.Bytes(), &unit))
	assert.Equal(t, model.CategoryModerate, unit.Category)
	assert.Equal(t, 80, unit.AMIPercentage)
	assert.True(t, unit.QualifiesAt80)
	assert.False(t, unit.QualifiesAt60)

	err := classifyHousehold(io.Discard, engine, classifyOptions{income: "lots", size: 2, rent: "0"})
	assert.Error(t, err)

	err = classifyHousehold(io.Discard, engine, classifyOptions{income: "50000", size: 0, rent: "0"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestHistoryAndExport(t *testing.T) {
	ctx := context.Background()
	engine, table := testEngine(t)
	store := testutil.SetupTestDB(t).Storage

	path := writeRoll(t, "elm.csv", compliantRoll)
	require.NoError(t, analyzeRentRoll(ctx, nil, io.Discard, engine, table, store, path,
		analyzeOptions{property: "Elm Court", save: true}))

	snaps, err := store.ListSnapshots(ctx, service.SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	id := snaps[0].ID

	var out bytes.Buffer
	require.NoError(t, listHistory(ctx, &out, store, service.SnapshotFilter{PropertyName: "Elm Court"}))
	assert.Contains(t, out.String(), id)

	out.Reset()
	require.NoError(t, showSnapshot(ctx, &out, store, id, false, true))
	assert.Contains(t, out.String(), "Elm Court")
	assert.Contains(t, out.String(), "$40,000.00")

	err = showSnapshot(ctx, io.Discard, store, "8d2b3f4e-2c1a-4f5e-9b7d-0a1b2c3d4e5f", false, false)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, common.ErrNotFound)

	mock := sheets.NewMockWriter()
	out.Reset()
	require.NoError(t, exportSnapshot(ctx, &out, store, mock, id))
	assert.Equal(t, 1, mock.WriteCallCount)
	assert.Equal(t, id, mock.LastSnapshot.ID)
	assert.Contains(t, out.String(), "Exported Elm Court")

	mock.SetWriteError(errors.New("quota exceeded"))
	assert.Error(t, exportSnapshot(ctx, io.Discard, store, mock, id))
}

func TestListHistory_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	engine, table := testEngine(t)
	db := testutil.SetupTestDB(t)

	result, err := engine.Analyze(rentrolls.NewBuilder(t).WithFixture(rentrolls.FixtureOptionB).Build(), 0)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	snaps := make([]*model.ComplianceSnapshot, 3)
	for i := range snaps {
		snaps[i] = model.NewSnapshot("Birch Row", table.Area(), table.Year(), "birch.csv", result)
		snaps[i].AnalyzedAt = base.AddDate(0, i, 0)
	}
	db.MustSave(snaps...)

	var out bytes.Buffer
	require.NoError(t, listHistory(ctx, &out, db.Storage, service.SnapshotFilter{PropertyName: "Birch Row", Limit: 2}))

	text := out.String()
	assert.Contains(t, text, snaps[2].ID)
	assert.Contains(t, text, snaps[1].ID)
	assert.NotContains(t, text, snaps[0].ID)
	assert.Less(t, strings.Index(text, snaps[2].ID), strings.Index(text, snaps[1].ID))
}
