package model

import "time"

// ComplianceSnapshot is a persisted, read-only copy of a ComplianceResult taken at AnalyzedAt.
// Snapshots are history; they are never used in place of a fresh analysis.
type ComplianceSnapshot struct {
	AnalyzedAt   time.Time
	Result       *ComplianceResult
	ID           string
	PropertyName string
	Area         string
	// Source names the rent roll the analysis was run from, if any.
	Source      string
	Status      ComplianceStatus
	Option      DeepAffordabilityOption
	Year        int
	Denominator int
}

// NewSnapshot captures result as of now. The ID is assigned when the snapshot is saved.
func NewSnapshot(property, area string, year int, source string, result *ComplianceResult) *ComplianceSnapshot {
	snap := &ComplianceSnapshot{
		AnalyzedAt:   time.Now().UTC(),
		Result:       result,
		PropertyName: property,
		Area:         area,
		Source:       source,
		Year:         year,
	}
	if result != nil {
		snap.Status = result.Status
		snap.Option = result.Option
		snap.Denominator = result.Stats.Denominator
	}
	return snap
}
