package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityTableWeight(t *testing.T) {
	table := DefaultSeverityTable()

	assert.Equal(t, 0.3, table.Weight(SevLow))
	assert.Equal(t, 0.6, table.Weight(SevMed))
	assert.Equal(t, 1.0, table.Weight(SevHigh))
	assert.Equal(t, 0.3, table.Weight(Severity("critical")))
}

func TestWeightMapLastSeenWins(t *testing.T) {
	table := DefaultSeverityTable()

	got := table.WeightMap([]Violation{
		{ID: "semgrep/a", Severity: SevHigh},
		{ID: "semgrep/b", Severity: SevLow},
		{ID: "semgrep/a", Severity: SevMed},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, 0.6, got["semgrep/a"])
	assert.Equal(t, 0.3, got["semgrep/b"])
}

func TestViolationID(t *testing.T) {
	assert.Equal(t, "kube-linter/run-as-non-root", ViolationID("kube-linter", "run-as-non-root"))
	assert.Equal(t, "semgrep/x", ViolationID(" semgrep ", "x "))
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, SevLow.Valid())
	assert.True(t, SevMed.Valid())
	assert.True(t, SevHigh.Valid())
	assert.False(t, Severity("medium").Valid())
	assert.False(t, Severity("").Valid())
}
