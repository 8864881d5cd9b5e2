package sarif

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/configaudit/internal/model"
)

func sampleFindings() []model.ToolFinding {
	return []model.ToolFinding{
		{Tool: "semgrep", RuleID: "tf.s3-public", Severity: "WARNING", Message: " bucket público ", File: "./infra/main.tf", StartLine: 12, EndLine: 15},
		{Tool: "kube-linter", RuleID: "run-as-non-root", Severity: "Error", Message: "roda como root", File: "pod.yaml", StartLine: 0},
		{Tool: "kube-linter", RuleID: "latest-tag", Severity: "", File: "", StartLine: 3, EndLine: 1},
	}
}

func TestBuild(t *testing.T) {
	log := Build(sampleFindings(), "configaudit", "0.1.0")

	require.Len(t, log.Runs, 1)
	assert.Equal(t, "2.1.0", log.Version)
	assert.Equal(t, "configaudit", log.Runs[0].Tool.Driver.Name)

	results := log.Runs[0].Results
	require.Len(t, results, 3)

	// ordenado por arquivo, linha e id
	assert.Equal(t, "kube-linter/latest-tag", results[0].RuleID)
	assert.Equal(t, "note", results[0].Level)
	assert.Equal(t, "UNKNOWN", results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 0, results[0].Locations[0].PhysicalLocation.Region.EndLine)

	assert.Equal(t, "semgrep/tf.s3-public", results[1].RuleID)
	assert.Equal(t, "warning", results[1].Level)
	assert.Equal(t, "bucket público", results[1].Message.Text)
	assert.Equal(t, "infra/main.tf", results[1].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, Region{StartLine: 12, EndLine: 15}, results[1].Locations[0].PhysicalLocation.Region)

	assert.Equal(t, "kube-linter/run-as-non-root", results[2].RuleID)
	assert.Equal(t, "error", results[2].Level)
	assert.Equal(t, 1, results[2].Locations[0].PhysicalLocation.Region.StartLine)
}

func TestBuildDoesNotReorderInput(t *testing.T) {
	in := sampleFindings()
	Build(in, "configaudit", "0.1.0")
	assert.Equal(t, "semgrep", in[0].Tool)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()

	path, err := Export(sampleFindings(), dir, "oracle", "configaudit", "0.1.0")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Log
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Runs[0].Results, 3)
	assert.Contains(t, string(data), `"$schema"`)
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(nil, "configaudit", "dev")))
	assert.Contains(t, buf.String(), `"results": []`)
}
