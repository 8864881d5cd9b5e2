package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/configaudit/internal/config"
	"github.com/Sena-ops/configaudit/internal/testutil"
)

// run executa o comando raiz com args e devolve stdout. As flags são
// variáveis de pacote, então cada chamada parte dos valores padrão.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	oracleType, oracleFormat, oracleOut, oracleInput = "", "json", "", ""
	oraclePolicies, oracleEach = nil, false
	scoreCompletion, scoreGolden, scoreType = "", "", ""
	patchDiff, patchOps, patchOut = "", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "nenhum.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "ok.json", "```json\n{\"violations\":[{\"id\":\"a\",\"severity\":\"high\"}],\"patch\":null,\"confidence\":0.9}\n```")
	bad := testutil.WriteFile(t, dir, "ruim.json", `{"violations":"x"}`)

	out, err := run(t, "validate", good)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "", decoded["patch"])

	_, err = run(t, "validate", bad)
	assert.Error(t, err)
}

func TestPatchCommand(t *testing.T) {
	dir := t.TempDir()
	target := testutil.WriteFile(t, dir, "doc.json", `{"a":1}`)
	ops := testutil.WriteFile(t, dir, "ops.json", `[{"op":"add","path":"/b","value":2}]`)

	out, err := run(t, "patch", "--json-patch", ops, target)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":2}`, out)

	text := testutil.WriteFile(t, dir, "f.txt", "line1\nline2\n")
	diffFile := testutil.WriteFile(t, dir, "f.diff", "@@ -1,2 +1,2 @@\n line1\n-line2\n+lineX\n")
	dest := filepath.Join(dir, "saida.txt")
	_, err = run(t, "patch", "--diff", diffFile, "--out", dest, text)
	require.NoError(t, err)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "line1\nlineX\n", string(got))

	_, err = run(t, "patch", "--diff", diffFile, "--json-patch", ops, text)
	assert.Error(t, err)
}

func TestOracleAndScoreCommands(t *testing.T) {
	bin := testutil.FakeTool(t, "kube-linter", `
echo '{"reports":[{"check":"run-as-non-root","severity":"Error","message":"m","kubeObject":{"file":"pod.yaml","line":1,"column":1}}]}'
exit 1`)
	t.Setenv(config.EnvKubeLinterBin, bin)

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "pod.yaml", "apiVersion: v1\nkind: Pod\n")
	golden := filepath.Join(t.TempDir(), "golden.json")

	out, err := run(t, "oracle", "--out", golden, dir)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"kube-linter/run-as-non-root","severity":"high"}]`, out)
	assert.FileExists(t, golden)

	completion := testutil.WriteFile(t, t.TempDir(), "c.json",
		`{"violations":[{"id":"kube-linter/run-as-non-root","severity":"high"}],"patch":"","confidence":1}`)
	out, err = run(t, "score", "--completion", completion, "--golden", golden)
	require.NoError(t, err)
	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &details))
	assert.InDelta(t, 1.05, details["reward"], 1e-9)

	out, err = run(t, "oracle", "--format", "sarif", "--type", "k8s", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"ruleId": "kube-linter/run-as-non-root"`)
}
