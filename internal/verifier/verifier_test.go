package verifier

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sena-ops/configaudit/internal/adapters"
	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/oracle"
	"github.com/Sena-ops/configaudit/internal/parser"
	"github.com/Sena-ops/configaudit/internal/reward"
	"github.com/Sena-ops/configaudit/internal/testutil"
)

const podManifest = `apiVersion: v1
kind: Pod
metadata:
  name: app
spec:
  containers:
    - name: app
      image: nginx:1.25
`

const fixPatch = `--- a/pod.yaml
+++ b/pod.yaml
@@ -6,3 +6,5 @@
   containers:
     - name: app
       image: nginx:1.25
+      securityContext:
+        runAsNonRoot: true
`

// kube-linter falso: acusa run-as-non-root enquanto o manifesto não tiver
// runAsNonRoot: true.
const fakeLinterBody = `
shift 3
if grep -rqs "runAsNonRoot: true" "$@"; then
  echo '{"reports":[]}'
  exit 0
fi
echo '{"reports":[{"check":"run-as-non-root","severity":"Error","message":"m","kubeObject":{"file":"pod.yaml","line":1,"column":1}}]}'
exit 1`

func newVerifier(t *testing.T, linterBody string) Verifier {
	t.Helper()
	bin := testutil.FakeTool(t, "kube-linter", linterBody)
	cfg := reward.DefaultConfig()
	v, err := New(ConfigAuditName, Deps{
		Builder: oracle.NewBuilder(map[string]adapters.Options{
			adapters.KubeLinterName: {Bin: bin, Timeout: 5 * time.Second},
		}),
		Table:  model.DefaultSeverityTable(),
		Reward: &cfg,
	})
	require.NoError(t, err)
	return v
}

func fixture(t *testing.T) string {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "pod.yaml", podManifest)
	return dir
}

func completion(t *testing.T, violations []model.Violation, patch string) string {
	t.Helper()
	if violations == nil {
		violations = []model.Violation{}
	}
	b, err := json.Marshal(map[string]any{"violations": violations, "patch": patch, "confidence": 0.8})
	require.NoError(t, err)
	return string(b)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

var runAsNonRoot = model.Violation{ID: "kube-linter/run-as-non-root", Severity: model.SevHigh}

func TestConfigAuditCorrectDetectionAndFix(t *testing.T) {
	v := newVerifier(t, fakeLinterBody)
	dir := fixture(t)

	r, err := v.Score(context.Background(), Sample{
		Completion: completion(t, []model.Violation{runAsNonRoot}, fixPatch),
		Paths:      []string{dir},
	})
	require.NoError(t, err)
	assert.Equal(t, reward.MaxReward, r)

	d := v.Details()
	assert.Equal(t, true, d["patch_applied"])
	assert.Equal(t, true, d["valid"])
	assert.Equal(t, 1.0, d["f1"])
	assert.Equal(t, 1.0, d["patch_delta"])
	assert.Equal(t, 0, d["post_patch_size"])
	assert.Equal(t, 0.8, d["confidence"])
	assert.NotEmpty(t, d["run_id"])

	// o fixture original não pode ser alterado pelo patch
	assert.NotContains(t, readFile(t, filepath.Join(dir, "pod.yaml")), "runAsNonRoot")
}

func TestConfigAuditReauditKeepsSiblingFiles(t *testing.T) {
	// o linter falso exige o values.yaml ao lado do manifesto, como um chart Helm
	body := `
shift 3
if [ ! -f "$1/values.yaml" ]; then echo "values.yaml ausente" >&2; exit 2; fi
if grep -rqs "runAsNonRoot: true" "$@"; then
  echo '{"reports":[]}'
  exit 0
fi
echo '{"reports":[{"check":"run-as-non-root","severity":"Error","message":"m","kubeObject":{"file":"pod.yaml","line":1,"column":1}}]}'
exit 1`
	v := newVerifier(t, body)
	dir := fixture(t)
	testutil.WriteFile(t, dir, "values.yaml", "replicas: 2\n")

	r, err := v.Score(context.Background(), Sample{
		Completion: completion(t, []model.Violation{runAsNonRoot}, fixPatch),
		Paths:      []string{dir},
		Type:       parser.Kubernetes,
	})
	require.NoError(t, err)
	assert.Equal(t, reward.MaxReward, r)
	assert.Equal(t, true, v.Details()["patch_applied"])
}

func TestConfigAuditPatchAlonePushesAboveOne(t *testing.T) {
	v := newVerifier(t, fakeLinterBody)

	r, err := v.Score(context.Background(), Sample{
		Completion: completion(t, nil, fixPatch),
		Paths:      []string{fixture(t)},
		Type:       parser.Kubernetes,
	})
	require.NoError(t, err)
	assert.Greater(t, r, 1.0)
	assert.Equal(t, 0.0, v.Details()["f1"])
}

func TestConfigAuditPatchNotApplying(t *testing.T) {
	v := newVerifier(t, fakeLinterBody)
	bad := "--- a/pod.yaml\n+++ b/pod.yaml\n@@ -1,1 +1,1 @@\n-apiVersion: v2\n+apiVersion: v1\n"

	r, err := v.Score(context.Background(), Sample{
		Completion: completion(t, []model.Violation{runAsNonRoot}, bad),
		Paths:      []string{fixture(t)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.05, r, 1e-9)

	d := v.Details()
	assert.Equal(t, false, d["patch_applied"])
	assert.Equal(t, 0.0, d["patch_delta"])
	assert.Equal(t, 1, d["post_patch_size"])
}

func TestConfigAuditReauditFailureFallsBack(t *testing.T) {
	// a primeira execução grava um marcador; a segunda (reauditoria) falha
	marker := filepath.Join(t.TempDir(), "ran")
	body := `
if [ -f "` + marker + `" ]; then echo "quebrou" >&2; exit 2; fi
touch "` + marker + `"
echo '{"reports":[{"check":"run-as-non-root","severity":"Error","message":"m","kubeObject":{"file":"pod.yaml","line":1,"column":1}}]}'
exit 1`
	v := newVerifier(t, body)

	r, err := v.Score(context.Background(), Sample{
		Completion: completion(t, []model.Violation{runAsNonRoot}, fixPatch),
		Paths:      []string{fixture(t)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.05, r, 1e-9)
	assert.Equal(t, false, v.Details()["patch_applied"])
}

func TestConfigAuditInvalidCompletion(t *testing.T) {
	v := newVerifier(t, fakeLinterBody)

	for _, text := range []string{
		"não é json",
		`{"violations":[{"id":"x","severity":"critical"}],"confidence":1}`,
		`{"patch":"","confidence":0.5}`,
	} {
		r, err := v.Score(context.Background(), Sample{Completion: text, Paths: []string{fixture(t)}})
		require.NoError(t, err, text)
		assert.InDelta(t, -0.25, r, 1e-9, text)
		assert.Equal(t, false, v.Details()["valid"], text)
	}
}

func TestConfigAuditValidBeatsInvalid(t *testing.T) {
	v := newVerifier(t, fakeLinterBody)
	oracleSet := []model.Violation{runAsNonRoot}

	valid, err := v.Score(context.Background(), Sample{
		Completion: "```json\n" + completion(t, nil, "") + "\n```",
		Oracle:     oracleSet,
	})
	require.NoError(t, err)
	invalid, err := v.Score(context.Background(), Sample{Completion: "{", Oracle: oracleSet})
	require.NoError(t, err)

	assert.InDelta(t, 0.30, valid-invalid, 1e-9)
}

func TestConfigAuditGoldenOracle(t *testing.T) {
	v := newVerifier(t, `echo "não deveria rodar" >&2; exit 2`)
	golden := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, oracle.WriteGolden(golden, []model.Violation{runAsNonRoot}))

	r, err := v.Score(context.Background(), Sample{
		Completion: completion(t, []model.Violation{runAsNonRoot}, ""),
		GoldenPath: golden,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.05, r, 1e-9)
	assert.Equal(t, 1, v.Details()["oracle_size"])
}

func TestConfigAuditOracleFailure(t *testing.T) {
	v := newVerifier(t, `echo "config quebrada" >&2; exit 2`)

	r, err := v.Score(context.Background(), Sample{
		Completion: completion(t, nil, ""),
		Paths:      []string{fixture(t)},
	})
	require.Error(t, err)
	assert.Equal(t, reward.MinReward, r)

	_, err = v.Score(context.Background(), Sample{Completion: "{}"})
	assert.Error(t, err)
}

func TestNewUnknownVerifier(t *testing.T) {
	_, err := New("network_egress", Deps{})
	assert.Error(t, err)
	assert.Equal(t, []string{ConfigAuditName}, Names())
}

func TestNewConfigAuditDefaults(t *testing.T) {
	c, err := NewConfigAudit(Deps{})
	require.NoError(t, err)

	r, err := c.Score(context.Background(), Sample{
		Completion: completion(t, []model.Violation{runAsNonRoot}, ""),
		Oracle:     []model.Violation{runAsNonRoot},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.05, r, 1e-9)
}

func TestNewConfigAuditZeroRewardConfig(t *testing.T) {
	// pesos zerados de propósito: sem bônus de formato, só o F1 conta
	c, err := NewConfigAudit(Deps{Reward: &reward.Config{}})
	require.NoError(t, err)

	r, err := c.Score(context.Background(), Sample{
		Completion: completion(t, []model.Violation{runAsNonRoot}, ""),
		Oracle:     []model.Violation{runAsNonRoot},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 0.0, c.Details()["format_term"])
}
