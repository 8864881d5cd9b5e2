package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOps(t *testing.T, s string) []Operation {
	t.Helper()
	ops, err := ParseOperations([]byte(s))
	require.NoError(t, err)
	return ops
}

func TestApplyStructuredAdd(t *testing.T) {
	doc := map[string]any{"a": 1}

	got, err := ApplyStructured(doc, mustOps(t, `[{"op":"add","path":"/b","value":2}]`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, got)
	assert.Equal(t, map[string]any{"a": 1}, doc, "documento original não pode mudar")
}

func TestApplyStructuredOperations(t *testing.T) {
	doc := map[string]any{
		"spec": map[string]any{
			"replicas": 1,
			"template": map[string]any{"image": "app:latest"},
			"hostPID":  true,
		},
	}

	tests := []struct {
		name string
		ops  string
		want map[string]any
	}{
		{
			name: "add aninhado",
			ops:  `[{"op":"add","path":"/spec/template/securityContext","value":{"runAsNonRoot":true}}]`,
			want: map[string]any{"spec": map[string]any{
				"replicas": float64(1),
				"template": map[string]any{"image": "app:latest", "securityContext": map[string]any{"runAsNonRoot": true}},
				"hostPID":  true,
			}},
		},
		{
			name: "remove e replace",
			ops:  `[{"op":"remove","path":"/spec/hostPID"},{"op":"replace","path":"/spec/template/image","value":"app:1.0"}]`,
			want: map[string]any{"spec": map[string]any{
				"replicas": float64(1),
				"template": map[string]any{"image": "app:1.0"},
			}},
		},
		{
			name: "move com test",
			ops:  `[{"op":"test","path":"/spec/replicas","value":1},{"op":"move","from":"/spec/replicas","path":"/replicas"}]`,
			want: map[string]any{
				"replicas": float64(1),
				"spec": map[string]any{
					"template": map[string]any{"image": "app:latest"},
					"hostPID":  true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyStructured(doc, mustOps(t, tt.ops))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyStructuredErrors(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1}}

	tests := []struct {
		name string
		ops  []Operation
	}{
		{"operação desconhecida", []Operation{{Op: "merge", Path: "/a"}}},
		{"add sem value", []Operation{{Op: "add", Path: "/c"}}},
		{"move sem from", []Operation{{Op: "move", Path: "/c"}}},
		{"path sem barra", []Operation{{Op: "remove", Path: "a"}}},
		{"caminho inexistente", mustOps(t, `[{"op":"add","path":"/x/y/z","value":1}]`)},
		{"remove inexistente", mustOps(t, `[{"op":"remove","path":"/a/nada"}]`)},
		{"test falha", mustOps(t, `[{"op":"test","path":"/a/b","value":2}]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyStructured(doc, tt.ops)
			var applyErr *ApplyError
			assert.ErrorAs(t, err, &applyErr)
		})
	}

	_, err := ParseOperations([]byte(`{"op":"add"}`))
	var applyErr *ApplyError
	assert.ErrorAs(t, err, &applyErr)
}

func TestApplyStructuredWhereNamesFailingOp(t *testing.T) {
	ops := mustOps(t, `[{"op":"add","path":"/ok","value":1},{"op":"remove","path":"/missing"}]`)

	_, err := ApplyStructured(map[string]any{}, ops)
	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "op 1 (remove /missing)", applyErr.Where)
}

func TestAddHelper(t *testing.T) {
	op, err := Add("/b", 2)
	require.NoError(t, err)

	got, err := ApplyStructured(map[string]any{"a": 1}, []Operation{op})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, got)
}

func TestApplyStructuredYAML(t *testing.T) {
	manifest := []byte(`apiVersion: v1
kind: Pod
metadata:
  name: app
spec:
  containers:
  - name: app
    image: nginx
`)
	ops := mustOps(t, `[{"op":"add","path":"/spec/containers/0/securityContext","value":{"runAsNonRoot":true}}]`)

	got, err := ApplyStructuredYAML(manifest, ops)
	require.NoError(t, err)
	assert.Contains(t, string(got), "runAsNonRoot: true")
	assert.Contains(t, string(got), "image: nginx")

	_, err = ApplyStructuredYAML([]byte("a: [1"), ops)
	var applyErr *ApplyError
	assert.ErrorAs(t, err, &applyErr)
}
