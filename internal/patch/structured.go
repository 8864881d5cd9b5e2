package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "gopkg.in/evanphx/json-patch.v4"
	"sigs.k8s.io/yaml"
)

// Operation é uma operação de JSON Patch ({"op", "path", "from", "value"}).
// Value fica como JSON bruto para distinguir "ausente" de null.
type Operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Add monta uma operação add serializando v.
func Add(path string, v any) (Operation, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Op: "add", Path: path, Value: raw}, nil
}

var supportedOps = map[string]struct {
	needsValue bool
	needsFrom  bool
}{
	"add":     {needsValue: true},
	"remove":  {},
	"replace": {needsValue: true},
	"move":    {needsFrom: true},
	"test":    {needsValue: true},
}

// ParseOperations decodifica uma lista JSON de operações.
func ParseOperations(b []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(b, &ops); err != nil {
		return nil, &ApplyError{Reason: "lista de operações malformada", Err: err}
	}
	return ops, nil
}

// ApplyStructured aplica as operações, em ordem, sobre uma cópia do objeto
// e devolve o objeto modificado (com os tipos do encoding/json). O documento
// original não é alterado. Qualquer falha de uma operação descarta o
// resultado inteiro.
func ApplyStructured(doc any, ops []Operation) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &ApplyError{Reason: "documento não serializável", Err: err}
	}
	patched, err := applyJSON(raw, ops)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(patched, &out); err != nil {
		return nil, &ApplyError{Reason: "resultado inválido", Err: err}
	}
	return out, nil
}

// ApplyStructuredYAML aplica as operações num manifesto YAML (um documento) e
// devolve o YAML resultante. As chaves saem em ordem alfabética.
func ApplyStructuredYAML(manifest []byte, ops []Operation) ([]byte, error) {
	raw, err := yaml.YAMLToJSON(manifest)
	if err != nil {
		return nil, &ApplyError{Reason: "manifesto YAML inválido", Err: err}
	}
	patched, err := applyJSON(raw, ops)
	if err != nil {
		return nil, err
	}
	out, err := yaml.JSONToYAML(patched)
	if err != nil {
		return nil, &ApplyError{Reason: "resultado inválido", Err: err}
	}
	return out, nil
}

func applyJSON(doc []byte, ops []Operation) ([]byte, error) {
	if err := validateOps(ops); err != nil {
		return nil, err
	}
	// uma operação por vez para que o erro aponte qual falhou
	for i, op := range ops {
		encoded, err := json.Marshal([]Operation{op})
		if err != nil {
			return nil, &ApplyError{Where: where(i, op), Reason: "operação não serializável", Err: err}
		}
		p, err := jsonpatch.DecodePatch(encoded)
		if err != nil {
			return nil, &ApplyError{Where: where(i, op), Reason: "operação malformada", Err: err}
		}
		doc, err = p.Apply(doc)
		if err != nil {
			return nil, &ApplyError{Where: where(i, op), Reason: "caminho não resolvido ou teste falhou", Err: err}
		}
	}
	return doc, nil
}

func validateOps(ops []Operation) error {
	for i, op := range ops {
		req, ok := supportedOps[op.Op]
		if !ok {
			return &ApplyError{Where: where(i, op), Reason: fmt.Sprintf("operação %q não suportada", op.Op)}
		}
		if op.Path != "" && !strings.HasPrefix(op.Path, "/") {
			return &ApplyError{Where: where(i, op), Reason: "path precisa ser um JSON pointer (começar com /)"}
		}
		if req.needsValue && len(op.Value) == 0 {
			return &ApplyError{Where: where(i, op), Reason: "operação sem value"}
		}
		if req.needsFrom && op.From == "" {
			return &ApplyError{Where: where(i, op), Reason: "operação sem from"}
		}
	}
	return nil
}

func where(i int, op Operation) string {
	return fmt.Sprintf("op %d (%s %s)", i, op.Op, op.Path)
}
