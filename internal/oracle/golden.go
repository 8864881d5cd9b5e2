package oracle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/normalize"
)

// LoadGolden lê um oracle pré-computado: um array JSON de {id, severity}.
// Serve para fixtures em que reexecutar as ferramentas não é possível ou
// desejável no momento da avaliação.
func LoadGolden(path string) ([]model.Violation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler golden: %w", err)
	}
	return ParseGolden(b)
}

// ParseGolden valida e decodifica o conteúdo de um arquivo golden.
func ParseGolden(b []byte) ([]model.Violation, error) {
	var vs []model.Violation
	if err := json.Unmarshal(b, &vs); err != nil {
		return nil, fmt.Errorf("golden inválido: %w", err)
	}
	for i, v := range vs {
		if strings.TrimSpace(v.ID) == "" {
			return nil, fmt.Errorf("golden inválido: item %d sem id", i)
		}
		if !v.Severity.Valid() {
			return nil, fmt.Errorf("golden inválido: item %d com severidade %q", i, v.Severity)
		}
	}
	if vs == nil {
		vs = []model.Violation{}
	}
	return vs, nil
}

// WriteGolden grava o oracle no formato golden, colapsado por id e ordenado,
// para congelar o resultado de uma execução real.
func WriteGolden(path string, vs []model.Violation) error {
	deduped := normalize.Dedupe(vs)
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].ID < deduped[j].ID })

	data, err := json.MarshalIndent(normalize.ToPRDSchema(deduped), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal golden: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("criar dir golden: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("escrever golden: %w", err)
	}
	return nil
}
