// Package verifier junta oracle, validação da resposta, patch e reward num
// único ponto de avaliação por amostra.
package verifier

import (
	"context"
	"fmt"
	"sort"

	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/oracle"
	"github.com/Sena-ops/configaudit/internal/parser"
	"github.com/Sena-ops/configaudit/internal/reward"
	"github.com/Sena-ops/configaudit/internal/schema"
)

// Sample é uma amostra a avaliar: a resposta do modelo e o fixture auditado.
// O oracle vem de Oracle quando preenchido, senão de GoldenPath, senão das
// ferramentas executadas sobre Paths.
type Sample struct {
	Completion string
	Paths      []string
	Type       parser.ArtifactType
	Oracle     []model.Violation
	GoldenPath string
}

// Verifier calcula o reward de uma amostra. Details devolve os valores
// auxiliares da última chamada a Score.
type Verifier interface {
	Score(ctx context.Context, s Sample) (float64, error)
	Details() map[string]any
}

// Deps são os colaboradores compartilhados pelas implementações. Reward nil
// usa reward.DefaultConfig(); um Config zerado é respeitado como veio.
type Deps struct {
	Builder   *oracle.Builder
	Validator *schema.Validator
	Table     model.SeverityTable
	Reward    *reward.Config
}

type factory func(Deps) (Verifier, error)

var registry = map[string]factory{
	ConfigAuditName: func(d Deps) (Verifier, error) { return NewConfigAudit(d) },
}

// New escolhe a implementação pelo nome configurado.
func New(name string, deps Deps) (Verifier, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("verificador '%s' não suportado (disponíveis: %v)", name, Names())
	}
	return f(deps)
}

// Names lista os verificadores registrados.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
