// Package oracle produz o conjunto de violações de referência (ground truth)
// de um fixture, executando as ferramentas reais ou lendo um arquivo golden.
package oracle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sena-ops/configaudit/internal/adapters"
	"github.com/Sena-ops/configaudit/internal/logging"
	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/normalize"
	"github.com/Sena-ops/configaudit/internal/parser"
)

// mapeamento fixo tipo de artefato -> ferramentas
var chains = map[parser.ArtifactType][]string{
	parser.Kubernetes: {adapters.KubeLinterName},
	parser.Terraform:  {adapters.SemgrepName},
}

// Builder escolhe a cadeia de adapters pelo tipo do artefato e normaliza o
// resultado. Não guarda estado entre chamadas; pode ser usado em paralelo.
type Builder struct {
	tools map[string]adapters.Options
}

// NewBuilder recebe as opções por ferramenta (binário, timeout, config,
// rule-packs). Ferramentas ausentes do mapa usam os padrões do adapter.
func NewBuilder(tools map[string]adapters.Options) *Builder {
	copied := make(map[string]adapters.Options, len(tools))
	for k, v := range tools {
		copied[k] = v
	}
	return &Builder{tools: copied}
}

// Findings executa a cadeia de ferramentas do tipo e devolve os findings
// brutos, antes da normalização.
func (b *Builder) Findings(ctx context.Context, paths []string, typ parser.ArtifactType) ([]model.ToolFinding, error) {
	chain, ok := chains[typ]
	if !ok {
		return nil, fmt.Errorf("tipo de artefato '%s' não suportado", typ)
	}

	var all []model.ToolFinding
	for _, name := range chain {
		adapter, err := adapters.Get(name)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		fs, err := adapter.Scan(ctx, paths, b.tools[name])
		if err != nil {
			return nil, fmt.Errorf("oracle %s: %w", typ, err)
		}
		logging.Logger.Infow("ferramenta executada", "tool", name, "tipo", typ, "findings", len(fs), "duracao", time.Since(start))
		all = append(all, fs...)
	}
	return all, nil
}

// Build retorna o oracle normalizado ({id, severity}) dos artefatos.
func (b *Builder) Build(ctx context.Context, paths []string, typ parser.ArtifactType) ([]model.Violation, error) {
	fs, err := b.Findings(ctx, paths, typ)
	if err != nil {
		return nil, err
	}
	return normalize.ToViolations(fs), nil
}

// BuildFromPolicy avalia bundles de política (OPA) contra um dado
// estruturado arbitrário; é o ponto de extensão para regras da organização.
func (b *Builder) BuildFromPolicy(ctx context.Context, input any, policyPaths []string) ([]model.Violation, error) {
	adapter, err := adapters.Get(adapters.OPAName)
	if err != nil {
		return nil, err
	}
	opts := b.tools[adapters.OPAName]
	opts.Input = input

	fs, err := adapter.Scan(ctx, policyPaths, opts)
	if err != nil {
		return nil, fmt.Errorf("oracle de política: %w", err)
	}
	return normalize.ToViolations(fs), nil
}

// Fixture é um conjunto de artefatos auditado de uma vez.
type Fixture struct {
	Name  string
	Paths []string
	Type  parser.ArtifactType
}

// BatchResult é o oracle (ou o erro) de um fixture do lote.
type BatchResult struct {
	Fixture    Fixture
	Violations []model.Violation
	Err        error
}

// BuildBatch monta os oracles de vários fixtures em paralelo, no máximo
// limit ao mesmo tempo (limit <= 0 = sem limite). A falha de um fixture fica
// no seu BatchResult e não cancela os demais; o chamador decide se aborta ou
// pula. Os resultados seguem a ordem da entrada.
func (b *Builder) BuildBatch(ctx context.Context, fixtures []Fixture, limit int) []BatchResult {
	results := make([]BatchResult, len(fixtures))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, fx := range fixtures {
		i, fx := i, fx
		g.Go(func() error {
			vs, err := b.Build(ctx, fx.Paths, fx.Type)
			if err != nil {
				logging.Logger.Warnw("falha ao montar oracle", "fixture", fx.Name, "erro", err)
			}
			results[i] = BatchResult{Fixture: fx, Violations: vs, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
