// Package normalize traduz ToolFinding (vocabulário de cada ferramenta) para
// a Violation canônica, com severidade em três níveis.
package normalize

import (
	"strings"

	"github.com/Sena-ops/configaudit/internal/model"
)

// vocabulário aceito, sem diferenciar maiúsculas; o resto vira low
var severityVocab = map[string]model.Severity{
	"error":    model.SevHigh,
	"critical": model.SevHigh,
	"high":     model.SevHigh,
	"fatal":    model.SevHigh,
	"warning":  model.SevMed,
	"warn":     model.SevMed,
	"medium":   model.SevMed,
	"med":      model.SevMed,
	"moderate": model.SevMed,
}

// Severity mapeia uma severidade nativa de ferramenta para o nível canônico.
// Valores desconhecidos (inclusive vazio) viram low em vez de erro, para que
// uma ferramenta com vocabulário novo nunca bloqueie o oracle.
func Severity(raw string) model.Severity {
	if sev, ok := severityVocab[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return sev
	}
	return model.SevLow
}

// ToViolations converte findings em violações, uma por finding e na mesma ordem.
//
// IDs repetidos (a mesma regra em vários pontos do artefato) NÃO são
// deduplicados aqui; o reward trata as listas como mapas por id, então as
// repetições colapsam lá. Use Dedupe quando precisar da lista já colapsada.
func ToViolations(findings []model.ToolFinding) []model.Violation {
	out := make([]model.Violation, 0, len(findings))
	for _, f := range findings {
		out = append(out, model.Violation{
			ID:       model.ViolationID(f.Tool, f.RuleID),
			Severity: Severity(f.Severity),
		})
	}
	return out
}

// ToPRDSchema projeta violações para a forma pública {id, severity} usada em
// arquivos golden e no intercâmbio de dados.
func ToPRDSchema(vs []model.Violation) []map[string]string {
	out := make([]map[string]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, map[string]string{
			"id":       v.ID,
			"severity": string(v.Severity),
		})
	}
	return out
}

// Dedupe colapsa violações pelo id mantendo a ordem da primeira aparição e a
// severidade da última, o mesmo resultado que o reward enxerga.
func Dedupe(vs []model.Violation) []model.Violation {
	index := make(map[string]int, len(vs))
	out := make([]model.Violation, 0, len(vs))
	for _, v := range vs {
		if i, ok := index[v.ID]; ok {
			out[i].Severity = v.Severity
			continue
		}
		index[v.ID] = len(out)
		out = append(out, v)
	}
	return out
}
