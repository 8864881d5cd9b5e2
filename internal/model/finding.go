package model

import (
	"fmt"
	"strings"
)

// Severity é o nível canônico de uma violação (low | med | high).
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "med"
	SevHigh Severity = "high"
)

// Valid informa se a severidade pertence ao conjunto canônico.
func (s Severity) Valid() bool {
	switch s {
	case SevLow, SevMed, SevHigh:
		return true
	}
	return false
}

// ToolFinding é o registro intermediário produzido por um adapter a partir
// de um item da saída nativa da ferramenta. Não é alterado depois de criado.
type ToolFinding struct {
	Tool      string         // "kube-linter" | "semgrep" | "opa"
	RuleID    string         // id/regra nativa da ferramenta
	Severity  string         // severidade nativa, sem normalização
	Message   string         // descrição curta
	File      string         // caminho relativo/normalizado
	StartLine int            // 1-based (0 = desconhecido)
	EndLine   int            // opcional (0 = sem fim)
	Extra     map[string]any // item bruto, só para diagnóstico
}

// Violation é a forma canônica usada pelo oracle, pela predição e pelo reward.
// A identidade é o ID ("<tool>/<rule_id>"); a localização não faz parte dela.
type Violation struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
}

// ViolationID monta o identificador canônico de uma regra de uma ferramenta.
func ViolationID(tool, ruleID string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSpace(tool), strings.TrimSpace(ruleID))
}

// AuditOutput é a resposta do modelo já validada: violações apontadas, patch
// opcional (diff unificado ou vazio) e confiança declarada.
type AuditOutput struct {
	Violations []Violation `json:"violations"`
	Patch      string      `json:"patch"`
	Confidence float64     `json:"confidence"`
}
