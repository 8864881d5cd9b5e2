// Package reward calcula o sinal escalar que mede a precisão da detecção e a
// efetividade do patch proposto.
package reward

import (
	"math"

	"github.com/Sena-ops/configaudit/internal/model"
)

const (
	MinReward = -1.0
	MaxReward = 2.0
)

// Config são os pesos ajustáveis do reward.
type Config struct {
	PatchRemovedWeight float64 // multiplica o delta do patch
	FormatBonus        float64 // somado quando a resposta segue o schema
	InvalidPenalty     float64 // somado (negativo) quando não segue
}

func DefaultConfig() Config {
	return Config{
		PatchRemovedWeight: 1.0,
		FormatBonus:        0.05,
		InvalidPenalty:     -0.25,
	}
}

// Inputs são as quatro entradas do cálculo. PostPatch só é considerado quando
// Patched é true; um PostPatch vazio com Patched=true significa que o patch
// removeu tudo.
type Inputs struct {
	Predicted []model.Violation
	Oracle    []model.Violation
	PostPatch []model.Violation
	Patched   bool
	Valid     bool
}

// Breakdown traz o reward final e as parcelas que o compõem.
type Breakdown struct {
	Reward     float64 `json:"reward"`
	Precision  float64 `json:"precision"`
	Recall     float64 `json:"recall"`
	F1         float64 `json:"f1"`
	TP         float64 `json:"tp_weight"`
	FP         float64 `json:"fp_weight"`
	FN         float64 `json:"fn_weight"`
	PatchDelta float64 `json:"patch_delta"` // peso das violações do oracle removidas
	PatchTerm  float64 `json:"patch_term"`  // PatchDelta * PatchRemovedWeight
	FormatTerm float64 `json:"format_term"`
}

// Scorer é uma função pura sobre as entradas, a tabela de severidade e a
// config; não tem estado e pode ser compartilhado entre goroutines.
type Scorer struct {
	table model.SeverityTable
	cfg   Config
}

func NewScorer(table model.SeverityTable, cfg Config) *Scorer {
	return &Scorer{table: table, cfg: cfg}
}

// Score calcula F1 ponderado + termo do patch + ajuste de formato, limitado
// a [MinReward, MaxReward]. Sempre devolve um número.
func (s *Scorer) Score(in Inputs) Breakdown {
	pred := s.table.WeightMap(in.Predicted)
	oracle := s.table.WeightMap(in.Oracle)

	var b Breakdown
	for id, w := range pred {
		if _, ok := oracle[id]; ok {
			b.TP += w
		} else {
			b.FP += w
		}
	}
	for id, w := range oracle {
		if _, ok := pred[id]; !ok {
			b.FN += w
		}
	}
	b.Precision = ratio(b.TP, b.TP+b.FP)
	b.Recall = ratio(b.TP, b.TP+b.FN)
	if b.Precision+b.Recall > 0 {
		b.F1 = 2 * b.Precision * b.Recall / (b.Precision + b.Recall)
	}

	if in.Patched {
		b.PatchDelta = s.PatchDelta(in.Oracle, in.PostPatch)
		b.PatchTerm = b.PatchDelta * s.cfg.PatchRemovedWeight
	}

	if in.Valid {
		b.FormatTerm = s.cfg.FormatBonus
	} else {
		b.FormatTerm = s.cfg.InvalidPenalty
	}

	b.Reward = Clamp(b.F1 + b.PatchTerm + b.FormatTerm)
	return b
}

// PatchDelta soma o peso das violações do oracle que não aparecem mais depois
// do patch, ou seja, o quanto o patch realmente corrigiu.
func (s *Scorer) PatchDelta(oracle, postPatch []model.Violation) float64 {
	after := s.table.WeightMap(postPatch)
	var delta float64
	for id, w := range s.table.WeightMap(oracle) {
		if _, ok := after[id]; !ok {
			delta += w
		}
	}
	return delta
}

// Clamp limita o reward ao intervalo fechado [-1, 2]; NaN vira o mínimo.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return MinReward
	}
	return math.Max(MinReward, math.Min(MaxReward, v))
}

func ratio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}
