package model

// SeverityTable guarda o peso numérico de cada nível de severidade.
// É um valor imutável, passado por cópia ao scorer e nunca modificado
// depois de construído.
type SeverityTable struct {
	low  float64
	med  float64
	high float64
}

// DefaultSeverityTable retorna a tabela fixa {low: 0.3, med: 0.6, high: 1.0}.
func DefaultSeverityTable() SeverityTable {
	return SeverityTable{low: 0.3, med: 0.6, high: 1.0}
}

// Weight retorna o peso da severidade. Severidades fora do conjunto
// canônico pesam como low.
func (t SeverityTable) Weight(s Severity) float64 {
	switch s {
	case SevHigh:
		return t.high
	case SevMed:
		return t.med
	default:
		return t.low
	}
}

// WeightMap transforma uma lista de violações num mapa id -> peso.
// IDs repetidos colapsam: vale o peso da última ocorrência.
func (t SeverityTable) WeightMap(vs []Violation) map[string]float64 {
	out := make(map[string]float64, len(vs))
	for _, v := range vs {
		out[v.ID] = t.Weight(v.Severity)
	}
	return out
}
