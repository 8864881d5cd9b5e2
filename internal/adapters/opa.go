package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/scanner"
)

const OPAName = "opa"

// DefaultOPAQuery é a regra avaliada quando Options.Query está vazio.
const DefaultOPAQuery = "data.audit.violations"

type opaJSON struct {
	Result []struct {
		Expressions []struct {
			Value any `json:"value"`
		} `json:"expressions"`
	} `json:"result"`
}

type opa struct{}

func init() {
	register(opa{})
}

func (opa) Name() string { return OPAName }

// Scan avalia os bundles de política (paths) contra opts.Input com
// `opa eval --format json --stdin-input --data <bundle>... <query>`.
// O valor da consulta pode ser uma lista (ou set) de objetos/strings, ou um
// objeto indexado pelo id da regra.
func (o opa) Scan(ctx context.Context, paths []string, opts Options) ([]model.ToolFinding, error) {
	if len(paths) == 0 {
		return nil, errNoPaths
	}
	query := opts.Query
	if query == "" {
		query = DefaultOPAQuery
	}
	input, err := json.Marshal(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar input da política: %w", err)
	}

	args := []string{"eval", "--format", "json", "--stdin-input"}
	for _, p := range paths {
		args = append(args, "--data", p)
	}
	if opts.ConfigPath != "" {
		args = append(args, "--data", opts.ConfigPath)
	}
	args = append(args, query)

	out, err := scanner.Run(ctx, scanner.Command{
		Tool:    OPAName,
		Bin:     binOrDefault(opts.Bin, OPAName),
		Args:    args,
		Timeout: opts.Timeout,
		Stdin:   input,
	})
	if err != nil {
		return nil, err
	}
	return ParseOPABytes(out, query)
}

// ParseOPABytes converte a saída de `opa eval --format json` em ToolFinding.
// query só é usado para nomear violações que chegam como string pura.
func ParseOPABytes(b []byte, query string) ([]model.ToolFinding, error) {
	if err := requireObject(b); err != nil {
		return nil, &scanner.ToolOutputError{Tool: OPAName, Err: err}
	}
	var doc opaJSON
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &scanner.ToolOutputError{Tool: OPAName, Err: err}
	}

	fallbackRule := query
	if i := strings.LastIndex(query, "."); i >= 0 {
		fallbackRule = query[i+1:]
	}

	var out []model.ToolFinding
	for _, res := range doc.Result {
		for _, expr := range res.Expressions {
			fs, err := opaValueFindings(expr.Value, fallbackRule)
			if err != nil {
				return nil, &scanner.ToolOutputError{Tool: OPAName, Err: err}
			}
			out = append(out, fs...)
		}
	}
	return out, nil
}

func opaValueFindings(v any, fallbackRule string) ([]model.ToolFinding, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]model.ToolFinding, 0, len(t))
		for _, item := range t {
			f, err := opaItemFinding(item, fallbackRule)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]model.ToolFinding, 0, len(keys))
		for _, k := range keys {
			f, err := opaItemFinding(t[k], k)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	case bool:
		// regra booleana (ex.: allow): não produz violações
		return nil, nil
	default:
		return nil, fmt.Errorf("valor de política inesperado: %T", v)
	}
}

func opaItemFinding(item any, fallbackRule string) (model.ToolFinding, error) {
	switch t := item.(type) {
	case string:
		return model.ToolFinding{
			Tool:    OPAName,
			RuleID:  fallbackRule,
			Message: t,
			Extra:   map[string]any{"value": t},
		}, nil
	case map[string]any:
		rule := firstString(str(t, "rule_id"), str(t, "id"), str(t, "rule"), fallbackRule)
		if rule == "" {
			return model.ToolFinding{}, errors.New("violação sem rule_id")
		}
		return model.ToolFinding{
			Tool:      OPAName,
			RuleID:    rule,
			Severity:  str(t, "severity"),
			Message:   firstString(str(t, "msg"), str(t, "message")),
			File:      normPath(str(t, "file")),
			StartLine: safeLine(firstInt(t, "start_line", "line")),
			EndLine:   safeLine(firstInt(t, "end_line")),
			Extra:     t,
		}, nil
	default:
		return model.ToolFinding{}, fmt.Errorf("item de violação inesperado: %T", item)
	}
}

func str(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		if n, ok := m[k].(float64); ok {
			return int(n)
		}
	}
	return 0
}
