package adapters

import (
	"context"
	"encoding/json"

	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/scanner"
)

const SemgrepName = "semgrep"

// DefaultSemgrepRules é o rule-pack usado quando nenhum é informado.
var DefaultSemgrepRules = []string{"p/ci"}

type semgrepJSON struct {
	Results []json.RawMessage `json:"results"`
}

type semgrepResult struct {
	CheckID string `json:"check_id"`
	Path    string `json:"path"`
	Start   struct {
		Line int `json:"line"`
		Col  int `json:"col"`
	} `json:"start"`
	End struct {
		Line int `json:"line"`
	} `json:"end"`
	Extra struct {
		Message  string `json:"message"`
		Severity string `json:"severity"` // INFO|WARNING|ERROR
	} `json:"extra"`
}

type semgrep struct{}

func init() {
	register(semgrep{})
}

func (semgrep) Name() string { return SemgrepName }

// Scan executa `semgrep scan --json --quiet --config <pack>... <paths...>`.
// Um ConfigPath, quando informado, entra como mais um --config local.
func (s semgrep) Scan(ctx context.Context, paths []string, opts Options) ([]model.ToolFinding, error) {
	if len(paths) == 0 {
		return nil, errNoPaths
	}
	rules := opts.Rules
	if len(rules) == 0 {
		rules = DefaultSemgrepRules
	}

	args := []string{"scan", "--json", "--quiet", "--metrics=off"}
	for _, r := range rules {
		args = append(args, "--config", r)
	}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}
	args = append(args, paths...)

	out, err := scanner.Run(ctx, scanner.Command{
		Tool:    SemgrepName,
		Bin:     binOrDefault(opts.Bin, SemgrepName),
		Args:    args,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return ParseSemgrepBytes(out)
}

// ParseSemgrepBytes converte a saída JSON do semgrep em ToolFinding.
func ParseSemgrepBytes(b []byte) ([]model.ToolFinding, error) {
	if err := requireObject(b); err != nil {
		return nil, &scanner.ToolOutputError{Tool: SemgrepName, Err: err}
	}
	var doc semgrepJSON
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &scanner.ToolOutputError{Tool: SemgrepName, Err: err}
	}

	out := make([]model.ToolFinding, 0, len(doc.Results))
	for _, raw := range doc.Results {
		var r semgrepResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &scanner.ToolOutputError{Tool: SemgrepName, Err: err}
		}
		var extra map[string]any
		_ = json.Unmarshal(raw, &extra)

		out = append(out, model.ToolFinding{
			Tool:      SemgrepName,
			RuleID:    r.CheckID,
			Severity:  r.Extra.Severity,
			Message:   r.Extra.Message,
			File:      normPath(r.Path),
			StartLine: safeLine(r.Start.Line),
			EndLine:   safeLine(r.End.Line),
			Extra:     extra,
		})
	}
	return out, nil
}
