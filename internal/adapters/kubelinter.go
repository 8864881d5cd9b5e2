package adapters

import (
	"context"
	"encoding/json"

	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/scanner"
)

const KubeLinterName = "kube-linter"

type kubeLinterJSON struct {
	Reports []json.RawMessage `json:"reports"`
}

type kubeLinterReport struct {
	Check      string `json:"check"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	KubeObject struct {
		File    string `json:"file"`
		Line    int    `json:"line"`
		Column  int    `json:"column"`
		EndLine int    `json:"endLine"`
	} `json:"kubeObject"`
	// formato nativo do kube-linter (Diagnostic/Object.Metadata), usado como fallback
	Diagnostic struct {
		Message string `json:"message"`
	} `json:"diagnostic"`
	Object struct {
		Metadata struct {
			FilePath string `json:"filePath"`
		} `json:"metadata"`
	} `json:"object"`
}

type kubeLinter struct{}

func init() {
	register(kubeLinter{})
}

func (kubeLinter) Name() string { return KubeLinterName }

// Scan executa `kube-linter lint --format json [--config <path>] <paths...>`.
// O kube-linter sai com código 1 quando encontra problemas; nesse caso o
// stdout traz o relatório e a execução é tratada como sucesso.
func (k kubeLinter) Scan(ctx context.Context, paths []string, opts Options) ([]model.ToolFinding, error) {
	if len(paths) == 0 {
		return nil, errNoPaths
	}
	args := []string{"lint", "--format", "json"}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}
	args = append(args, paths...)

	out, err := scanner.Run(ctx, scanner.Command{
		Tool:              KubeLinterName,
		Bin:               binOrDefault(opts.Bin, KubeLinterName),
		Args:              args,
		Timeout:           opts.Timeout,
		FindingsExitCodes: []int{1},
	})
	if err != nil {
		return nil, err
	}
	return ParseKubeLinterBytes(out)
}

// ParseKubeLinterBytes converte o relatório JSON do kube-linter em ToolFinding.
func ParseKubeLinterBytes(b []byte) ([]model.ToolFinding, error) {
	if err := requireObject(b); err != nil {
		return nil, &scanner.ToolOutputError{Tool: KubeLinterName, Err: err}
	}
	var doc kubeLinterJSON
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &scanner.ToolOutputError{Tool: KubeLinterName, Err: err}
	}

	out := make([]model.ToolFinding, 0, len(doc.Reports))
	for _, raw := range doc.Reports {
		var r kubeLinterReport
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &scanner.ToolOutputError{Tool: KubeLinterName, Err: err}
		}
		var extra map[string]any
		_ = json.Unmarshal(raw, &extra)

		out = append(out, model.ToolFinding{
			Tool:      KubeLinterName,
			RuleID:    r.Check,
			Severity:  r.Severity,
			Message:   firstString(r.Message, r.Diagnostic.Message),
			File:      normPath(firstString(r.KubeObject.File, r.Object.Metadata.FilePath)),
			StartLine: safeLine(r.KubeObject.Line),
			EndLine:   safeLine(r.KubeObject.EndLine),
			Extra:     extra,
		})
	}
	return out, nil
}
