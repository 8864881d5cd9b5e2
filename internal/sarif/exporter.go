// Package sarif exporta os findings do oracle em SARIF 2.1.0.
package sarif

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/normalize"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	Message   Message    `json:"message"`
	Level     string     `json:"level"` // error, warning, note
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine,omitempty"`
}

// Build monta o log SARIF 2.1.0 dos findings do oracle. Cada resultado usa o
// id canônico (tool/rule) como ruleId e o nível derivado da severidade
// normalizada.
func Build(findings []model.ToolFinding, toolName, toolVersion string) *Log {
	sorted := append([]model.ToolFinding(nil), findings...)
	SortFindings(sorted)

	results := make([]Result, 0, len(sorted))
	for _, f := range sorted {
		fileURI := toURI(f.File)
		if strings.TrimSpace(fileURI) == "" {
			fileURI = "UNKNOWN"
		}
		start := f.StartLine
		if start <= 0 {
			start = 1
		}
		end := f.EndLine
		if end < start {
			end = 0
		}

		results = append(results, Result{
			RuleID: model.ViolationID(f.Tool, f.RuleID),
			Level:  sevToLevel(normalize.Severity(f.Severity)),
			Message: Message{
				Text: strings.TrimSpace(f.Message),
			},
			Locations: []Location{
				{
					PhysicalLocation: PhysicalLocation{
						ArtifactLocation: ArtifactLocation{
							URI: fileURI,
						},
						Region: Region{
							StartLine: start,
							EndLine:   end,
						},
					},
				},
			},
		})
	}

	return &Log{
		Version: "2.1.0",
		// schema RTM reconhecido por GitHub/VSCode
		Schema: "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json",
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    toolName,
						Version: toolVersion,
					},
				},
				Results: results,
			},
		},
	}
}

// Write grava o log indentado em w.
func Write(w io.Writer, log *Log) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("escrever sarif: %w", err)
	}
	return nil
}

// Export gera <outDir>/<fileBase>.sarif e devolve o caminho.
func Export(findings []model.ToolFinding, outDir, fileBase, toolName, toolVersion string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("criar dir sarif: %w", err)
	}
	outPath := filepath.Join(outDir, fileBase+".sarif")

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("escrever sarif: %w", err)
	}
	defer f.Close()
	if err := Write(f, Build(findings, toolName, toolVersion)); err != nil {
		return "", err
	}
	return outPath, nil
}

func SortFindings(fs []model.ToolFinding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].File == fs[j].File {
			if fs[i].StartLine == fs[j].StartLine {
				return model.ViolationID(fs[i].Tool, fs[i].RuleID) < model.ViolationID(fs[j].Tool, fs[j].RuleID)
			}
			return fs[i].StartLine < fs[j].StartLine
		}
		return fs[i].File < fs[j].File
	})
}

func sevToLevel(s model.Severity) string {
	switch s {
	case model.SevHigh:
		return "error"
	case model.SevMed:
		return "warning"
	default:
		return "note"
	}
}

func toURI(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	return strings.TrimPrefix(p, "./")
}
