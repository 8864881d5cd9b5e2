package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/configaudit/internal/logging"
	"github.com/Sena-ops/configaudit/internal/patch"
)

var patchDiff string
var patchOps string
var patchOut string

var patchCmd = &cobra.Command{
	Use:   "patch (--diff arquivo.diff | --json-patch ops.json) alvo",
	Short: "Aplica um diff unificado ou um JSON Patch a um artefato",
	Long: `Aplica um patch a um artefato e imprime o resultado (ou grava em --out).
--diff exige que o contexto de cada hunk case exatamente com o arquivo;
--json-patch aceita alvos .json, .yaml e .yml.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (patchDiff == "") == (patchOps == "") {
			return fmt.Errorf("informe exatamente um de --diff ou --json-patch")
		}
		target := args[0]
		original, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("erro ao ler alvo: %w", err)
		}

		var result []byte
		if patchDiff != "" {
			result, err = applyDiff(string(original))
		} else {
			result, err = applyOps(target, original)
		}
		if err != nil {
			return err
		}

		if patchOut == "" {
			_, err = cmd.OutOrStdout().Write(result)
			return err
		}
		if err := os.WriteFile(patchOut, result, 0o644); err != nil {
			return fmt.Errorf("erro ao gravar resultado: %w", err)
		}
		logging.Logger.Infow("patch aplicado", "alvo", target, "saida", patchOut)
		return nil
	},
}

func applyDiff(original string) ([]byte, error) {
	d, err := readInput(patchDiff)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler diff: %w", err)
	}
	out, err := patch.ApplyUnified(original, string(d))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func applyOps(target string, original []byte) ([]byte, error) {
	raw, err := readInput(patchOps)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler operações: %w", err)
	}
	ops, err := patch.ParseOperations(raw)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(target)) {
	case ".yaml", ".yml":
		return patch.ApplyStructuredYAML(original, ops)
	case ".json":
		var doc any
		if err := json.Unmarshal(original, &doc); err != nil {
			return nil, fmt.Errorf("alvo não é JSON: %w", err)
		}
		out, err := patch.ApplyStructured(doc, ops)
		if err != nil {
			return nil, err
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(encoded, '\n'), nil
	}
	return nil, fmt.Errorf("extensão de '%s' não suportada para --json-patch", target)
}

func init() {
	patchCmd.Flags().StringVar(&patchDiff, "diff", "", "Diff unificado (- para stdin)")
	patchCmd.Flags().StringVar(&patchOps, "json-patch", "", "Lista JSON de operações (- para stdin)")
	patchCmd.Flags().StringVarP(&patchOut, "out", "o", "", "Grava o resultado em vez de imprimir")
	rootCmd.AddCommand(patchCmd)
}
