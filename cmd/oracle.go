package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/configaudit/internal/logging"
	"github.com/Sena-ops/configaudit/internal/normalize"
	"github.com/Sena-ops/configaudit/internal/oracle"
	"github.com/Sena-ops/configaudit/internal/sarif"
)

var oracleType string
var oracleFormat string
var oracleOut string
var oraclePolicies []string
var oracleInput string
var oracleEach bool

var oracleCmd = &cobra.Command{
	Use:   "oracle [caminhos...]",
	Short: "Executa as ferramentas e imprime o oracle normalizado dos artefatos",
	Long: `Executa a cadeia de ferramentas do tipo de artefato (k8s -> kube-linter,
tf -> semgrep) e imprime as violações no formato {id, severity}.

Com --policy, avalia bundles OPA contra o JSON de --input em vez dos caminhos.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := oracle.NewBuilder(cfg.ToolOptions())
		ctx := cmd.Context()

		if len(oraclePolicies) > 0 {
			return runPolicyOracle(cmd, b)
		}
		if len(args) == 0 {
			return fmt.Errorf("informe ao menos um caminho")
		}
		if oracleEach {
			return runBatchOracle(cmd, b, args)
		}

		typ, err := resolveType(oracleType, args)
		if err != nil {
			return err
		}
		logging.Logger.Infow("montando oracle", "tipo", typ, "caminhos", args)

		findings, err := b.Findings(ctx, args, typ)
		if err != nil {
			return err
		}

		switch strings.ToLower(oracleFormat) {
		case "sarif":
			return sarif.Write(cmd.OutOrStdout(), sarif.Build(findings, "configaudit", version))
		case "", "json":
		default:
			return fmt.Errorf("formato '%s' inválido (use json ou sarif)", oracleFormat)
		}

		vs := normalize.ToViolations(findings)
		if oracleOut != "" {
			if err := oracle.WriteGolden(oracleOut, vs); err != nil {
				return err
			}
			logging.Logger.Infow("golden salvo", "arquivo", oracleOut, "violacoes", len(vs))
		}
		return printJSON(cmd.OutOrStdout(), normalize.ToPRDSchema(vs))
	},
}

func runPolicyOracle(cmd *cobra.Command, b *oracle.Builder) error {
	if oracleInput == "" {
		return fmt.Errorf("--policy exige --input")
	}
	raw, err := readInput(oracleInput)
	if err != nil {
		return fmt.Errorf("erro ao ler input: %w", err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("input não é JSON: %w", err)
	}

	vs, err := b.BuildFromPolicy(cmd.Context(), input, oraclePolicies)
	if err != nil {
		return err
	}
	if oracleOut != "" {
		if err := oracle.WriteGolden(oracleOut, vs); err != nil {
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), normalize.ToPRDSchema(vs))
}

// runBatchOracle trata cada caminho como um fixture próprio e monta os
// oracles em paralelo (até batch_limit ao mesmo tempo). Com --out, grava um
// golden por fixture no diretório informado.
func runBatchOracle(cmd *cobra.Command, b *oracle.Builder, paths []string) error {
	fixtures := make([]oracle.Fixture, 0, len(paths))
	for _, p := range paths {
		typ, err := resolveType(oracleType, []string{p})
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		fixtures = append(fixtures, oracle.Fixture{Name: fixtureName(p), Paths: []string{p}, Type: typ})
	}

	report := map[string]any{}
	failed := 0
	for _, r := range b.BuildBatch(cmd.Context(), fixtures, cfg.BatchLimit) {
		if r.Err != nil {
			failed++
			report[r.Fixture.Name] = map[string]string{"erro": r.Err.Error()}
			continue
		}
		report[r.Fixture.Name] = normalize.ToPRDSchema(r.Violations)
		if oracleOut != "" {
			if err := oracle.WriteGolden(filepath.Join(oracleOut, r.Fixture.Name+".json"), r.Violations); err != nil {
				return err
			}
		}
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d de %d fixtures falharam", failed, len(fixtures))
	}
	return nil
}

func fixtureName(p string) string {
	base := filepath.Base(filepath.Clean(p))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	oracleCmd.Flags().StringVarP(&oracleType, "type", "t", "", "Tipo do artefato (k8s, tf); vazio detecta pelos arquivos")
	oracleCmd.Flags().StringVarP(&oracleFormat, "format", "f", "json", "Formato da saída (json, sarif)")
	oracleCmd.Flags().StringVarP(&oracleOut, "out", "o", "", "Também grava o oracle como arquivo golden")
	oracleCmd.Flags().BoolVar(&oracleEach, "each", false, "Cada caminho é um fixture; --out passa a ser um diretório")
	oracleCmd.Flags().StringSliceVar(&oraclePolicies, "policy", nil, "Bundles de política OPA (arquivos ou diretórios)")
	oracleCmd.Flags().StringVar(&oracleInput, "input", "", "JSON avaliado pelas políticas (- para stdin)")
	rootCmd.AddCommand(oracleCmd)
}
