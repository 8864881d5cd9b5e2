package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/oracle"
	"github.com/Sena-ops/configaudit/internal/verifier"
)

var scoreCompletion string
var scoreGolden string
var scoreType string

var scoreCmd = &cobra.Command{
	Use:   "score --completion resposta.json [caminhos...]",
	Short: "Calcula o reward de uma resposta do modelo e imprime os detalhes",
	Long: `Calcula o reward de uma resposta: F1 ponderado contra o oracle, crédito pelas
violações que o patch proposto remove (reauditando uma cópia dos artefatos) e
ajuste de formato. O oracle vem de --golden ou das ferramentas sobre os caminhos.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scoreGolden == "" && len(args) == 0 {
			return fmt.Errorf("informe --golden ou ao menos um caminho")
		}
		raw, err := readInput(scoreCompletion)
		if err != nil {
			return fmt.Errorf("erro ao ler resposta: %w", err)
		}

		sample := verifier.Sample{
			Completion: string(raw),
			Paths:      args,
			GoldenPath: scoreGolden,
		}
		if scoreType != "" {
			if sample.Type, err = resolveType(scoreType, args); err != nil {
				return err
			}
		}

		rc := cfg.RewardConfig()
		v, err := verifier.New(cfg.Verifier, verifier.Deps{
			Builder: oracle.NewBuilder(cfg.ToolOptions()),
			Table:   model.DefaultSeverityTable(),
			Reward:  &rc,
		})
		if err != nil {
			return err
		}
		if _, err := v.Score(cmd.Context(), sample); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), v.Details())
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCompletion, "completion", "", "Resposta do modelo (- para stdin)")
	scoreCmd.Flags().StringVar(&scoreGolden, "golden", "", "Oracle pré-computado (array JSON de {id, severity})")
	scoreCmd.Flags().StringVarP(&scoreType, "type", "t", "", "Tipo do artefato (k8s, tf); vazio detecta pelos arquivos")
	_ = scoreCmd.MarkFlagRequired("completion")
	rootCmd.AddCommand(scoreCmd)
}

