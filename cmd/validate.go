package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/configaudit/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [resposta.json|-]",
	Short: "Valida uma resposta do modelo contra o schema de auditoria",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args[0])
		if err != nil {
			return fmt.Errorf("erro ao ler resposta: %w", err)
		}
		v, err := schema.NewValidator()
		if err != nil {
			return err
		}

		out, err := v.ParseCompletion(string(raw))
		if err != nil {
			var vErr *schema.ValidationError
			if errors.As(err, &vErr) {
				for _, p := range vErr.Problems {
					fmt.Fprintln(cmd.ErrOrStderr(), "- "+p)
				}
			}
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
