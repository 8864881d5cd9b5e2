package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Sena-ops/configaudit/internal/config"
	"github.com/Sena-ops/configaudit/internal/logging"
)

const version = "0.1.0"

var configPath string
var debugMode bool

// cfg é carregada no PersistentPreRunE, antes de qualquer subcomando.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "configaudit",
	Short:        "configaudit - Oracle, validação e reward para auditoria de configurações IaC",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitLogger(debugMode); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Logger.Debugw("configuração carregada", "arquivo", configPath, "verificador", cfg.Verifier)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configaudit.yaml", "Arquivo de configuração YAML")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Habilita logs em nível debug")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
