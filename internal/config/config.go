// Package config carrega a configuração do configaudit: arquivo YAML,
// sobreposto por .env e variáveis de ambiente, e validado antes do uso.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Sena-ops/configaudit/internal/adapters"
	"github.com/Sena-ops/configaudit/internal/logging"
	"github.com/Sena-ops/configaudit/internal/reward"
	"github.com/Sena-ops/configaudit/internal/scanner"
	"github.com/Sena-ops/configaudit/internal/verifier"
)

// Variáveis de ambiente que sobrepõem o binário de cada ferramenta.
const (
	EnvKubeLinterBin = "CONFIGAUDIT_KUBE_LINTER_BIN"
	EnvSemgrepBin    = "CONFIGAUDIT_SEMGREP_BIN"
	EnvOPABin        = "CONFIGAUDIT_OPA_BIN"
)

type ToolConfig struct {
	Bin     string        `yaml:"bin" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	Config  string        `yaml:"config,omitempty"`
	Rules   []string      `yaml:"rules,omitempty"`
	Query   string        `yaml:"query,omitempty"`
}

type ToolsConfig struct {
	KubeLinter ToolConfig `yaml:"kube_linter"`
	Semgrep    ToolConfig `yaml:"semgrep"`
	OPA        ToolConfig `yaml:"opa"`
}

type RewardConfig struct {
	PatchRemovedWeight float64 `yaml:"patch_removed_weight" validate:"finite"`
	FormatBonus        float64 `yaml:"format_bonus" validate:"finite"`
	InvalidPenalty     float64 `yaml:"invalid_penalty" validate:"finite,ltefield=FormatBonus"`
}

type Config struct {
	Verifier   string       `yaml:"verifier" validate:"required"`
	BatchLimit int          `yaml:"batch_limit" validate:"gte=0"`
	Tools      ToolsConfig  `yaml:"tools"`
	Reward     RewardConfig `yaml:"reward"`
}

func Default() *Config {
	r := reward.DefaultConfig()
	return &Config{
		Verifier:   verifier.ConfigAuditName,
		BatchLimit: 4,
		Tools: ToolsConfig{
			KubeLinter: ToolConfig{Bin: "kube-linter", Timeout: scanner.DefaultTimeout},
			Semgrep:    ToolConfig{Bin: "semgrep", Timeout: 5 * time.Minute, Rules: append([]string(nil), adapters.DefaultSemgrepRules...)},
			OPA:        ToolConfig{Bin: "opa", Timeout: scanner.DefaultTimeout, Query: adapters.DefaultOPAQuery},
		},
		Reward: RewardConfig{
			PatchRemovedWeight: r.PatchRemovedWeight,
			FormatBonus:        r.FormatBonus,
			InvalidPenalty:     r.InvalidPenalty,
		},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return false
		}
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
}

// Load lê o YAML em path (vazio ou inexistente = padrões), aplica os
// arquivos .env informados (ou ".env" do diretório atual) e as variáveis de
// ambiente, e valida o resultado.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logging.Logger.Debugw("arquivo de configuração ausente; usando padrões", "path", path)
		case err != nil:
			return nil, fmt.Errorf("erro ao ler configuração: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("configuração inválida em %s: %w", path, err)
			}
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv não sobrescreve variáveis já definidas no ambiente
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("erro ao ler %s: %w", f, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		EnvKubeLinterBin: &c.Tools.KubeLinter.Bin,
		EnvSemgrepBin:    &c.Tools.Semgrep.Bin,
		EnvOPABin:        &c.Tools.OPA.Bin,
	}
	for env, dst := range overrides {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

// Validate confere os limites da configuração.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("configuração inválida: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("configuração inválida: %s", strings.Join(problems, ", "))
}

// ToolOptions converte a seção tools nas opções dos adapters.
func (c *Config) ToolOptions() map[string]adapters.Options {
	opts := func(t ToolConfig) adapters.Options {
		return adapters.Options{
			Bin:        t.Bin,
			Timeout:    t.Timeout,
			ConfigPath: t.Config,
			Rules:      t.Rules,
			Query:      t.Query,
		}
	}
	return map[string]adapters.Options{
		adapters.KubeLinterName: opts(c.Tools.KubeLinter),
		adapters.SemgrepName:    opts(c.Tools.Semgrep),
		adapters.OPAName:        opts(c.Tools.OPA),
	}
}

func (c *Config) RewardConfig() reward.Config {
	return reward.Config{
		PatchRemovedWeight: c.Reward.PatchRemovedWeight,
		FormatBonus:        c.Reward.FormatBonus,
		InvalidPenalty:     c.Reward.InvalidPenalty,
	}
}
