package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Sena-ops/configaudit/internal/model"
)

// Options são os parâmetros de uma execução de adapter.
type Options struct {
	Bin        string        // executável; vazio usa o nome padrão da ferramenta
	Timeout    time.Duration // limite por execução
	ConfigPath string        // arquivo de config da ferramenta (opcional)
	Rules      []string      // rule-packs (semgrep) ou bundles de política (opa)
	Query      string        // consulta de política (opa)
	Input      any           // dado estruturado avaliado pela política (opa)
}

// Adapter executa uma ferramenta de análise estática e traduz a saída JSON
// nativa para ToolFinding. Cada ferramenta tem a sua própria implementação;
// adicionar uma ferramenta nova não toca nas outras.
type Adapter interface {
	Name() string
	Scan(ctx context.Context, paths []string, opts Options) ([]model.ToolFinding, error)
}

var errNoPaths = errors.New("nenhum caminho informado")

var registry = map[string]Adapter{}

func register(a Adapter) {
	registry[a.Name()] = a
}

// Get retorna o adapter registrado com o nome dado.
func Get(name string) (Adapter, error) {
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("ferramenta '%s' não suportada", name)
	}
	return a, nil
}

// Names lista as ferramentas registradas, em ordem alfabética.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func binOrDefault(bin, def string) string {
	if strings.TrimSpace(bin) == "" {
		return def
	}
	return bin
}

// requireObject garante que a saída é um objeto JSON antes do Unmarshal,
// para que stdout vazio ou texto solto virem ToolOutputError.
func requireObject(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return errors.New("saída vazia")
	}
	if trimmed[0] != '{' {
		return errors.New("esperado um objeto JSON")
	}
	return nil
}

func safeLine(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func normPath(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	return strings.TrimPrefix(p, "./")
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
