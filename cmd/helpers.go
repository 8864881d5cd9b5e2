package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Sena-ops/configaudit/internal/parser"
)

// readInput lê um arquivo, ou stdin quando path é "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("erro ao gerar JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}

// resolveType usa o --type informado ou detecta pelos arquivos.
func resolveType(flag string, paths []string) (parser.ArtifactType, error) {
	if strings.TrimSpace(flag) == "" {
		return parser.DetectArtifactType(paths)
	}
	typ, ok := parser.ParseArtifactType(strings.ToLower(strings.TrimSpace(flag)))
	if !ok {
		return "", fmt.Errorf("tipo '%s' inválido (use k8s ou tf)", flag)
	}
	return typ, nil
}
