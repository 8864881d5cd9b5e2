// Package testutil reúne helpers de teste compartilhados entre pacotes.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FakeTool escreve um script sh executável em t.TempDir() e retorna o caminho.
// O script substitui a ferramenta real (kube-linter, semgrep, opa) nos testes.
func FakeTool(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("scripts sh não rodam no windows")
	}
	path := filepath.Join(t.TempDir(), name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteFile cria um arquivo com o conteúdo dado dentro de dir.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
