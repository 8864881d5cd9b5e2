package parser

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IsKubernetesManifest analisa o conteúdo do arquivo YAML para verificar se é um manifesto Kubernetes.
func IsKubernetesManifest(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "apiVersion:") {
			return true
		}
	}

	return false
}

// IsTerraformFile verifica pela extensão (.tf ou .tf.json).
func IsTerraformFile(path string) bool {
	return strings.HasSuffix(path, ".tf") || strings.HasSuffix(path, ".tf.json")
}

// DetectArtifactType classifica os caminhos (arquivos ou diretórios) como
// k8s ou tf. Conjuntos mistos ou sem nenhum artefato reconhecido são erro.
func DetectArtifactType(paths []string) (ArtifactType, error) {
	seen := map[ArtifactType]bool{}
	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if t, ok := classify(path); ok {
				seen[t] = true
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("erro ao ler %s: %w", p, err)
		}
	}

	switch {
	case seen[Kubernetes] && seen[Terraform]:
		return "", fmt.Errorf("artefatos mistos (k8s e tf); informe o tipo explicitamente")
	case seen[Kubernetes]:
		return Kubernetes, nil
	case seen[Terraform]:
		return Terraform, nil
	}
	return "", fmt.Errorf("nenhum artefato k8s ou tf encontrado em %v", paths)
}

func classify(path string) (ArtifactType, bool) {
	if IsTerraformFile(path) {
		return Terraform, true
	}
	ext := strings.ToLower(filepath.Ext(path))
	if (ext == ".yaml" || ext == ".yml") && IsKubernetesManifest(path) {
		return Kubernetes, true
	}
	return "", false
}

// ArtifactFiles lista os arquivos reconhecidos (k8s ou tf) sob cada caminho.
// Para diretórios, Rel é relativo ao diretório; para arquivos, é o nome base.
// Root é o índice do caminho de entrada que contém o arquivo.
func ArtifactFiles(paths []string) ([]Artifact, error) {
	var out []Artifact
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, Artifact{Path: p, Rel: filepath.Base(p), Root: i})
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := classify(path); !ok {
				return nil
			}
			rel, err := filepath.Rel(p, path)
			if err != nil {
				return err
			}
			out = append(out, Artifact{Path: path, Rel: rel, Root: i})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("erro ao ler %s: %w", p, err)
		}
	}
	return out, nil
}
