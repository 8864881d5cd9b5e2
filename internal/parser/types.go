package parser

// ArtifactType é o tipo de artefato IaC auditado; decide a cadeia de ferramentas.
type ArtifactType string

const (
	Kubernetes ArtifactType = "k8s"
	Terraform  ArtifactType = "tf"
)

// ParseArtifactType aceita "k8s"/"kubernetes" e "tf"/"terraform".
func ParseArtifactType(s string) (ArtifactType, bool) {
	switch s {
	case "k8s", "kubernetes":
		return Kubernetes, true
	case "tf", "terraform":
		return Terraform, true
	}
	return "", false
}

// Artifact é um arquivo de configuração encontrado sob um dos caminhos auditados.
type Artifact struct {
	Path string // caminho como encontrado no disco
	Rel  string // relativo à raiz que o contém
	Root int    // índice da raiz na lista de caminhos
}
