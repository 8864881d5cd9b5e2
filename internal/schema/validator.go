package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Sena-ops/configaudit/internal/logging"
	"github.com/Sena-ops/configaudit/internal/model"
)

// ValidationError indica que a resposta do modelo não segue o schema.
// É uma entrada esperada (saída não confiável), não uma falha do sistema:
// o chamador a converte no ramo "inválido" do reward.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "saída do modelo fora do schema: " + strings.Join(e.Problems, "; ")
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Problems: []string{fmt.Sprintf(format, args...)}}
}

// Validator guarda o schema compilado; é seguro para uso concorrente.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(auditOutputURL, strings.NewReader(auditOutputSchema)); err != nil {
		return nil, fmt.Errorf("erro ao carregar schema: %w", err)
	}
	sch, err := compiler.Compile(auditOutputURL)
	if err != nil {
		return nil, fmt.Errorf("erro ao compilar schema: %w", err)
	}
	return &Validator{schema: sch}, nil
}

// Validate confere um objeto JSON já decodificado contra o schema e extrai
// violações, patch (vazio quando ausente ou null) e confiança.
func (v *Validator) Validate(obj any) (*model.AuditOutput, error) {
	// o jsonschema espera os tipos do encoding/json; normaliza qualquer valor Go
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, invalid("valor não serializável: %v", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, invalid("valor não serializável: %v", err)
	}

	if err := v.schema.Validate(decoded); err != nil {
		var vErr *jsonschema.ValidationError
		if errors.As(err, &vErr) {
			var problems []string
			collectProblems(vErr, &problems)
			if len(problems) == 0 {
				problems = []string{vErr.Error()}
			}
			logging.Logger.Debugw("resposta fora do schema", "problemas", problems)
			return nil, &ValidationError{Problems: problems}
		}
		return nil, invalid("%v", err)
	}

	var out struct {
		Violations []model.Violation `json:"violations"`
		Patch      *string           `json:"patch"`
		Confidence float64           `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, invalid("%v", err)
	}

	result := &model.AuditOutput{
		Violations: out.Violations,
		Confidence: out.Confidence,
	}
	if result.Violations == nil {
		result.Violations = []model.Violation{}
	}
	if out.Patch != nil {
		result.Patch = *out.Patch
	}
	return result, nil
}

// ParseCompletion decodifica o texto bruto da resposta (aceitando um bloco
// ```json ... ``` em volta) e valida. JSON malformado também é
// *ValidationError.
func (v *Validator) ParseCompletion(text string) (*model.AuditOutput, error) {
	body := stripFence(text)
	if body == "" {
		return nil, invalid("resposta vazia")
	}
	var obj any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, invalid("JSON inválido: %v", err)
	}
	return v.Validate(obj)
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func collectProblems(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("em %s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectProblems(cause, out)
	}
}
