// Package patch aplica as correções propostas pelo modelo: diff unificado
// sobre texto e JSON Patch sobre objetos estruturados.
package patch

import "fmt"

// ApplyError indica que as pré-condições do patch não foram atendidas
// (contexto divergente, caminho inexistente, operação malformada).
type ApplyError struct {
	Where  string // ex.: "hunk 2, linha 14" ou "op 0 (add /b)"
	Reason string
	Err    error
}

func (e *ApplyError) Error() string {
	msg := "patch não aplica"
	if e.Where != "" {
		msg += " em " + e.Where
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
