package scanner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrToolTimeout é casado por errors.Is em todo ToolTimeoutError.
	ErrToolTimeout = errors.New("tempo limite da ferramenta excedido")

	// ErrToolNotFound indica que o executável não foi encontrado.
	ErrToolNotFound = errors.New("executável da ferramenta não encontrado")
)

// ToolInvocationError: a ferramenta terminou com código de saída diferente de zero.
type ToolInvocationError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolInvocationError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "a ferramenta terminou com erro e não escreveu nada em stderr"
	}
	return fmt.Sprintf("%s saiu com código %d: %s", e.Tool, e.ExitCode, msg)
}

// ToolTimeoutError: a execução foi morta ao atingir o timeout do chamador.
// É distinto de ToolInvocationError para que o chamador saiba diferenciar.
type ToolTimeoutError struct {
	Tool    string
	Timeout time.Duration
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("%s: %v (%s)", e.Tool, ErrToolTimeout, e.Timeout)
}

func (e *ToolTimeoutError) Is(target error) bool {
	return target == ErrToolTimeout
}

// ToolOutputError: stdout não pôde ser lido como o envelope JSON esperado.
type ToolOutputError struct {
	Tool string
	Err  error
}

func (e *ToolOutputError) Error() string {
	return fmt.Sprintf("saída inválida de %s: %v", e.Tool, e.Err)
}

func (e *ToolOutputError) Unwrap() error {
	return e.Err
}
