package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/Sena-ops/configaudit/internal/logging"
)

// DefaultTimeout é usado quando o chamador não informa um timeout.
const DefaultTimeout = 60 * time.Second

// Command descreve uma execução de ferramenta externa.
type Command struct {
	Tool    string        // nome lógico, usado em erros e logs
	Bin     string        // executável (nome no PATH ou caminho)
	Args    []string      // argumentos, já incluindo a flag de saída JSON
	Timeout time.Duration // limite rígido por execução
	Stdin   []byte        // opcional

	// FindingsExitCodes lista códigos != 0 que a ferramenta usa para dizer
	// "encontrei problemas". Só valem quando stdout não está vazio.
	FindingsExitCodes []int
}

// Run executa a ferramenta e retorna o stdout bruto.
//
// Erros possíveis: ErrToolNotFound, *ToolTimeoutError, *ToolInvocationError,
// ou o erro do contexto do chamador quando ele é cancelado.
// Não há retry aqui; a política de retry é do chamador.
func Run(ctx context.Context, c Command) ([]byte, error) {
	bin, err := exec.LookPath(c.Bin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (%s)", c.Tool, ErrToolNotFound, c.Bin)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, span := startRunSpan(ctx, c)
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, c.Args...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	logging.Logger.Debugw("executando ferramenta", "tool", c.Tool, "bin", bin, "args", c.Args, "timeout", timeout)
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err := &ToolTimeoutError{Tool: c.Tool, Timeout: timeout}
		finishRun(ctx, span, c.Tool, "timeout", -1, elapsed, err)
		logging.Logger.Warnw("ferramenta excedeu o timeout", "tool", c.Tool, "timeout", timeout)
		return nil, err
	}
	if ctx.Err() != nil {
		finishRun(ctx, span, c.Tool, "error", -1, elapsed, ctx.Err())
		return nil, ctx.Err()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			err := fmt.Errorf("erro ao executar %s: %w", c.Tool, runErr)
			finishRun(ctx, span, c.Tool, "error", -1, elapsed, err)
			return nil, err
		}
		code := exitErr.ExitCode()
		if !(stdout.Len() > 0 && containsCode(c.FindingsExitCodes, code)) {
			err := &ToolInvocationError{Tool: c.Tool, ExitCode: code, Stderr: stderr.String()}
			finishRun(ctx, span, c.Tool, "exit", code, elapsed, err)
			return nil, err
		}
	}

	finishRun(ctx, span, c.Tool, "ok", cmd.ProcessState.ExitCode(), elapsed, nil)
	logging.Logger.Debugw("ferramenta finalizada", "tool", c.Tool, "duracao", elapsed, "bytes", stdout.Len())
	return stdout.Bytes(), nil
}

func containsCode(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
