package verifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/Sena-ops/configaudit/internal/logging"
	"github.com/Sena-ops/configaudit/internal/model"
	"github.com/Sena-ops/configaudit/internal/oracle"
	"github.com/Sena-ops/configaudit/internal/parser"
	"github.com/Sena-ops/configaudit/internal/patch"
	"github.com/Sena-ops/configaudit/internal/reward"
	"github.com/Sena-ops/configaudit/internal/schema"
)

const ConfigAuditName = "config_audit"

// ConfigAudit avalia respostas de auditoria de configuração (k8s/tf): F1
// ponderado contra o oracle, crédito pelas violações que o patch de fato
// removeu e ajuste de formato.
type ConfigAudit struct {
	builder   *oracle.Builder
	validator *schema.Validator
	scorer    *reward.Scorer

	mu      sync.Mutex
	details map[string]any
}

func NewConfigAudit(d Deps) (*ConfigAudit, error) {
	v := d.Validator
	if v == nil {
		var err error
		if v, err = schema.NewValidator(); err != nil {
			return nil, err
		}
	}
	b := d.Builder
	if b == nil {
		b = oracle.NewBuilder(nil)
	}
	table := d.Table
	if table == (model.SeverityTable{}) {
		table = model.DefaultSeverityTable()
	}
	cfg := reward.DefaultConfig()
	if d.Reward != nil {
		cfg = *d.Reward
	}
	return &ConfigAudit{
		builder:   b,
		validator: v,
		scorer:    reward.NewScorer(table, cfg),
		details:   map[string]any{},
	}, nil
}

// Result é o resultado completo de uma avaliação.
type Result struct {
	RunID     string
	Breakdown reward.Breakdown
	Output    *model.AuditOutput // nil quando a resposta é inválida
	Oracle    []model.Violation
	PostPatch []model.Violation // nil quando não houve patch
	// PatchApplied é false quando o patch não se aplicou ou a reauditoria
	// falhou; nesse caso o pós-patch é o próprio oracle.
	PatchApplied bool
}

// Score implementa Verifier.
func (c *ConfigAudit) Score(ctx context.Context, s Sample) (float64, error) {
	res, err := c.Evaluate(ctx, s)
	if err != nil {
		return reward.MinReward, err
	}
	return res.Breakdown.Reward, nil
}

// Details implementa Verifier; devolve uma cópia.
func (c *ConfigAudit) Details() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.details)
}

// Evaluate executa o fluxo completo. Só devolve erro quando o oracle não
// pode ser obtido; resposta inválida e patch que não aplica entram no
// reward.
func (c *ConfigAudit) Evaluate(ctx context.Context, s Sample) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := logging.Logger.With("run_id", res.RunID)

	var err error
	if res.Oracle, err = c.oracleFor(ctx, s); err != nil {
		return nil, err
	}

	out, err := c.validator.ParseCompletion(s.Completion)
	if err != nil {
		var vErr *schema.ValidationError
		if !errors.As(err, &vErr) {
			return nil, err
		}
		log.Debugw("resposta inválida", "problemas", vErr.Problems)
	} else {
		res.Output = out
	}

	in := reward.Inputs{Oracle: res.Oracle, Valid: res.Output != nil}
	if res.Output != nil {
		in.Predicted = res.Output.Violations
		if res.Output.Patch != "" {
			res.PostPatch, res.PatchApplied = c.postPatch(ctx, s, res.Output.Patch, res.Oracle)
			in.PostPatch = res.PostPatch
			in.Patched = true
		}
	}

	res.Breakdown = c.scorer.Score(in)
	log.Infow("amostra avaliada", "reward", res.Breakdown.Reward, "f1", res.Breakdown.F1, "patch_delta", res.Breakdown.PatchDelta, "valido", in.Valid)

	c.mu.Lock()
	c.details = res.Details()
	c.mu.Unlock()
	return res, nil
}

// Details achata o resultado no mapa auxiliar exposto pelo Verifier.
func (r *Result) Details() map[string]any {
	b := r.Breakdown
	d := map[string]any{
		"run_id":        r.RunID,
		"reward":        b.Reward,
		"precision":     b.Precision,
		"recall":        b.Recall,
		"f1":            b.F1,
		"tp_weight":     b.TP,
		"fp_weight":     b.FP,
		"fn_weight":     b.FN,
		"patch_delta":   b.PatchDelta,
		"patch_term":    b.PatchTerm,
		"format_term":   b.FormatTerm,
		"patch_applied": r.PatchApplied,
		"valid":         r.Output != nil,
		"oracle_size":   len(r.Oracle),
		"predicted":     0,
		"confidence":    0.0,
	}
	if r.Output != nil {
		d["predicted"] = len(r.Output.Violations)
		d["confidence"] = r.Output.Confidence
	}
	if r.PostPatch != nil {
		d["post_patch_size"] = len(r.PostPatch)
	}
	return d
}

func (c *ConfigAudit) oracleFor(ctx context.Context, s Sample) ([]model.Violation, error) {
	switch {
	case s.Oracle != nil:
		return s.Oracle, nil
	case s.GoldenPath != "":
		return oracle.LoadGolden(s.GoldenPath)
	case len(s.Paths) == 0:
		return nil, errors.New("amostra sem oracle, golden ou caminhos")
	}
	typ, err := c.artifactType(s)
	if err != nil {
		return nil, err
	}
	return c.builder.Build(ctx, s.Paths, typ)
}

func (c *ConfigAudit) artifactType(s Sample) (parser.ArtifactType, error) {
	if s.Type != "" {
		return s.Type, nil
	}
	return parser.DetectArtifactType(s.Paths)
}

// postPatch aplica o diff numa cópia dos artefatos e reaudita. Qualquer falha
// conta como "patch sem efeito": o pós-patch passa a ser o oracle pré-patch.
func (c *ConfigAudit) postPatch(ctx context.Context, s Sample, diffText string, pre []model.Violation) ([]model.Violation, bool) {
	log := logging.Logger
	if len(s.Paths) == 0 {
		log.Warnw("patch ignorado: amostra sem artefatos para reauditar")
		return pre, false
	}
	typ, err := c.artifactType(s)
	if err != nil {
		log.Warnw("patch ignorado: tipo de artefato", "erro", err)
		return pre, false
	}

	arts, err := parser.ArtifactFiles(s.Paths)
	if err != nil {
		log.Warnw("patch ignorado: leitura dos artefatos", "erro", err)
		return pre, false
	}
	files := make(map[string]string, len(arts))
	for _, a := range arts {
		b, err := os.ReadFile(a.Path)
		if err != nil {
			log.Warnw("patch ignorado: leitura dos artefatos", "erro", err)
			return pre, false
		}
		files[filepath.ToSlash(a.Path)] = string(b)
	}

	patched, err := patch.ApplyUnifiedFiles(files, diffText)
	if err != nil {
		log.Warnw("patch não aplicado; usando oracle pré-patch", "erro", err)
		return pre, false
	}

	dir, err := os.MkdirTemp("", "configaudit-patch-*")
	if err != nil {
		log.Warnw("patch ignorado: diretório temporário", "erro", err)
		return pre, false
	}
	defer os.RemoveAll(dir)

	roots, err := stage(dir, s.Paths, arts, patched)
	if err != nil {
		log.Warnw("patch ignorado: cópia dos artefatos", "erro", err)
		return pre, false
	}

	post, err := c.builder.Build(ctx, roots, typ)
	if err != nil {
		log.Warnw("reauditoria falhou; usando oracle pré-patch", "erro", err)
		return pre, false
	}
	if post == nil {
		post = []model.Violation{}
	}
	return post, true
}

// stage copia cada caminho de entrada inteiro para dir/<i> (arquivos que não
// são artefatos, como values.yaml de Helm, continuam ao lado dos manifestos)
// e sobrescreve os artefatos com o conteúdo já com patch. Devolve os caminhos
// a reauditar: o diretório da raiz, ou o arquivo quando a entrada era arquivo.
func stage(dir string, paths []string, arts []parser.Artifact, contents map[string]string) ([]string, error) {
	roots := make([]string, len(paths))
	for i, p := range paths {
		root := filepath.Join(dir, strconv.Itoa(i))
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			roots[i] = filepath.Join(root, filepath.Base(p))
			if err := copyFile(p, roots[i]); err != nil {
				return nil, err
			}
			continue
		}
		roots[i] = root
		if err := copyTree(p, root); err != nil {
			return nil, err
		}
	}
	for _, a := range arts {
		body, ok := contents[filepath.ToSlash(a.Path)]
		if !ok {
			return nil, fmt.Errorf("artefato %s sumiu do resultado do patch", a.Path)
		}
		dst := filepath.Join(dir, strconv.Itoa(a.Root), a.Rel)
		if err := os.WriteFile(dst, []byte(body), 0o644); err != nil {
			return nil, err
		}
	}
	return roots, nil
}

// copyTree copia os arquivos regulares de src para dst; links e arquivos
// especiais ficam de fora.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}
