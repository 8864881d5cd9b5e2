package patch

import (
	"fmt"
	"path"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// ApplyUnified aplica um diff unificado de um único arquivo ao texto original.
// O diff pode vir com cabeçalhos ---/+++ ou só com hunks (@@ ... @@).
// As linhas de contexto e de remoção precisam bater exatamente com o texto
// na posição indicada pelo cabeçalho do hunk; não há busca por deslocamento.
func ApplyUnified(original, patch string) (string, error) {
	if !hasFileHeader(patch) {
		hunks, err := diff.ParseHunks([]byte(withNewline(patch)))
		if err != nil {
			return "", &ApplyError{Reason: "diff malformado", Err: err}
		}
		return applyHunks(original, hunks)
	}

	fds, err := parseFileDiffs(patch)
	if err != nil {
		return "", err
	}
	if len(fds) != 1 {
		return "", &ApplyError{Reason: fmt.Sprintf("diff com %d arquivos; esperado 1", len(fds))}
	}
	if err := checkModifies(fds[0]); err != nil {
		return "", err
	}
	return applyHunks(original, fds[0].Hunks)
}

// ApplyUnifiedFiles aplica um diff de vários arquivos. Cada seção é casada
// com uma chave de files pelo caminho (sem os prefixos a/ e b/) e, se não
// houver, pelo nome base quando ele é único. Devolve um mapa novo com todos os
// arquivos; files não é alterado. Criar ou apagar arquivos não é permitido.
func ApplyUnifiedFiles(files map[string]string, patch string) (map[string]string, error) {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}

	if !hasFileHeader(patch) {
		if len(files) != 1 {
			return nil, &ApplyError{Reason: "diff sem cabeçalho de arquivo com mais de um alvo"}
		}
		for k, v := range files {
			patched, err := ApplyUnified(v, patch)
			if err != nil {
				return nil, err
			}
			out[k] = patched
		}
		return out, nil
	}

	fds, err := parseFileDiffs(patch)
	if err != nil {
		return nil, err
	}
	for _, fd := range fds {
		if err := checkModifies(fd); err != nil {
			return nil, err
		}
		key, err := matchFile(files, fd)
		if err != nil {
			return nil, err
		}
		patched, err := applyHunks(out[key], fd.Hunks)
		if err != nil {
			return nil, err
		}
		out[key] = patched
	}
	return out, nil
}

// applyHunks aplica os hunks em ordem. Cada hunk consome exatamente as
// contagens do cabeçalho (-a,b +c,d); linhas vazias depois disso são
// ignoradas. Texto com CRLF é casado sem o \r e devolvido com CRLF.
func applyHunks(original string, hunks []*diff.Hunk) (string, error) {
	if len(hunks) == 0 {
		return "", &ApplyError{Reason: "diff sem hunks"}
	}

	crlf := strings.Contains(original, "\r\n")
	if crlf {
		original = strings.ReplaceAll(original, "\r\n", "\n")
	}
	trailingNewline := original == "" || strings.HasSuffix(original, "\n")
	var lines []string
	if original != "" {
		lines = strings.Split(strings.TrimSuffix(original, "\n"), "\n")
	}

	out := make([]string, 0, len(lines))
	cursor := 0
	for hi, h := range hunks {
		where := fmt.Sprintf("hunk %d", hi+1)
		start := int(h.OrigStartLine) - 1
		if h.OrigLines == 0 {
			// hunk só de inserção: o início aponta a linha depois da qual inserir
			start = int(h.OrigStartLine)
		}
		if start < cursor || start > len(lines) {
			return "", &ApplyError{
				Where:  where,
				Reason: fmt.Sprintf("início %d fora do texto ou sobreposto ao hunk anterior", h.OrigStartLine),
			}
		}
		out = append(out, lines[cursor:start]...)

		body, mark := hunkLines(h, crlf)
		var err error
		if out, cursor, err = applyHunk(out, lines, start, h, body, &mark, hi+1); err != nil {
			return "", err
		}
		if mark.old || mark.new {
			if cursor != len(lines) {
				return "", &ApplyError{Where: where, Reason: "marcador de fim de arquivo antes do fim do texto"}
			}
			trailingNewline = !mark.new
		}
	}
	out = append(out, lines[cursor:]...)

	if len(out) == 0 {
		return "", nil
	}
	result := strings.Join(out, "\n")
	if trailingNewline {
		result += "\n"
	}
	if crlf {
		result = strings.ReplaceAll(result, "\n", "\r\n")
	}
	return result, nil
}

// applyHunk casa o corpo de um hunk com lines a partir de start e acrescenta
// o lado novo em out. Devolve out e a posição no texto original após o hunk.
func applyHunk(out, lines []string, start int, h *diff.Hunk, body []string, mark *eofMark, n int) ([]string, int, error) {
	where := fmt.Sprintf("hunk %d", n)
	wantOld, wantNew := int(h.OrigLines), int(h.NewLines)
	excess := &ApplyError{Where: where, Reason: fmt.Sprintf("hunk com mais linhas que o cabeçalho (-%d +%d)", wantOld, wantNew)}

	pos := start
	oldSeen, newSeen := 0, 0
	var prev byte
	i := 0
	for ; i < len(body) && (oldSeen < wantOld || newSeen < wantNew); i++ {
		bl := body[i]
		if strings.HasPrefix(bl, `\`) {
			mark.after(prev)
			continue
		}
		op, text := byte(' '), bl
		if bl != "" {
			op, text = bl[0], bl[1:]
		}
		switch op {
		case ' ', '-':
			if oldSeen == wantOld || (op == ' ' && newSeen == wantNew) {
				return nil, 0, excess
			}
			if pos >= len(lines) || lines[pos] != text {
				got := "<fim do texto>"
				if pos < len(lines) {
					got = fmt.Sprintf("%q", lines[pos])
				}
				return nil, 0, &ApplyError{
					Where:  fmt.Sprintf("hunk %d, linha %d", n, pos+1),
					Reason: fmt.Sprintf("esperado %q, encontrado %s", text, got),
				}
			}
			if op == ' ' {
				out = append(out, text)
				newSeen++
			}
			oldSeen++
			pos++
		case '+':
			if newSeen == wantNew {
				return nil, 0, excess
			}
			out = append(out, text)
			newSeen++
		default:
			return nil, 0, &ApplyError{Where: where, Reason: fmt.Sprintf("linha de hunk inválida %q", bl)}
		}
		prev = op
	}
	if oldSeen < wantOld || newSeen < wantNew {
		return nil, 0, &ApplyError{
			Where:  where,
			Reason: fmt.Sprintf("hunk com menos linhas que o cabeçalho: -%d +%d de -%d +%d", oldSeen, newSeen, wantOld, wantNew),
		}
	}
	for ; i < len(body); i++ {
		switch bl := body[i]; {
		case bl == "":
		case strings.HasPrefix(bl, `\`):
			mark.after(prev)
		default:
			return nil, 0, excess
		}
	}
	return out, pos, nil
}

// eofMark diz que lado do hunk termina sem newline ("\ No newline at end of file").
type eofMark struct{ old, new bool }

func (m *eofMark) after(op byte) {
	switch op {
	case '-':
		m.old = true
	case '+':
		m.new = true
	case ' ':
		m.old, m.new = true, true
	}
}

// hunkLines separa o corpo do hunk em linhas. O go-diff já tira o marcador
// de "sem newline" do corpo: depois de uma remoção ele fica em
// OrigNoNewlineAt; depois de contexto ou adição, o corpo termina sem "\n".
func hunkLines(h *diff.Hunk, crlf bool) ([]string, eofMark) {
	var mark eofMark
	if h.OrigNoNewlineAt > 0 {
		mark.old = true
	}
	body := string(h.Body)
	if body == "" {
		return nil, mark
	}
	noEOL := !strings.HasSuffix(body, "\n")
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	if crlf {
		for i, l := range lines {
			lines[i] = strings.TrimSuffix(l, "\r")
		}
	}
	if last := lines[len(lines)-1]; noEOL && last != "" {
		mark.after(last[0])
	}
	return lines, mark
}

func parseFileDiffs(patch string) ([]*diff.FileDiff, error) {
	fds, err := diff.ParseMultiFileDiff([]byte(withNewline(patch)))
	if err != nil {
		return nil, &ApplyError{Reason: "diff malformado", Err: err}
	}
	if len(fds) == 0 {
		return nil, &ApplyError{Reason: "diff vazio"}
	}
	return fds, nil
}

func checkModifies(fd *diff.FileDiff) error {
	if fd.OrigName == devNull || fd.NewName == devNull {
		return &ApplyError{
			Where:  fileName(fd),
			Reason: "o patch só pode modificar arquivos existentes",
		}
	}
	return nil
}

func matchFile(files map[string]string, fd *diff.FileDiff) (string, error) {
	name := fileName(fd)
	if _, ok := files[name]; ok {
		return name, nil
	}

	var suffix, base []string
	for k := range files {
		clean := path.Clean(strings.ReplaceAll(k, `\`, "/"))
		if clean == name || strings.HasSuffix(clean, "/"+name) {
			suffix = append(suffix, k)
		}
		if path.Base(clean) == path.Base(name) {
			base = append(base, k)
		}
	}
	switch {
	case len(suffix) == 1:
		return suffix[0], nil
	case len(suffix) == 0 && len(base) == 1:
		return base[0], nil
	}
	return "", &ApplyError{Where: name, Reason: "arquivo do diff não corresponde a nenhum artefato (ou corresponde a vários)"}
}

// fileName devolve o caminho do diff sem prefixos a/ b/ e sem timestamp.
func fileName(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == devNull {
		name = fd.OrigName
	}
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	for _, prefix := range []string{"a/", "b/"} {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	return path.Clean(name)
}

func hasFileHeader(patch string) bool {
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			return false
		}
		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "diff ") {
			return true
		}
	}
	return false
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
