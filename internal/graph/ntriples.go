package graph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// loadBatch is how many parsed triples are inserted per transaction
const loadBatch = 500

// ParseNTriplesLine parses one N-Triples or N-Quads statement. Blank and
// comment lines report ok=false with no error.
func ParseNTriplesLine(line string) (t Triple, ok bool, err error) {
	p := &lineParser{s: line}
	p.skipSpace()
	if p.done() || p.peek() == '#' {
		return Triple{}, false, nil
	}

	subj, err := p.term()
	if err != nil {
		return Triple{}, false, fmt.Errorf("subject: %w", err)
	}
	if subj.Kind == TermLiteral {
		return Triple{}, false, fmt.Errorf("subject cannot be a literal")
	}

	pred, err := p.term()
	if err != nil {
		return Triple{}, false, fmt.Errorf("predicate: %w", err)
	}
	if pred.Kind != TermIRI {
		return Triple{}, false, fmt.Errorf("predicate must be an IRI")
	}

	obj, err := p.term()
	if err != nil {
		return Triple{}, false, fmt.Errorf("object: %w", err)
	}

	t = Triple{Subject: subj.Value, Predicate: pred.Value, Object: obj}

	p.skipSpace()
	if !p.done() && p.peek() != '.' {
		g, err := p.term()
		if err != nil {
			return Triple{}, false, fmt.Errorf("graph: %w", err)
		}
		if g.Kind == TermLiteral {
			return Triple{}, false, fmt.Errorf("graph cannot be a literal")
		}
		t.Graph = g.Value
		p.skipSpace()
	}

	if p.done() || p.peek() != '.' {
		return Triple{}, false, fmt.Errorf("missing terminating '.'")
	}
	p.pos++
	p.skipSpace()
	if !p.done() && p.peek() != '#' {
		return Triple{}, false, fmt.Errorf("trailing content %q", p.s[p.pos:])
	}
	return t, true, nil
}

// LoadNTriples reads N-Triples (or N-Quads) from r into ts. Statements
// without a graph go to defaultGraph. It returns the number of new triples.
func LoadNTriples(ctx context.Context, r io.Reader, ts TripleStore, defaultGraph string) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		batch  []Triple
		added  int
		lineNo int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := ts.Add(ctx, batch...)
		if err != nil {
			return err
		}
		added += n
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		lineNo++
		t, ok, err := ParseNTriplesLine(scanner.Text())
		if err != nil {
			return added, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}
		if t.Graph == "" {
			t.Graph = defaultGraph
		}
		batch = append(batch, t)
		if len(batch) >= loadBatch {
			if err := flush(); err != nil {
				return added, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return added, fmt.Errorf("read: %w", err)
	}
	if err := flush(); err != nil {
		return added, err
	}
	return added, nil
}

type lineParser struct {
	s   string
	pos int
}

func (p *lineParser) done() bool { return p.pos >= len(p.s) }
func (p *lineParser) peek() byte { return p.s[p.pos] }

func (p *lineParser) skipSpace() {
	for !p.done() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\r') {
		p.pos++
	}
}

func (p *lineParser) term() (Term, error) {
	p.skipSpace()
	if p.done() {
		return Term{}, io.ErrUnexpectedEOF
	}
	switch {
	case p.peek() == '<':
		v, err := p.iri()
		return Term{Kind: TermIRI, Value: v}, err
	case strings.HasPrefix(p.s[p.pos:], "_:"):
		p.pos += 2
		start := p.pos
		for !p.done() && p.peek() != ' ' && p.peek() != '\t' {
			p.pos++
		}
		label := strings.TrimSuffix(p.s[start:p.pos], ".")
		p.pos = start + len(label)
		if label == "" {
			return Term{}, fmt.Errorf("empty blank node label")
		}
		return Term{Kind: TermBlank, Value: "_:" + label}, nil
	case p.peek() == '"':
		return p.literal()
	}
	return Term{}, fmt.Errorf("unexpected %q", p.peek())
}

func (p *lineParser) iri() (string, error) {
	end := strings.IndexByte(p.s[p.pos:], '>')
	if end < 0 {
		return "", fmt.Errorf("unterminated IRI")
	}
	raw := p.s[p.pos+1 : p.pos+end]
	p.pos += end + 1
	return unescape(raw)
}

func (p *lineParser) literal() (Term, error) {
	p.pos++
	var b strings.Builder
	for {
		if p.done() {
			return Term{}, fmt.Errorf("unterminated literal")
		}
		c := p.peek()
		if c == '"' {
			p.pos++
			break
		}
		if c == '\\' {
			r, n, err := decodeEscape(p.s[p.pos:])
			if err != nil {
				return Term{}, err
			}
			b.WriteString(r)
			p.pos += n
			continue
		}
		b.WriteByte(c)
		p.pos++
	}

	t := Term{Kind: TermLiteral, Value: b.String()}
	if p.done() {
		return t, nil
	}
	switch {
	case p.peek() == '@':
		p.pos++
		start := p.pos
		for !p.done() && (isAlnum(p.peek()) || p.peek() == '-') {
			p.pos++
		}
		t.Lang = p.s[start:p.pos]
	case strings.HasPrefix(p.s[p.pos:], "^^"):
		p.pos += 2
		if p.done() || p.peek() != '<' {
			return Term{}, fmt.Errorf("datatype must be an IRI")
		}
		dt, err := p.iri()
		if err != nil {
			return Term{}, err
		}
		t.Datatype = dt
	}
	return t, nil
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		r, n, err := decodeEscape(s[i:])
		if err != nil {
			return "", err
		}
		b.WriteString(r)
		i += n
	}
	return b.String(), nil
}

// decodeEscape decodes the escape sequence at the start of s
func decodeEscape(s string) (string, int, error) {
	if len(s) < 2 {
		return "", 0, fmt.Errorf("dangling escape")
	}
	switch s[1] {
	case 't':
		return "\t", 2, nil
	case 'n':
		return "\n", 2, nil
	case 'r':
		return "\r", 2, nil
	case 'b':
		return "\b", 2, nil
	case 'f':
		return "\f", 2, nil
	case '"', '\'', '\\':
		return string(s[1]), 2, nil
	case 'u', 'U':
		width := 4
		if s[1] == 'U' {
			width = 8
		}
		if len(s) < 2+width {
			return "", 0, fmt.Errorf("short unicode escape")
		}
		code, err := strconv.ParseUint(s[2:2+width], 16, 32)
		if err != nil {
			return "", 0, fmt.Errorf("bad unicode escape: %w", err)
		}
		return string(rune(code)), 2 + width, nil
	}
	return "", 0, fmt.Errorf("unknown escape \\%c", s[1])
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
