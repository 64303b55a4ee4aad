package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/quakelink/internal/fetch"
)

// TermKind tells IRIs, blank nodes and literals apart
type TermKind int

const (
	TermIRI TermKind = iota
	TermBlank
	TermLiteral
)

// Term is an RDF node
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns an IRI term
func IRI(v string) Term { return Term{Kind: TermIRI, Value: v} }

// Literal returns a plain literal
func Literal(v string) Term { return Term{Kind: TermLiteral, Value: v} }

// Typed returns a literal with a datatype
func Typed(v, datatype string) Term { return Term{Kind: TermLiteral, Value: v, Datatype: datatype} }

// IsLiteral reports whether t is a literal
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

// String renders t in N-Triples / SPARQL syntax
func (t Term) String() string {
	switch t.Kind {
	case TermBlank:
		return "_:" + strings.TrimPrefix(t.Value, "_:")
	case TermLiteral:
		s := fetch.QuoteLiteral(t.Value)
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^" + iriRef(t.Datatype)
		}
		return s
	default:
		return iriRef(t.Value)
	}
}

// Triple is a statement in a named graph; an empty Graph is the default graph
type Triple struct {
	Graph     string
	Subject   string
	Predicate string
	Object    Term
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", node(t.Subject), iriRef(t.Predicate), t.Object)
}

// TripleStore is the storage primitive under the local graph backends
type TripleStore interface {
	// Add inserts triples, ignoring ones already present, and reports how
	// many were new.
	Add(ctx context.Context, triples ...Triple) (int, error)
	// Match returns triples with the given subject, predicate and object.
	// Empty strings and a nil object are wildcards; objects compare by kind
	// and value.
	Match(ctx context.Context, subject, predicate string, object *Term) ([]Triple, error)
	// Remove deletes an exact triple if present.
	Remove(ctx context.Context, t Triple) error
	Close() error
}

// node renders a subject or graph name, which may be a blank node
func node(v string) string {
	if strings.HasPrefix(v, "_:") {
		return v
	}
	return iriRef(v)
}

// iriRef renders v as <v>, percent-encoding characters IRIs may not carry
func iriRef(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 2)
	b.WriteByte('<')
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c <= ' ' || strings.IndexByte("<>\"{}|^`\\", c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	b.WriteByte('>')
	return b.String()
}
