// internal/xmlpath/expr.go
package xmlpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

/*
 * Addressing expressions over an etree DOM.
 *
 * Supported grammar (a narrow XPath subset):
 *
 *   expr      = ['/'] step ('/' step)* ['/@' qname | '/text()']
 *   step      = qname ('[' pred ']')*
 *   pred      = cond (' and ' cond)* | integer
 *   cond      = relpath ['=' literal]
 *   relpath   = qname ('/' qname)* ['/@' qname] | '@' qname
 *
 * Element names match by namespace URI, so the document may bind hl7 to
 * the default namespace or to any prefix. Attributes without a prefix are
 * unqualified. A trailing '@attr' makes the attribute the target, otherwise
 * the element text is.
 *
 * Compiled expressions are immutable and cached in an LRU keyed by source.
 */

// Namespace URIs bound to the hl7 and xsi prefixes.
const (
	HL7Namespace = "urn:hl7-org:v3"
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// DefaultCacheSize bounds the compiled-expression cache.
const DefaultCacheSize = 1024

var bindings = map[string]string{
	"hl7": HL7Namespace,
	"xsi": XSINamespace,
}

// ErrRootMismatch indicates an absolute expression whose first step does
// not name the document root.
var ErrRootMismatch = errors.New("xmlpath: document root does not match expression")

type qname struct {
	prefix string // as written in the expression
	space  string // namespace URI; "" = unqualified
	local  string
}

func (q qname) String() string {
	if q.prefix == "" {
		return q.local
	}
	return q.prefix + ":" + q.local
}

// cond is one predicate term evaluated against a candidate element.
type cond struct {
	path   []qname
	attr   *qname
	value  string
	equals bool
}

type step struct {
	name     qname
	conds    []cond
	position int // 1-based; 0 = unconstrained
}

// Expr is a compiled addressing expression.
type Expr struct {
	src      string
	absolute bool
	steps    []step
	attr     *qname
}

// String returns the source the expression was compiled from.
func (x *Expr) String() string { return x.src }

// Absolute reports whether the expression starts at the document root.
func (x *Expr) Absolute() bool { return x.absolute }

// Attribute returns the target attribute name, or "" when the target is
// element text.
func (x *Expr) Attribute() string {
	if x.attr == nil {
		return ""
	}
	return x.attr.String()
}

var cache atomic.Pointer[lru.Cache[string, *Expr]]

func init() {
	if err := SetCacheSize(DefaultCacheSize); err != nil {
		panic(err)
	}
}

// SetCacheSize replaces the compiled-expression cache with an empty one
// holding at most size entries.
func SetCacheSize(size int) error {
	c, err := lru.New[string, *Expr](size)
	if err != nil {
		return fmt.Errorf("failed to create expression cache: %w", err)
	}
	cache.Store(c)
	return nil
}

// Compile parses src, returning a cached expression when available.
func Compile(src string) (*Expr, error) {
	c := cache.Load()
	if x, ok := c.Get(src); ok {
		return x, nil
	}
	x, err := parse(src)
	if err != nil {
		return nil, err
	}
	c.Add(src, x)
	return x, nil
}

// MustCompile is Compile for expressions known at build time.
func MustCompile(src string) *Expr {
	x, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return x
}

func parse(src string) (*Expr, error) {
	s := strings.TrimSpace(src)
	if s == "" {
		return nil, fmt.Errorf("xmlpath: empty expression")
	}
	x := &Expr{src: src}
	if strings.HasPrefix(s, "/") {
		x.absolute = true
		s = s[1:]
	}

	segs, err := split(s, '/')
	if err != nil {
		return nil, fmt.Errorf("xmlpath: %q: %w", src, err)
	}
	for i, seg := range segs {
		last := i == len(segs)-1
		switch {
		case seg == "text()":
			if !last {
				return nil, fmt.Errorf("xmlpath: %q: text() must be the final segment", src)
			}
		case strings.HasPrefix(seg, "@"):
			if !last {
				return nil, fmt.Errorf("xmlpath: %q: attribute must be the final segment", src)
			}
			q, err := parseQName(seg[1:])
			if err != nil {
				return nil, fmt.Errorf("xmlpath: %q: %w", src, err)
			}
			x.attr = &q
		default:
			st, err := parseStep(seg)
			if err != nil {
				return nil, fmt.Errorf("xmlpath: %q: %w", src, err)
			}
			x.steps = append(x.steps, st)
		}
	}
	if x.absolute && len(x.steps) == 0 {
		return nil, fmt.Errorf("xmlpath: %q: absolute expression needs a root step", src)
	}
	return x, nil
}

func parseStep(seg string) (step, error) {
	var st step
	open := strings.IndexByte(seg, '[')
	name := seg
	if open >= 0 {
		name = seg[:open]
	}
	q, err := parseQName(name)
	if err != nil {
		return st, err
	}
	st.name = q

	rest := ""
	if open >= 0 {
		rest = seg[open:]
	}
	for rest != "" {
		if rest[0] != '[' {
			return st, fmt.Errorf("unexpected %q after predicate", rest)
		}
		end := closing(rest)
		if end < 0 {
			return st, fmt.Errorf("unterminated predicate in %q", seg)
		}
		body := strings.TrimSpace(rest[1:end])
		rest = rest[end+1:]

		if n, err := strconv.Atoi(body); err == nil {
			if n < 1 {
				return st, fmt.Errorf("position must be >= 1, got %d", n)
			}
			st.position = n
			continue
		}
		terms, err := splitAnd(body)
		if err != nil {
			return st, err
		}
		for _, t := range terms {
			c, err := parseCond(t)
			if err != nil {
				return st, err
			}
			st.conds = append(st.conds, c)
		}
	}
	return st, nil
}

func parseCond(term string) (cond, error) {
	var c cond
	lhs := term
	if eq := indexOutsideQuotes(term, '='); eq >= 0 {
		lhs = strings.TrimSpace(term[:eq])
		lit, err := parseLiteral(strings.TrimSpace(term[eq+1:]))
		if err != nil {
			return c, err
		}
		c.value = lit
		c.equals = true
	}
	parts, err := split(lhs, '/')
	if err != nil {
		return c, err
	}
	for i, p := range parts {
		if strings.HasPrefix(p, "@") {
			if i != len(parts)-1 {
				return c, fmt.Errorf("attribute must end predicate path %q", lhs)
			}
			q, err := parseQName(p[1:])
			if err != nil {
				return c, err
			}
			c.attr = &q
			continue
		}
		if strings.ContainsAny(p, "[]") {
			return c, fmt.Errorf("nested predicates are not supported: %q", lhs)
		}
		q, err := parseQName(p)
		if err != nil {
			return c, err
		}
		c.path = append(c.path, q)
	}
	if len(c.path) == 0 && c.attr == nil {
		return c, fmt.Errorf("empty predicate")
	}
	return c, nil
}

func parseQName(s string) (qname, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return qname{}, fmt.Errorf("empty name")
	}
	prefix, local, found := strings.Cut(s, ":")
	if !found {
		return qname{local: s}, nil
	}
	uri, ok := bindings[prefix]
	if !ok {
		return qname{}, fmt.Errorf("unbound prefix %q", prefix)
	}
	if local == "" {
		return qname{}, fmt.Errorf("empty local name in %q", s)
	}
	return qname{prefix: prefix, space: uri, local: local}, nil
}

func parseLiteral(s string) (string, error) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], nil
	}
	return "", fmt.Errorf("expected quoted literal, got %q", s)
}

// split cuts s on sep outside brackets and quotes.
func split(s string, sep byte) ([]string, error) {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '[':
			depth++
		case ch == ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced ']'")
			}
		case ch == sep && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if depth != 0 || quote != 0 {
		return nil, fmt.Errorf("unbalanced brackets or quotes")
	}
	out = append(out, strings.TrimSpace(s[start:]))
	for _, seg := range out {
		if seg == "" {
			return nil, fmt.Errorf("empty segment")
		}
	}
	return out, nil
}

// splitAnd cuts a predicate body on the 'and' keyword outside quotes.
func splitAnd(body string) ([]string, error) {
	var out []string
	var quote byte
	start := 0
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == '\'' || ch == '"' {
			quote = ch
			continue
		}
		if strings.HasPrefix(body[i:], " and ") {
			out = append(out, strings.TrimSpace(body[start:i]))
			start = i + len(" and ")
			i = start - 1
		}
	}
	out = append(out, strings.TrimSpace(body[start:]))
	for _, t := range out {
		if t == "" {
			return nil, fmt.Errorf("empty term in predicate %q", body)
		}
	}
	return out, nil
}

// closing returns the index of the ']' matching s[0] == '['.
func closing(s string) int {
	var quote byte
	for i := 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ']':
			return i
		}
	}
	return -1
}

func indexOutsideQuotes(s string, target byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == '\'' || ch == '"' {
			quote = ch
			continue
		}
		if ch == target {
			return i
		}
	}
	return -1
}
