package xmlpath

import (
	"strings"

	"github.com/beevik/etree"
)

// Top returns the outermost element containing e.
func Top(e *etree.Element) *etree.Element {
	for e != nil {
		p := e.Parent()
		// the etree Document is itself an untagged Element
		if p == nil || p.Tag == "" {
			return e
		}
		e = p
	}
	return nil
}

// NamespaceOf returns the namespace URI prefix resolves to in e's scope.
func NamespaceOf(e *etree.Element, prefix string) string {
	for ; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	if prefix == "xml" {
		return "http://www.w3.org/XML/1998/namespace"
	}
	return ""
}

// prefixFor returns a prefix bound to uri in e's scope ("" when uri is the
// default namespace).
func prefixFor(e *etree.Element, uri string) (string, bool) {
	if NamespaceOf(e, "") == uri {
		return "", true
	}
	for p := e; p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			if a.Space == "xmlns" && a.Value == uri && NamespaceOf(e, a.Key) == uri {
				return a.Key, true
			}
		}
	}
	return "", false
}

func matchesName(e *etree.Element, q qname) bool {
	if e.Tag != q.local {
		return false
	}
	if q.space == "" {
		return true
	}
	uri := NamespaceOf(e, e.Space)
	// documents that never declare a namespace are read as HL7
	return uri == q.space || (uri == "" && e.Space == "")
}

func findAttr(e *etree.Element, q qname) *etree.Attr {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Key != q.local || a.Space == "xmlns" {
			continue
		}
		if q.space == "" {
			if a.Space == "" {
				return a
			}
			continue
		}
		if a.Space != "" && NamespaceOf(e, a.Space) == q.space {
			return a
		}
	}
	return nil
}

func childrenNamed(e *etree.Element, q qname) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if matchesName(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func (c cond) holds(e *etree.Element) bool {
	targets := []*etree.Element{e}
	for _, q := range c.path {
		var next []*etree.Element
		for _, t := range targets {
			next = append(next, childrenNamed(t, q)...)
		}
		if len(next) == 0 {
			return false
		}
		targets = next
	}
	for _, t := range targets {
		if c.attr != nil {
			a := findAttr(t, *c.attr)
			if a == nil {
				continue
			}
			if !c.equals || a.Value == c.value {
				return true
			}
			continue
		}
		if !c.equals || strings.TrimSpace(t.Text()) == c.value {
			return true
		}
	}
	return false
}

func (st step) accepts(e *etree.Element) bool {
	if !matchesName(e, st.name) {
		return false
	}
	for _, c := range st.conds {
		if !c.holds(e) {
			return false
		}
	}
	return true
}

// children returns the children of e the step selects, in document order.
func (st step) children(e *etree.Element) []*etree.Element {
	var out []*etree.Element
	n := 0
	for _, c := range e.ChildElements() {
		if !st.accepts(c) {
			continue
		}
		n++
		if st.position == 0 || st.position == n {
			out = append(out, c)
		}
	}
	return out
}

// start resolves the context an evaluation begins from. For absolute
// expressions the root must satisfy the first step.
func (x *Expr) start(ctx *etree.Element) (*etree.Element, []step, error) {
	if !x.absolute {
		return ctx, x.steps, nil
	}
	root := Top(ctx)
	if root == nil || !x.steps[0].accepts(root) {
		return nil, nil, ErrRootMismatch
	}
	return root, x.steps[1:], nil
}

// Select returns the elements holding the expression's target, in
// document order. ctx is the context element for relative expressions and
// any element of the document for absolute ones.
func (x *Expr) Select(ctx *etree.Element) []*etree.Element {
	if ctx == nil {
		return nil
	}
	base, steps, err := x.start(ctx)
	if err != nil {
		return nil
	}
	cur := []*etree.Element{base}
	for _, st := range steps {
		var next []*etree.Element
		for _, e := range cur {
			next = append(next, st.children(e)...)
		}
		if len(next) == 0 {
			return nil
		}
		cur = next
	}
	return cur
}

// Value returns the first non-blank target value, trimmed.
func (x *Expr) Value(ctx *etree.Element) (string, bool) {
	for _, e := range x.Select(ctx) {
		if v := strings.TrimSpace(x.read(e)); v != "" {
			return v, true
		}
	}
	return "", false
}

func (x *Expr) read(e *etree.Element) string {
	if x.attr != nil {
		if a := findAttr(e, *x.attr); a != nil {
			return a.Value
		}
		return ""
	}
	return e.Text()
}
