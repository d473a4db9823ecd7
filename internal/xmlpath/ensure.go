// internal/xmlpath/ensure.go
package xmlpath

import (
	"github.com/beevik/etree"
)

/*
 * Find-or-create.
 *
 * Ensure walks the deepest existing chain of elements satisfying the
 * expression's steps and creates only the missing tail. Created elements
 * carry whatever their predicates demand (attributes, child elements,
 * text), so a second Ensure with the same expression finds them again.
 *
 * Wrapper back-off: HL7 relationship elements (component, subjectOf2,
 * outboundRelationship2, ...) hold exactly one act. When the deepest match
 * ends on such a wrapper that already holds a child element, the next step
 * failed to match that child, so the wrapper belongs to another act and a
 * fresh sibling wrapper is created instead of adding a second act to it.
 *
 * New elements are placed after the last sibling with the same name, or
 * appended, and reuse the prefix already bound to their namespace.
 */

var wrappers = map[string]bool{
	"component":             true,
	"component1":            true,
	"component2":            true,
	"subject":               true,
	"subject1":              true,
	"subject2":              true,
	"subjectOf1":            true,
	"subjectOf2":            true,
	"outboundRelationship":  true,
	"outboundRelationship1": true,
	"outboundRelationship2": true,
	"inboundRelationship":   true,
	"referenceRange":        true,
	"consumable":            true,
	"pertinentInformation":  true,
	"sourceOf1":             true,
	"sourceOf2":             true,
}

// IsWrapper reports whether local names an HL7 relationship wrapper.
func IsWrapper(local string) bool {
	return wrappers[local]
}

func occupied(e *etree.Element) bool {
	return IsWrapper(e.Tag) && len(e.ChildElements()) > 0
}

// deepest returns the longest chain of elements under e matching a prefix
// of steps. Ties go to the first chain in document order whose last
// element is not an occupied wrapper.
func deepest(e *etree.Element, steps []step) []*etree.Element {
	if len(steps) == 0 {
		return nil
	}
	var best []*etree.Element
	for _, c := range steps[0].children(e) {
		chain := append([]*etree.Element{c}, deepest(c, steps[1:])...)
		if better(chain, best) {
			best = chain
		}
	}
	return best
}

func better(a, b []*etree.Element) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	if len(a) == 0 {
		return false
	}
	return occupied(b[len(b)-1]) && !occupied(a[len(a)-1])
}

// Ensure returns the element holding the expression's target, creating the
// missing part of the chain. Absolute expressions fail with ErrRootMismatch
// when the document root does not match; the root is never created.
func (x *Expr) Ensure(ctx *etree.Element) (*etree.Element, error) {
	base, steps, err := x.start(ctx)
	if err != nil {
		return nil, err
	}
	chain := deepest(base, steps)
	k := len(chain)
	if k == len(steps) {
		if k == 0 {
			return base, nil
		}
		return chain[k-1], nil
	}

	if k > 0 && occupied(chain[k-1]) {
		k--
	}
	parent := base
	if k > 0 {
		parent = chain[k-1]
	}
	return build(parent, steps[k:]), nil
}

// Append creates the expression's full chain under ctx without reusing any
// existing element. Used to add a new occurrence of a repeating node.
func (x *Expr) Append(ctx *etree.Element) (*etree.Element, error) {
	base, steps, err := x.start(ctx)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return base, nil
	}
	return build(base, steps), nil
}

// Set writes value to the target of x on e (an element returned by Select
// or Ensure).
func (x *Expr) Set(e *etree.Element, value string) {
	if x.attr != nil {
		setAttr(e, *x.attr, value)
		return
	}
	e.SetText(value)
}

// Clear removes the target value of x from e.
func (x *Expr) Clear(e *etree.Element) {
	if x.attr != nil {
		if a := findAttr(e, *x.attr); a != nil {
			e.RemoveAttr(a.FullKey())
		}
		return
	}
	e.SetText("")
}

// SetXSIType sets xsi:type on e, declaring the xsi namespace on the
// document root when it is not yet in scope.
func SetXSIType(e *etree.Element, typ string) {
	setAttr(e, qname{prefix: "xsi", space: XSINamespace, local: "type"}, typ)
}

func build(parent *etree.Element, steps []step) *etree.Element {
	cur := parent
	for _, st := range steps {
		e := etree.NewElement(elementName(cur, st.name))
		insert(cur, e)
		for _, c := range st.conds {
			satisfy(e, c)
		}
		cur = e
	}
	return cur
}

func satisfy(e *etree.Element, c cond) {
	t := e
	for _, q := range c.path {
		if kids := childrenNamed(t, q); len(kids) > 0 {
			t = kids[0]
			continue
		}
		n := etree.NewElement(elementName(t, q))
		insert(t, n)
		t = n
	}
	switch {
	case c.attr != nil && c.equals:
		setAttr(t, *c.attr, c.value)
	case c.attr != nil:
		if findAttr(t, *c.attr) == nil {
			setAttr(t, *c.attr, "")
		}
	case c.equals:
		t.SetText(c.value)
	}
}

func elementName(parent *etree.Element, q qname) string {
	if q.space == "" {
		return q.local
	}
	if p, ok := prefixFor(parent, q.space); ok && p != "" {
		return p + ":" + q.local
	}
	return q.local
}

func insert(parent, e *etree.Element) {
	var last *etree.Element
	for _, c := range parent.ChildElements() {
		if c.Tag == e.Tag && c.Space == e.Space {
			last = c
		}
	}
	if last != nil {
		parent.InsertChildAt(last.Index()+1, e)
		return
	}
	parent.AddChild(e)
}

func setAttr(e *etree.Element, q qname, value string) {
	if a := findAttr(e, q); a != nil {
		a.Value = value
		return
	}
	if q.space == "" {
		e.CreateAttr(q.local, value)
		return
	}
	p, ok := prefixFor(e, q.space)
	if !ok || p == "" {
		p = q.prefix
		Top(e).CreateAttr("xmlns:"+p, q.space)
	}
	e.CreateAttr(p+":"+q.local, value)
}

// XSIType returns the xsi:type of e, if any.
func XSIType(e *etree.Element) (string, bool) {
	if a := findAttr(e, qname{space: XSINamespace, local: "type"}); a != nil {
		return a.Value, true
	}
	return "", false
}
