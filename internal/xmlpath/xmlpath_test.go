package xmlpath

import (
	"fmt"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const obsCS = "2.16.840.1.113883.3.989.2.1.1.19"

func mustDoc(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		t.Fatalf("ReadFromString() error = %v", err)
	}
	return doc
}

func serialize(t *testing.T, doc *etree.Document) string {
	t.Helper()
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("WriteToString() error = %v", err)
	}
	return s
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unbound prefix", "foo:bar"},
		{"attribute not last", "hl7:a/@b/hl7:c"},
		{"unterminated predicate", "hl7:a[@b='1'"},
		{"unquoted literal", "hl7:a[@b=1]"},
		{"empty segment", "hl7:a//hl7:b"},
		{"root only slash", "/"},
		{"zero position", "hl7:a[0]"},
		{"nested predicate", "hl7:a[hl7:b[@c='1']/@d='2']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.src); err == nil {
				t.Errorf("Compile(%q) error = nil, want error", tt.src)
			}
		})
	}
}

func TestCompile_Cached(t *testing.T) {
	a := MustCompile("hl7:a/hl7:b/@c")
	b := MustCompile("hl7:a/hl7:b/@c")
	if a != b {
		t.Errorf("Compile() returned distinct expressions for the same source")
	}
	if got := a.Attribute(); got != "c" {
		t.Errorf("Attribute() = %q, want c", got)
	}
}

func TestValue_NamespaceBindings(t *testing.T) {
	docs := map[string]string{
		"default namespace": `<root xmlns="urn:hl7-org:v3"><code code="29" codeSystem="` + obsCS + `"/></root>`,
		"prefixed":          `<v3:root xmlns:v3="urn:hl7-org:v3"><v3:code code="29" codeSystem="` + obsCS + `"/></v3:root>`,
		"no namespace":      `<root><code code="29" codeSystem="` + obsCS + `"/></root>`,
	}
	x := MustCompile("/hl7:root/hl7:code[@codeSystem='" + obsCS + "']/@code")

	for name, src := range docs {
		t.Run(name, func(t *testing.T) {
			doc := mustDoc(t, src)
			got, ok := x.Value(doc.Root())
			if !ok || got != "29" {
				t.Errorf("Value() = %q, %v; want 29, true", got, ok)
			}
		})
	}
}

func TestValue_ForeignNamespaceIgnored(t *testing.T) {
	doc := mustDoc(t, `<root xmlns="urn:hl7-org:v3" xmlns:o="urn:other"><o:code code="1"/></root>`)
	if v, ok := MustCompile("hl7:code/@code").Value(doc.Root()); ok {
		t.Errorf("Value() = %q, want no match", v)
	}
}

func TestValue_FirstNonBlank(t *testing.T) {
	doc := mustDoc(t, `<root xmlns="urn:hl7-org:v3">
		<name>  </name>
		<name nullFlavor="MSK"/>
		<name> AB </name>
	</root>`)
	got, ok := MustCompile("hl7:name").Value(doc.Root())
	if !ok || got != "AB" {
		t.Errorf("Value() = %q, %v; want AB, true", got, ok)
	}
}

func TestSelect_Predicates(t *testing.T) {
	doc := mustDoc(t, `<root xmlns="urn:hl7-org:v3">
		<obs><code code="3"/><value value="40"/></obs>
		<obs><code code="7"/><value value="70" unit="kg"/></obs>
		<obs><code code="7"/><value value="150" unit="[lb_av]"/></obs>
		<obs><code>text</code></obs>
	</root>`)

	tests := []struct {
		expr string
		want []string
	}{
		{"hl7:obs[hl7:code/@code='7']/hl7:value/@value", []string{"70", "150"}},
		{"hl7:obs[hl7:code/@code='7' and hl7:value/@unit='kg']/hl7:value/@value", []string{"70"}},
		{"hl7:obs[hl7:code/@code='7'][2]/hl7:value/@value", []string{"150"}},
		{"hl7:obs[hl7:code='text']", []string{""}},
		{"hl7:obs[hl7:value]/hl7:code/@code", []string{"3", "7", "7"}},
		{"hl7:obs[hl7:code/@code='99']/hl7:value/@value", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			x := MustCompile(tt.expr)
			var got []string
			for _, e := range x.Select(doc.Root()) {
				got = append(got, strings.TrimSpace(x.read(e)))
			}
			if fmt.Sprintf("%q", got) != fmt.Sprintf("%q", tt.want) {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnsure_CreatesPredicatedChain(t *testing.T) {
	doc := mustDoc(t, `<root xmlns="urn:hl7-org:v3"><primaryRole/></root>`)
	x := MustCompile("/hl7:root/hl7:primaryRole/hl7:subjectOf2/hl7:observation[hl7:code/@code='29'][hl7:code/@codeSystem='" + obsCS + "']/hl7:value/@code")

	e, err := x.Ensure(doc.Root())
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	x.Set(e, "10019211")

	want := `<root xmlns="urn:hl7-org:v3"><primaryRole><subjectOf2><observation><code code="29" codeSystem="` + obsCS + `"/><value code="10019211"/></observation></subjectOf2></primaryRole></root>`
	if got := serialize(t, doc); got != want {
		t.Errorf("document = %s\nwant %s", got, want)
	}

	again, err := x.Ensure(doc.Root())
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if again != e {
		t.Errorf("second Ensure() created a new element")
	}
}

func TestEnsure_WrapperBackoff(t *testing.T) {
	doc := mustDoc(t, `<root xmlns="urn:hl7-org:v3"><subjectOf2><observation><code code="3"/></observation></subjectOf2><subjectOf2/></root>`)
	x := MustCompile("hl7:subjectOf2/hl7:observation[hl7:code/@code='29']/hl7:value/@value")

	e, err := x.Ensure(doc.Root())
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	x.Set(e, "v")

	wrappers := doc.Root().SelectElements("subjectOf2")
	if len(wrappers) != 2 {
		t.Fatalf("len(subjectOf2) = %d, want 2 (empty wrapper reused)", len(wrappers))
	}
	if got := wrappers[1].FindElement("observation/code"); got == nil || got.SelectAttrValue("code", "") != "29" {
		t.Errorf("new observation not placed in the empty wrapper")
	}

	y := MustCompile("hl7:subjectOf2/hl7:observation[hl7:code/@code='34']/hl7:value/@value")
	if _, err := y.Ensure(doc.Root()); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if n := len(doc.Root().SelectElements("subjectOf2")); n != 3 {
		t.Errorf("len(subjectOf2) = %d, want 3 (occupied wrappers skipped)", n)
	}
}

func TestEnsure_RootMismatch(t *testing.T) {
	doc := mustDoc(t, `<other xmlns="urn:hl7-org:v3"/>`)
	_, err := MustCompile("/hl7:root/hl7:a/@b").Ensure(doc.Root())
	if err != ErrRootMismatch {
		t.Errorf("Ensure() error = %v, want ErrRootMismatch", err)
	}
}

func TestEnsure_ReusesPrefix(t *testing.T) {
	doc := mustDoc(t, `<v3:root xmlns:v3="urn:hl7-org:v3"><v3:a/></v3:root>`)
	x := MustCompile("hl7:a/hl7:b[@typeCode='PERT']/hl7:c")
	e, err := x.Ensure(doc.Root())
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	x.Set(e, "text")

	want := `<v3:root xmlns:v3="urn:hl7-org:v3"><v3:a><v3:b typeCode="PERT"><v3:c>text</v3:c></v3:b></v3:a></v3:root>`
	if got := serialize(t, doc); got != want {
		t.Errorf("document = %s\nwant %s", got, want)
	}
}

func TestEnsure_InsertsAfterSameNameSibling(t *testing.T) {
	doc := mustDoc(t, `<root xmlns="urn:hl7-org:v3"><id root="1"/><code/><text/></root>`)
	e, err := MustCompile("hl7:id[@root='2']/@extension").Ensure(doc.Root())
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if idx := e.Index(); idx != 1 {
		t.Errorf("new id at index %d, want 1", idx)
	}
}

func TestClearAndXSIType(t *testing.T) {
	doc := mustDoc(t, `<root xmlns="urn:hl7-org:v3"><value value="true"/></root>`)
	x := MustCompile("hl7:value/@value")
	e := x.Select(doc.Root())[0]

	x.Clear(e)
	e.CreateAttr("nullFlavor", "NI")
	SetXSIType(e, "BL")

	want := `<root xmlns="urn:hl7-org:v3" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><value nullFlavor="NI" xsi:type="BL"/></root>`
	if got := serialize(t, doc); got != want {
		t.Errorf("document = %s\nwant %s", got, want)
	}
	if _, ok := x.Value(doc.Root()); ok {
		t.Errorf("Value() found a cleared attribute")
	}
}

// Ensuring any set of observation codes twice leaves the document unchanged
// on the second pass.
func TestEnsure_IdempotentProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("second ensure pass is a no-op", prop.ForAll(
		func(codes []int) bool {
			doc := etree.NewDocument()
			if err := doc.ReadFromString(`<root xmlns="urn:hl7-org:v3"><subjectOf2><other/></subjectOf2></root>`); err != nil {
				return false
			}
			pass := func() {
				for _, c := range codes {
					x := MustCompile(fmt.Sprintf("hl7:subjectOf2/hl7:observation[hl7:code/@code='%d']/hl7:value/@value", c))
					e, err := x.Ensure(doc.Root())
					if err != nil {
						panic(err)
					}
					x.Set(e, fmt.Sprint(c))
				}
			}
			pass()
			first, _ := doc.WriteToString()
			pass()
			second, _ := doc.WriteToString()
			if first != second {
				return false
			}
			for _, c := range codes {
				x := MustCompile(fmt.Sprintf("hl7:subjectOf2/hl7:observation[hl7:code/@code='%d']/hl7:value/@value", c))
				if v, ok := x.Value(doc.Root()); !ok || v != fmt.Sprint(c) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1, 40)),
	))

	properties.TestingRun(t)
}
