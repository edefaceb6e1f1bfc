package discovery

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"qte/internal/domain"
)

// Identifiers of the recognized declaration shapes
const (
	ModuleCallee = "module"
	TestCallee   = "test"
	AssertObject = "assert"
)

// Indexer extracts the module/test/assertion topology of a JavaScript test file.
// Only module(<string>, <fn>) at the top level, test(<string>, <fn>) directly in a
// module body and assert.X(...) / assert.X(...).Y(...) statements directly in a
// test body are recognized. Anything else is left out of the result.
type Indexer struct {
	lang *sitter.Language
}

// NewIndexer creates a new Indexer
func NewIndexer() *Indexer {
	return &Indexer{lang: javascript.GetLanguage()}
}

// Index parses source and returns its modules in source order. It never fails:
// unparseable or unrecognized code yields fewer (or no) declarations.
func (ix *Indexer) Index(file string, source []byte) []domain.ModuleDeclaration {
	if len(source) == 0 {
		return nil
	}

	// Parsers are not safe for concurrent use, so each call gets its own
	parser := sitter.NewParser()
	parser.SetLanguage(ix.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	var modules []domain.ModuleDeclaration

	for i := 0; i < int(root.NamedChildCount()); i++ {
		call, name, body, ok := declaration(root.NamedChild(i), ModuleCallee, source)
		if !ok {
			continue
		}
		modules = append(modules, domain.ModuleDeclaration{
			Name:  name,
			Range: nodeRange(file, call),
			Tests: ix.tests(file, body, source),
		})
	}

	return modules
}

func (ix *Indexer) tests(file string, body *sitter.Node, source []byte) []domain.TestDeclaration {
	var tests []domain.TestDeclaration
	for i := 0; i < int(body.NamedChildCount()); i++ {
		call, name, testBody, ok := declaration(body.NamedChild(i), TestCallee, source)
		if !ok {
			continue
		}
		tests = append(tests, domain.TestDeclaration{
			Name:       name,
			Range:      nodeRange(file, call),
			Assertions: assertions(file, testBody, source),
		})
	}
	return tests
}

func assertions(file string, body *sitter.Node, source []byte) []domain.SourceRange {
	var ranges []domain.SourceRange
	for i := 0; i < int(body.NamedChildCount()); i++ {
		call := statementCall(body.NamedChild(i))
		if call == nil {
			continue
		}
		if anchor := assertAnchor(call, source); anchor != nil {
			ranges = append(ranges, nodeRange(file, anchor))
		}
	}
	return ranges
}

// declaration matches `callee(<string>, <function>)` as an expression statement
// and returns the call node, the name argument and the function's statement block.
func declaration(stmt *sitter.Node, callee string, source []byte) (call *sitter.Node, name string, body *sitter.Node, ok bool) {
	call = statementCall(stmt)
	if call == nil {
		return nil, "", nil, false
	}

	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" || nodeText(fn, source) != callee {
		return nil, "", nil, false
	}

	args := arguments(call)
	if len(args) < 2 {
		return nil, "", nil, false
	}

	name, ok = stringValue(args[0], source)
	if !ok {
		return nil, "", nil, false
	}

	body = functionBody(args[1])
	if body == nil {
		return nil, "", nil, false
	}

	return call, name, body, true
}

// statementCall returns the call expression of an expression statement, or nil
func statementCall(stmt *sitter.Node) *sitter.Node {
	if stmt == nil || stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return nil
	}
	expr := stmt.NamedChild(0)
	if expr.Type() != "call_expression" {
		return nil
	}
	return expr
}

// assertAnchor returns the `assert` identifier rooting assert.X(...) or
// assert.X(...).Y(...). Anchoring on the identifier keeps the range stable
// when calls are chained.
func assertAnchor(call *sitter.Node, source []byte) *sitter.Node {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return nil
	}

	obj := fn.ChildByFieldName("object")
	if obj == nil {
		return nil
	}

	switch obj.Type() {
	case "identifier":
		if nodeText(obj, source) == AssertObject {
			return obj
		}
	case "call_expression":
		inner := obj.ChildByFieldName("function")
		if inner == nil || inner.Type() != "member_expression" {
			return nil
		}
		root := inner.ChildByFieldName("object")
		if root != nil && root.Type() == "identifier" && nodeText(root, source) == AssertObject {
			return root
		}
	}
	return nil
}

func arguments(call *sitter.Node) []*sitter.Node {
	argList := call.ChildByFieldName("arguments")
	if argList == nil {
		return nil
	}
	var args []*sitter.Node
	for i := 0; i < int(argList.NamedChildCount()); i++ {
		arg := argList.NamedChild(i)
		if arg.Type() == "comment" {
			continue
		}
		args = append(args, arg)
	}
	return args
}

// functionBody returns the statement block of a function literal.
// Older grammar versions name function expressions "function".
func functionBody(node *sitter.Node) *sitter.Node {
	switch node.Type() {
	case "function", "function_expression", "arrow_function":
	default:
		return nil
	}
	body := node.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return nil
	}
	return body
}

// stringValue returns the contents of a string literal or a template literal
// without substitutions.
func stringValue(node *sitter.Node, source []byte) (string, bool) {
	switch node.Type() {
	case "string":
	case "template_string":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}

	text := nodeText(node, source)
	if len(text) < 2 {
		return "", false
	}
	return unescape(text[1 : len(text)-1]), true
}

var escapes = strings.NewReplacer(`\'`, `'`, `\"`, `"`, "\\`", "`", `\\`, `\`)

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapes.Replace(s)
}

func nodeRange(file string, node *sitter.Node) domain.SourceRange {
	start, end := node.StartPoint(), node.EndPoint()
	return domain.SourceRange{
		File:        file,
		StartLine:   int(start.Row),
		StartColumn: int(start.Column),
		EndLine:     int(end.Row),
		EndColumn:   int(end.Column),
	}
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
