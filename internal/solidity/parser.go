package solidity

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/util"
)

// CombinedJSON is the subset of `solc --combined-json ast` output the converter reads.
type CombinedJSON struct {
	Sources map[string]struct {
		AST ASTCompact `json:"AST"`
	} `json:"sources"`
	Version string `json:"version"`
}

// ASTCompact represents a source unit of solc compact AST output.
type ASTCompact struct {
	AbsolutePath    string           `json:"absolutePath"`
	ExportedSymbols map[string][]int `json:"exportedSymbols"`
	Nodes           []map[string]any `json:"nodes"`
}

// Reader loads the text of a source unit by the path solc reported.
type Reader func(path string) ([]byte, error)

// FromCombinedJSON converts solc output into a contract model. Source units whose
// text cannot be read still yield contracts, without line data.
func FromCombinedJSON(file string, raw []byte, read Reader) (*model.ContractModel, error) {
	var out CombinedJSON
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode solc output: %w", err)
	}
	paths := make([]string, 0, len(out.Sources))
	for p := range out.Sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	b := &builder{byID: map[int]*contractDef{}}
	for _, p := range paths {
		content := ""
		if read != nil {
			if data, err := read(p); err == nil {
				content = string(data)
			}
		}
		b.unit(out.Sources[p].AST, content)
	}
	return &model.ContractModel{File: file, Contracts: b.link()}, nil
}

type contractDef struct {
	contract *model.Contract
	bases    []int
}

type builder struct {
	order []*contractDef
	byID  map[int]*contractDef
}

func (b *builder) unit(ast ASTCompact, content string) {
	for _, n := range ast.Nodes {
		if str(n, "nodeType") != "ContractDefinition" {
			continue
		}
		def := b.contract(n, content)
		b.order = append(b.order, def)
		if id, ok := num(n, "id"); ok {
			b.byID[id] = def
		}
	}
}

func (b *builder) contract(n map[string]any, content string) *contractDef {
	kind := str(n, "contractKind")
	if abstract, _ := n["abstract"].(bool); abstract {
		kind = "abstract"
	}
	c := &model.Contract{Name: str(n, "name"), Kind: kind, Source: mapping(content, str(n, "src"))}
	def := &contractDef{contract: c}
	for _, v := range list(n, "linearizedBaseContracts") {
		if id, ok := toInt(v); ok {
			def.bases = append(def.bases, id)
		}
	}
	stateIDs := map[int]string{}
	for _, child := range nodes(n, "nodes") {
		if str(child, "nodeType") != "VariableDeclaration" {
			continue
		}
		if sv, _ := child["stateVariable"].(bool); !sv {
			continue
		}
		mut := str(child, "mutability")
		constant, _ := child["constant"].(bool)
		v := &model.StateVariable{
			Name:        str(child, "name"),
			Type:        typeString(child),
			Visibility:  str(child, "visibility"),
			Constant:    constant || mut == "constant" || mut == "immutable",
			Initialized: child["value"] != nil,
			Source:      mapping(content, str(child, "src")),
		}
		c.StateVariables = append(c.StateVariables, v)
		if id, ok := num(child, "id"); ok {
			stateIDs[id] = v.Name
		}
	}
	for _, child := range nodes(n, "nodes") {
		if str(child, "nodeType") != "FunctionDefinition" {
			continue
		}
		c.Functions = append(c.Functions, function(child, c.Name, content, stateIDs))
	}
	return def
}

// link appends inherited members, most-base first, to each contract.
func (b *builder) link() []*model.Contract {
	type members struct {
		fns  []*model.Function
		vars []*model.StateVariable
	}
	own := make(map[*contractDef]members, len(b.order))
	for _, def := range b.order {
		own[def] = members{fns: def.contract.Functions, vars: def.contract.StateVariables}
	}
	out := make([]*model.Contract, 0, len(b.order))
	for _, def := range b.order {
		c := def.contract
		seenFn := map[string]bool{}
		for _, f := range c.Functions {
			seenFn[f.Name] = true
		}
		var vars []*model.StateVariable
		var fns []*model.Function
		for i := len(def.bases) - 1; i >= 1; i-- {
			base, ok := b.byID[def.bases[i]]
			if !ok {
				continue
			}
			m := own[base]
			vars = append(vars, m.vars...)
			for _, f := range m.fns {
				if seenFn[f.Name] {
					continue
				}
				seenFn[f.Name] = true
				fns = append(fns, f)
			}
		}
		c.StateVariables = append(vars, own[def].vars...)
		c.Functions = append(fns, own[def].fns...)
		out = append(out, c)
	}
	return out
}

func function(n map[string]any, contract, content string, stateIDs map[int]string) *model.Function {
	name := str(n, "name")
	if k := str(n, "kind"); k == "constructor" || k == "fallback" || k == "receive" {
		name = k
	}
	fn := &model.Function{
		Name:       name,
		Contract:   contract,
		Visibility: str(n, "visibility"),
		Mutability: str(n, "stateMutability"),
		Source:     mapping(content, str(n, "src")),
	}
	for _, m := range nodes(n, "modifiers") {
		if mn, ok := m["modifierName"].(map[string]any); ok {
			id := str(mn, "name")
			if id == "" {
				id = str(mn, "namePath")
			}
			fn.Modifiers = append(fn.Modifiers, id)
		}
	}
	if params, ok := n["parameters"].(map[string]any); ok {
		for _, p := range nodes(params, "parameters") {
			if pn := str(p, "name"); pn != "" {
				fn.Parameters = append(fn.Parameters, pn)
			}
		}
	}
	body, ok := n["body"].(map[string]any)
	if !ok {
		return fn
	}
	if start, length, ok := parseSrc(str(body, "src")); ok {
		fn.Body = util.Slice(content, start, length)
		fn.BodyLine = util.LineAt(content, start)
	}
	w := &walker{fn: fn, content: content, stateIDs: stateIDs}
	w.walk(body, nil, 0)
	// map iteration order is random; restore source order
	sort.SliceStable(fn.ExternalCalls, func(i, j int) bool {
		return offset(fn.ExternalCalls[i].Source) < offset(fn.ExternalCalls[j].Source)
	})
	sort.SliceStable(fn.StateWrites, func(i, j int) bool {
		return offset(fn.StateWrites[i].Source) < offset(fn.StateWrites[j].Source)
	})
	return fn
}

func offset(s *model.SourceMapping) int {
	if s == nil {
		return -1
	}
	return s.Start
}

type walker struct {
	fn       *model.Function
	content  string
	stateIDs map[int]string
}

func (w *walker) walk(n map[string]any, parent map[string]any, loops int) {
	switch str(n, "nodeType") {
	case "ForStatement", "WhileStatement", "DoWhileStatement":
		w.fn.HasLoop = true
		loops++
	case "FunctionCall":
		w.call(n, parent, loops > 0)
	case "Assignment":
		w.write(n["leftHandSide"], str(n, "src"))
	case "UnaryOperation":
		switch str(n, "operator") {
		case "++", "--", "delete":
			w.write(n["subExpression"], str(n, "src"))
		}
	}
	for k, v := range n {
		if k == "typeDescriptions" {
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			w.walk(t, n, loops)
		case []any:
			for _, e := range t {
				if child, ok := e.(map[string]any); ok {
					w.walk(child, n, loops)
				}
			}
		}
	}
}

func (w *walker) call(n, parent map[string]any, inLoop bool) {
	expr, _ := n["expression"].(map[string]any)
	value := false
	if str(expr, "nodeType") == "FunctionCallOptions" {
		for _, o := range list(expr, "names") {
			if s, _ := o.(string); s == "value" {
				value = true
			}
		}
		expr, _ = expr["expression"].(map[string]any)
	}
	if str(expr, "nodeType") != "MemberAccess" {
		return
	}
	base, _ := expr["expression"].(map[string]any)
	bt := typeString(base)
	if !strings.HasPrefix(bt, "address") && !strings.HasPrefix(bt, "contract ") {
		return
	}
	call := &model.ExternalCall{
		Expression: w.text(str(n, "src")),
		Member:     str(expr, "memberName"),
		Target:     w.text(str(base, "src")),
		Value:      value,
		ReturnUsed: str(parent, "nodeType") != "ExpressionStatement",
		InLoop:     inLoop,
		Source:     mapping(w.content, str(n, "src")),
	}
	for _, a := range nodes(n, "arguments") {
		call.Args = append(call.Args, w.text(str(a, "src")))
	}
	w.fn.ExternalCalls = append(w.fn.ExternalCalls, call)
}

func (w *walker) write(lhs any, src string) {
	n, _ := lhs.(map[string]any)
	for n != nil {
		switch str(n, "nodeType") {
		case "Identifier":
			if id, ok := num(n, "referencedDeclaration"); ok {
				if name, ok := w.stateIDs[id]; ok {
					w.fn.StateWrites = append(w.fn.StateWrites, &model.StateWrite{Variable: name, Source: mapping(w.content, src)})
				}
			}
			return
		case "IndexAccess":
			n, _ = n["baseExpression"].(map[string]any)
		case "MemberAccess":
			n, _ = n["expression"].(map[string]any)
		case "TupleExpression":
			for _, c := range nodes(n, "components") {
				w.write(c, src)
			}
			return
		default:
			return
		}
	}
}

func (w *walker) text(src string) string {
	start, length, ok := parseSrc(src)
	if !ok {
		return ""
	}
	return util.Slice(w.content, start, length)
}

// parseSrc decodes solc's "start:length:fileIndex" locations.
func parseSrc(src string) (start, length int, ok bool) {
	parts := strings.Split(src, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	s, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || s < 0 {
		return 0, 0, false
	}
	l, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || l < 0 {
		return 0, 0, false
	}
	if start, err = safecast.Conv[int](s); err != nil {
		return 0, 0, false
	}
	if length, err = safecast.Conv[int](l); err != nil {
		return 0, 0, false
	}
	return start, length, true
}

func mapping(content, src string) *model.SourceMapping {
	start, length, ok := parseSrc(src)
	if !ok {
		return nil
	}
	return &model.SourceMapping{Start: start, Length: length, Lines: util.LinesSpanned(content, start, length)}
}

func typeString(n map[string]any) string {
	td, _ := n["typeDescriptions"].(map[string]any)
	return str(td, "typeString")
}

func str(n map[string]any, key string) string {
	if n == nil {
		return ""
	}
	s, _ := n[key].(string)
	return s
}

func num(n map[string]any, key string) (int, bool) {
	if n == nil {
		return 0, false
	}
	return toInt(n[key])
}

func toInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	i, err := safecast.Conv[int](int64(f))
	return i, err == nil
}

func list(n map[string]any, key string) []any {
	if n == nil {
		return nil
	}
	l, _ := n[key].([]any)
	return l
}

func nodes(n map[string]any, key string) []map[string]any {
	var out []map[string]any
	for _, e := range list(n, key) {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
