package solidity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
	"github.com/ContractForgeEVM/contractforge/internal/util"
)

// SyntaxError is a structural problem found by the heuristic parser.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg) }

var (
	reContract = regexp.MustCompile(`^\s*(abstract\s+contract|contract|interface|library)\s+(\w+)(?:\s+is\s+([^{]+))?\s*$`)
	reFunction = regexp.MustCompile(`(?s)^\s*(function\s+(\w+)|constructor|receive|fallback)\s*\((.*?)\)(.*)$`)
	reStateVar = regexp.MustCompile(`(?s)^\s*(mapping\s*\(.*\)|[\w.]+(?:\s+payable)?(?:\s*\[[^\]]*\])*)\s+((?:(?:public|private|internal|constant|immutable|override|transient)\s+)*)(\w+)\s*(=.*)?$`)
	reReturns  = regexp.MustCompile(`(?s)\breturns\s*\(.*\)`)
	reOverride = regexp.MustCompile(`\boverride\s*\([^)]*\)`)
	reCall     = regexp.MustCompile(`((?:\w+)\s*\([^()]*\)|[A-Za-z_][\w.\[\]]*)\.(call|delegatecall|staticcall|transfer|transferFrom|send)\s*(\{[^}]*\})?\s*\(`)
	reLoop     = regexp.MustCompile(`\b(for|while)\s*\(|\bdo\s*\{`)
)

var nonVarKeywords = []string{"function", "modifier", "event", "error", "using", "struct", "enum", "constructor", "receive", "fallback", "pragma", "import", "type"}

// ParseSource builds a contract model from Solidity text without a compiler. Only
// brace structure is validated; anything else it does not recognise is ignored.
func ParseSource(file, content string) (*model.ContractModel, error) {
	clean, masked := scrub(content)
	if err := balanced(masked); err != nil {
		return nil, err
	}
	p := &heuristic{clean: clean, masked: masked, byName: map[string]*parsedContract{}}
	p.units()
	return &model.ContractModel{File: file, Contracts: p.link()}, nil
}

type parsedContract struct {
	contract *model.Contract
	bases    []string
}

type heuristic struct {
	clean, masked string
	order         []*parsedContract
	byName        map[string]*parsedContract
}

// units walks top-level declarations and parses each contract block.
func (p *heuristic) units() {
	forEachDecl(p.masked, 0, len(p.masked), func(start, open, end int) {
		if open < 0 {
			return
		}
		m := reContract.FindStringSubmatch(p.masked[start:open])
		if m == nil {
			return
		}
		kind := strings.Fields(m[1])[0]
		if strings.HasPrefix(m[1], "abstract") {
			kind = "abstract"
		}
		c := &model.Contract{
			Name:   m[2],
			Kind:   kind,
			Source: p.span(start, end-start+1),
		}
		pc := &parsedContract{contract: c}
		for _, b := range strings.Split(m[3], ",") {
			b = strings.TrimSpace(b)
			if i := strings.IndexAny(b, " ("); i >= 0 {
				b = b[:i]
			}
			if b != "" {
				pc.bases = append(pc.bases, b)
			}
		}
		p.members(c, open+1, end)
		p.order = append(p.order, pc)
		p.byName[c.Name] = pc
	})
}

func (p *heuristic) members(c *model.Contract, from, to int) {
	var bodies []*model.Function
	forEachDecl(p.masked, from, to, func(start, open, end int) {
		headerEnd := end
		if open >= 0 {
			headerEnd = open
		}
		header := p.masked[start:headerEnd]
		trimmed := strings.TrimSpace(header)
		if fm := reFunction.FindStringSubmatch(header); fm != nil {
			fn := p.function(c.Name, fm, start, open, end)
			c.Functions = append(c.Functions, fn)
			bodies = append(bodies, fn)
			return
		}
		if open >= 0 || hasKeyword(trimmed) {
			return
		}
		if v := p.stateVar(header, start); v != nil {
			c.StateVariables = append(c.StateVariables, v)
		}
	})
	for _, fn := range bodies {
		p.writes(fn, c.StateVariables)
	}
}

func (p *heuristic) function(contract string, fm []string, start, open, end int) *model.Function {
	name := fm[2]
	if name == "" {
		name = strings.TrimSpace(fm[1])
	}
	fn := &model.Function{Name: name, Contract: contract, Visibility: "public"}
	if name == "receive" || name == "fallback" {
		fn.Visibility = "external"
	}
	for _, param := range splitTop(fm[3]) {
		toks := strings.Fields(param)
		if len(toks) >= 2 && isIdentifier(toks[len(toks)-1]) {
			fn.Parameters = append(fn.Parameters, toks[len(toks)-1])
		}
	}
	tail := reReturns.ReplaceAllString(fm[4], "")
	tail = reOverride.ReplaceAllString(tail, "")
	for _, tok := range strings.Fields(tail) {
		if i := strings.Index(tok, "("); i >= 0 {
			tok = tok[:i]
		}
		switch tok {
		case "public", "external", "internal", "private":
			fn.Visibility = tok
		case "view", "pure", "payable", "nonpayable":
			fn.Mutability = tok
		case "virtual", "override", "":
		default:
			if isIdentifier(tok) {
				fn.Modifiers = append(fn.Modifiers, tok)
			}
		}
	}
	if fn.Mutability == "" {
		fn.Mutability = "nonpayable"
	}
	lead := start + len(p.masked[start:]) - len(strings.TrimLeft(p.masked[start:], " \t\r\n"))
	fn.Source = p.span(lead, end-lead+1)
	if open < 0 {
		return fn
	}
	fn.Body = p.clean[open : end+1]
	fn.BodyLine = util.LineAt(p.clean, open)
	loops := p.loops(open, end)
	fn.HasLoop = len(loops) > 0
	p.calls(fn, open, end, loops)
	return fn
}

func (p *heuristic) stateVar(header string, start int) *model.StateVariable {
	m := reStateVar.FindStringSubmatch(header)
	if m == nil {
		return nil
	}
	attrs := strings.Fields(m[2])
	v := &model.StateVariable{
		Name:        m[3],
		Type:        strings.Join(strings.Fields(m[1]), " "),
		Visibility:  "internal",
		Initialized: m[4] != "",
	}
	for _, a := range attrs {
		switch a {
		case "public", "private", "internal":
			v.Visibility = a
		case "constant", "immutable":
			v.Constant = true
		}
	}
	lead := start + len(header) - len(strings.TrimLeft(header, " \t\r\n"))
	v.Source = p.span(lead, len(strings.TrimSpace(header))+1)
	return v
}

func (p *heuristic) loops(open, end int) [][2]int {
	var out [][2]int
	for _, loc := range reLoop.FindAllStringIndex(p.masked[open:end+1], -1) {
		at := open + loc[0]
		brace := strings.IndexByte(p.masked[at:end+1], '{')
		if brace < 0 {
			continue
		}
		close := matching(p.masked, at+brace)
		if close < 0 || close > end {
			close = end
		}
		out = append(out, [2]int{at, close})
	}
	return out
}

func (p *heuristic) calls(fn *model.Function, open, end int, loops [][2]int) {
	body := p.masked[open : end+1]
	for _, loc := range reCall.FindAllStringSubmatchIndex(body, -1) {
		at := open + loc[0]
		target := strings.TrimSpace(p.clean[open+loc[2] : open+loc[3]])
		if target == "super" || target == "this" {
			continue
		}
		paren := open + loc[1] - 1
		close := matching(p.masked, paren)
		if close < 0 {
			continue
		}
		options := ""
		if loc[6] >= 0 {
			options = p.clean[open+loc[6] : open+loc[7]]
		}
		call := &model.ExternalCall{
			Expression: p.clean[at : close+1],
			Member:     p.clean[open+loc[4] : open+loc[5]],
			Target:     target,
			Args:       splitTop(p.clean[paren+1 : close]),
			Value:      strings.Contains(options, "value"),
			ReturnUsed: resultUsed(p.masked, open, at),
			Source:     p.span(at, close-at+1),
		}
		for _, l := range loops {
			if at > l[0] && at < l[1] {
				call.InLoop = true
			}
		}
		fn.ExternalCalls = append(fn.ExternalCalls, call)
	}
}

// writes records assignments, increments and deletes of the contract's state variables.
func (p *heuristic) writes(fn *model.Function, vars []*model.StateVariable) {
	if fn.Body == "" {
		return
	}
	open := fn.Source.Start + strings.Index(p.masked[fn.Source.Start:], "{")
	body := p.masked[open : open+len(fn.Body)]
	type hit struct {
		at   int
		name string
	}
	var hits []hit
	for _, v := range vars {
		if v.Constant {
			continue
		}
		for i := 0; ; {
			j := strings.Index(body[i:], v.Name)
			if j < 0 {
				break
			}
			at := i + j
			i = at + len(v.Name)
			if (at > 0 && isIdentByte(body[at-1])) || (i < len(body) && isIdentByte(body[i])) {
				continue
			}
			if (at > 0 && body[at-1] == '.') || !assigned(body, at, i) {
				continue
			}
			hits = append(hits, hit{at: at, name: v.Name})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].at < hits[j].at })
	for _, h := range hits {
		fn.StateWrites = append(fn.StateWrites, &model.StateWrite{Variable: h.name, Source: p.span(open+h.at, len(h.name))})
	}
}

func (p *heuristic) span(off, length int) *model.SourceMapping {
	return &model.SourceMapping{Start: off, Length: length, Lines: util.LinesSpanned(p.clean, off, length)}
}

// link prepends members inherited from contracts declared in the same file.
func (p *heuristic) link() []*model.Contract {
	type members struct {
		fns  []*model.Function
		vars []*model.StateVariable
	}
	own := map[string]members{}
	for _, pc := range p.order {
		own[pc.contract.Name] = members{fns: pc.contract.Functions, vars: pc.contract.StateVariables}
	}
	out := make([]*model.Contract, 0, len(p.order))
	for _, pc := range p.order {
		var lin []string
		seen := map[string]bool{pc.contract.Name: true}
		var visit func(names []string)
		visit = func(names []string) {
			for _, n := range names {
				base, ok := p.byName[n]
				if !ok || seen[n] {
					continue
				}
				seen[n] = true
				visit(base.bases)
				lin = append(lin, n)
			}
		}
		visit(pc.bases)
		seenFn := map[string]bool{}
		for _, f := range own[pc.contract.Name].fns {
			seenFn[f.Name] = true
		}
		var fns []*model.Function
		var vars []*model.StateVariable
		for _, n := range lin {
			vars = append(vars, own[n].vars...)
			for _, f := range own[n].fns {
				if !seenFn[f.Name] {
					seenFn[f.Name] = true
					fns = append(fns, f)
				}
			}
		}
		pc.contract.StateVariables = append(vars, own[pc.contract.Name].vars...)
		pc.contract.Functions = append(fns, own[pc.contract.Name].fns...)
		out = append(out, pc.contract)
	}
	return out
}

// forEachDecl splits [from,to) into declarations at brace depth zero. Each declaration
// is either terminated by ';' (open = -1, end at the ';') or is a block (open at '{',
// end at the matching '}').
func forEachDecl(s string, from, to int, visit func(start, open, end int)) {
	start := from
	for i := from; i < to; i++ {
		switch s[i] {
		case ';':
			visit(start, -1, i)
			start = i + 1
		case '{':
			close := matching(s, i)
			if close < 0 || close >= to {
				return
			}
			visit(start, i, close)
			i = close
			start = close + 1
		}
	}
}

// matching returns the index of the '}' or ')' closing the bracket at open.
func matching(s string, open int) int {
	var oc, cc byte
	switch s[open] {
	case '{':
		oc, cc = '{', '}'
	case '(':
		oc, cc = '(', ')'
	default:
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case oc:
			depth++
		case cc:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func balanced(masked string) error {
	depth := 0
	last := 0
	for i := 0; i < len(masked); i++ {
		switch masked[i] {
		case '{':
			depth++
			last = i
		case '}':
			depth--
			if depth < 0 {
				line := util.LineAt(masked, i)
				return &SyntaxError{Line: line, Col: column(masked, i), Msg: "Expected pragma, import directive or contract/interface/library/struct/enum/constant/function/error definition."}
			}
		}
	}
	if depth > 0 {
		end := len(masked) - 1
		if end < last {
			end = last
		}
		return &SyntaxError{Line: util.LineAt(masked, end), Col: column(masked, end), Msg: "Expected '}' but end of file reached."}
	}
	return nil
}

func column(s string, off int) int {
	nl := strings.LastIndexByte(s[:off], '\n')
	return off - nl
}

// scrub returns the source with comments blanked (clean) and additionally with
// string literal contents blanked (masked). Both keep every byte offset and newline.
func scrub(src string) (clean, masked string) {
	c := []byte(src)
	m := []byte(src)
	for i := 0; i < len(src); i++ {
		switch {
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '/':
			for ; i < len(src) && src[i] != '\n'; i++ {
				c[i], m[i] = ' ', ' '
			}
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '*':
			for ; i < len(src); i++ {
				if src[i] == '*' && i+1 < len(src) && src[i+1] == '/' {
					c[i], m[i], c[i+1], m[i+1] = ' ', ' ', ' ', ' '
					i++
					break
				}
				if src[i] != '\n' {
					c[i], m[i] = ' ', ' '
				}
			}
		case src[i] == '"' || src[i] == '\'':
			q := src[i]
			for i++; i < len(src) && src[i] != q && src[i] != '\n'; i++ {
				if src[i] == '\\' && i+1 < len(src) {
					m[i] = '_'
					i++
				}
				m[i] = '_'
			}
		}
	}
	return string(c), string(m)
}

// resultUsed reports whether the statement holding a call consumes its value.
func resultUsed(masked string, bodyOpen, at int) bool {
	i := at - 1
	for ; i > bodyOpen; i-- {
		if ch := masked[i]; ch == ';' || ch == '{' || ch == '}' {
			break
		}
	}
	prefix := strings.TrimSpace(masked[i+1 : at])
	prefix = strings.TrimSpace(strings.TrimPrefix(prefix, "else"))
	for _, kw := range []string{"if", "while", "for"} {
		if !strings.HasPrefix(prefix, kw) {
			continue
		}
		// a brace-less branch body
		if open := strings.IndexByte(prefix, '('); open >= 0 && matching(prefix, open) == len(prefix)-1 {
			return false
		}
	}
	return prefix != ""
}

// assigned reports an assignment, increment or delete around body[at:end] naming a variable.
func assigned(body string, at, end int) bool {
	before := strings.TrimRight(body[:at], " \t")
	if strings.HasSuffix(before, "delete") || strings.HasSuffix(before, "++") || strings.HasSuffix(before, "--") {
		return true
	}
	i := end
	for {
		for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
		if i < len(body) && body[i] == '[' {
			depth := 0
			for ; i < len(body); i++ {
				if body[i] == '[' {
					depth++
				} else if body[i] == ']' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
			}
			continue
		}
		if i < len(body) && body[i] == '.' {
			i++
			for i < len(body) && isIdentByte(body[i]) {
				i++
			}
			continue
		}
		break
	}
	rest := body[i:]
	switch {
	case strings.HasPrefix(rest, "=="), strings.HasPrefix(rest, "=>"):
		return false
	case strings.HasPrefix(rest, "="), strings.HasPrefix(rest, "++"), strings.HasPrefix(rest, "--"):
		return true
	}
	for _, op := range []string{"+=", "-=", "*=", "/=", "%=", "|=", "&=", "^=", "<<=", ">>="} {
		if strings.HasPrefix(rest, op) {
			return true
		}
	}
	return false
}

// splitTop splits a comma-separated list ignoring commas nested in brackets.
func splitTop(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				if p := strings.TrimSpace(s[start:i]); p != "" {
					out = append(out, p)
				}
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(s[start:]); p != "" {
		out = append(out, p)
	}
	return out
}

func hasKeyword(stmt string) bool {
	for _, k := range nonVarKeywords {
		if stmt == k || strings.HasPrefix(stmt, k+" ") || strings.HasPrefix(stmt, k+"(") || strings.HasPrefix(stmt, k+"\n") {
			return true
		}
	}
	return false
}

func isIdentByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}

func isIdentifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}
