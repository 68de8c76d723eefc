package plugins

import (
	"strings"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

var guardModifiers = []string{"onlyowner", "onlyadmin", "onlyrole", "onlygovernance", "auth", "whennotpaused", "onlyminter"}

func functionElement(fn *model.Function) model.Element {
	return model.Element{Name: fn.Name, Kind: "function", Source: fn.Source}
}

func callElement(c *model.ExternalCall) model.Element {
	return model.Element{Name: c.Expression, Kind: "node", Source: c.Source}
}

func variableElement(v *model.StateVariable) model.Element {
	return model.Element{Name: v.Name, Kind: "variable", Source: v.Source}
}

func lineElement(name string, line int) model.Element {
	return model.Element{Name: name, Kind: "node", Source: &model.SourceMapping{Lines: []int{line}}}
}

// each visits every function of every contract in declaration order.
func each(m *model.ContractModel, visit func(c *model.Contract, fn *model.Function)) {
	if m == nil {
		return
	}
	for _, c := range m.Contracts {
		for _, fn := range c.Functions {
			visit(c, fn)
		}
	}
}

// guarded reports an access modifier or a msg.sender check in the body.
func guarded(fn *model.Function) bool {
	for _, mod := range fn.Modifiers {
		low := strings.ToLower(mod)
		for _, g := range guardModifiers {
			if strings.HasPrefix(low, g) {
				return true
			}
		}
	}
	body := strings.ToLower(fn.Body)
	return (strings.Contains(body, "require(") || strings.Contains(body, "if (") || strings.Contains(body, "if(")) &&
		(strings.Contains(body, "msg.sender ==") || strings.Contains(body, "== msg.sender") || strings.Contains(body, "hasrole("))
}

// userControlled reports whether expr references a parameter or caller-supplied data.
func userControlled(expr string, fn *model.Function) bool {
	if strings.Contains(expr, "msg.data") {
		return true
	}
	for _, p := range fn.Parameters {
		if containsIdent(expr, p) {
			return true
		}
	}
	return false
}

// bodyLine is one line of a function body with its absolute line number.
type bodyLine struct {
	n    int
	text string
}

func bodyLines(fn *model.Function) []bodyLine {
	if fn.Body == "" {
		return nil
	}
	parts := strings.Split(fn.Body, "\n")
	out := make([]bodyLine, 0, len(parts))
	for i, p := range parts {
		out = append(out, bodyLine{n: fn.BodyLine + i, text: p})
	}
	return out
}

func containsIdent(s, ident string) bool {
	if ident == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(s[i:], ident)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(ident)
		if (start == 0 || !isIdentByte(s[start-1])) && (end == len(s) || !isIdentByte(s[end])) {
			return true
		}
		i = end
	}
}

func isIdentByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}
