package model

// SourceMapping links a model element to its byte range and the 1-based lines it covers.
type SourceMapping struct {
	Start  int   `json:"start"`
	Length int   `json:"length"`
	Lines  []int `json:"lines"`
}

// FirstLine returns the first covered line, or 0 when the mapping has no line data.
func (s *SourceMapping) FirstLine() int {
	if s == nil || len(s.Lines) == 0 {
		return 0
	}
	return s.Lines[0]
}

func (s *SourceMapping) Resolvable() bool { return s != nil && len(s.Lines) > 0 }

// ContractModel is the compiled view of one source file. Detectors treat it as read-only.
type ContractModel struct {
	File      string      `json:"file"`
	Contracts []*Contract `json:"contracts"`
}

// Contract returns the contract with exactly the given name.
func (m *ContractModel) Contract(name string) (*Contract, bool) {
	if m == nil {
		return nil, false
	}
	for _, c := range m.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

type Contract struct {
	Name           string           `json:"name"`
	Kind           string           `json:"kind"` // contract|interface|library|abstract
	Source         *SourceMapping   `json:"source,omitempty"`
	Functions      []*Function      `json:"functions"`
	StateVariables []*StateVariable `json:"stateVariables"`
}

type Function struct {
	Name          string          `json:"name"`
	Contract      string          `json:"contract"`
	Visibility    string          `json:"visibility"`
	Mutability    string          `json:"mutability"`
	Modifiers     []string        `json:"modifiers"`
	Parameters    []string        `json:"parameters"`
	Source        *SourceMapping  `json:"source,omitempty"`
	Body          string          `json:"body"`
	BodyLine      int             `json:"bodyLine"`
	HasLoop       bool            `json:"hasLoop"`
	ExternalCalls []*ExternalCall `json:"externalCalls"`
	StateWrites   []*StateWrite   `json:"stateWrites"`
}

// Entry reports whether the function can be invoked from outside the contract.
func (f *Function) Entry() bool {
	return f.Visibility == "public" || f.Visibility == "external"
}

func (f *Function) ReadOnly() bool {
	return f.Mutability == "view" || f.Mutability == "pure"
}

func (f *Function) Payable() bool { return f.Mutability == "payable" }

func (f *Function) Constructor() bool {
	return f.Name == "constructor" || f.Name == ""
}

// ExternalCall is a member call on an address or contract-typed expression.
type ExternalCall struct {
	Expression string         `json:"expression"`
	Member     string         `json:"member"`
	Target     string         `json:"target"`
	Args       []string       `json:"args"`
	Value      bool           `json:"value"`
	ReturnUsed bool           `json:"returnUsed"`
	InLoop     bool           `json:"inLoop"`
	Source     *SourceMapping `json:"source,omitempty"`
}

func (c *ExternalCall) String() string { return c.Expression }

// LowLevel reports call/delegatecall/staticcall.
func (c *ExternalCall) LowLevel() bool {
	switch c.Member {
	case "call", "delegatecall", "staticcall":
		return true
	}
	return false
}

// SendsValue reports whether the call moves native value.
func (c *ExternalCall) SendsValue() bool {
	if c.Value {
		return true
	}
	return (c.Member == "transfer" || c.Member == "send") && len(c.Args) == 1
}

type StateWrite struct {
	Variable string         `json:"variable"`
	Source   *SourceMapping `json:"source,omitempty"`
}

type StateVariable struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Visibility  string         `json:"visibility"`
	Constant    bool           `json:"constant"`
	Initialized bool           `json:"initialized"`
	Source      *SourceMapping `json:"source,omitempty"`
}

// RawResult is one detector hit before normalization.
type RawResult struct {
	Check       string    `json:"check"`
	Description string    `json:"description"`
	Elements    []Element `json:"elements"`
}

// Element is a source element implicated by a RawResult. Source is nil when the
// element carries no source mapping.
type Element struct {
	Name   string         `json:"name"`
	Kind   string         `json:"type"`
	Source *SourceMapping `json:"source_mapping,omitempty"`
}
