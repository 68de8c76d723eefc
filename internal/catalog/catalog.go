// Package catalog holds the ordered list of detectors a run attempts and the
// severity tier of each.
package catalog

import "github.com/ContractForgeEVM/contractforge/internal/model"

// source is the detector list as maintained; it repeats some token-standard ids.
var source = []string{
	"reentrancy-eth",
	"reentrancy-no-eth",
	"reentrancy-benign",
	"reentrancy-events",
	"controlled-delegatecall",
	"arbitrary-send-eth",
	"arbitrary-send-erc20",
	"unchecked-transfer",
	"unchecked-lowlevel",
	"unchecked-send",
	"unchecked-call",
	"tx-origin",
	"weak-prng",
	"suicidal",
	"delegatecall-loop",
	"state-variable-assignment",
	"state-variable-constant",
	"uninitialized-state",
	"uninitialized-storage",
	"unused-return",
	"incorrect-equality",
	"incorrect-modifier",
	"incorrect-shift",
	"incorrect-unary",
	"incorrect-erc20",
	"incorrect-erc721",
	"incorrect-erc777",
	"incorrect-erc165",
	"incorrect-erc1820",
	"incorrect-erc2612",
	"incorrect-erc4626",
	"incorrect-erc1155",
	"incorrect-erc1167",
	"incorrect-erc1271",
	"incorrect-erc1363",
	"incorrect-erc1400",
	"incorrect-erc1404",
	"incorrect-erc1410",
	"incorrect-erc1594",
	"incorrect-erc1643",
	"incorrect-erc1644",
	"incorrect-erc1646",
	"incorrect-erc777",
	"incorrect-erc820",
	"incorrect-erc831",
	"incorrect-erc884",
	"incorrect-erc900",
	"incorrect-erc948",
	"incorrect-erc998",
	"incorrect-erc1155",
	"incorrect-erc1167",
	"incorrect-erc1271",
	"incorrect-erc1363",
	"incorrect-erc1400",
	"incorrect-erc1404",
	"incorrect-erc1410",
	"incorrect-erc1594",
	"incorrect-erc1643",
	"incorrect-erc1644",
	"incorrect-erc1646",
	"incorrect-erc777",
	"incorrect-erc820",
	"incorrect-erc831",
	"incorrect-erc884",
	"incorrect-erc900",
	"incorrect-erc948",
	"incorrect-erc998",
}

var tiers = map[string]model.Severity{
	"reentrancy-eth":          model.SeverityCritical,
	"controlled-delegatecall": model.SeverityCritical,
	"arbitrary-send-eth":      model.SeverityCritical,
	"reentrancy-no-eth":       model.SeverityHigh,
	"unchecked-transfer":      model.SeverityHigh,
	"tx-origin":               model.SeverityHigh,
}

type Entry struct {
	ID       string         `json:"id" yaml:"id"`
	Severity model.Severity `json:"severity" yaml:"severity"`
}

// Catalog is immutable after construction.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// Default is the catalog every analysis runs.
var Default = New(source)

// New builds a catalog from ids, keeping the first occurrence of each.
func New(ids []string) *Catalog {
	c := &Catalog{index: make(map[string]int, len(ids))}
	for _, id := range ids {
		if _, dup := c.index[id]; dup {
			continue
		}
		c.index[id] = len(c.entries)
		c.entries = append(c.entries, Entry{ID: id, Severity: Tier(id)})
	}
	return c
}

// Tier returns the static severity for a detector id; MEDIUM by default.
func Tier(id string) model.Severity {
	if s, ok := tiers[id]; ok {
		return s
	}
	return model.SeverityMedium
}

func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) IDs() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.ID
	}
	return out
}

func (c *Catalog) Len() int { return len(c.entries) }

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}
