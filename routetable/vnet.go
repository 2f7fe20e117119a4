package routetable

import "github.com/eida/routingcore/stream"

// VNetMember is one (Stream, TimeWindow) pair registered under a virtual
// network code. Each Pattern component, N included, is either the literal
// "*" or a wildcard-free code; ingest does not force N to be "*".
type VNetMember struct {
	Pattern stream.Stream
	TW      stream.TimeWindow
}

// VirtualNetworkTable maps a virtual-network code to its ordered member
// list (spec.md §3).
type VirtualNetworkTable map[string][]VNetMember

func NewVirtualNetworkTable() VirtualNetworkTable { return make(VirtualNetworkTable) }

// Add registers a member under code. Callers (ingest) are responsible for
// enforcing the "*"-only wildcard rule and for skipping an empty code before
// calling Add (spec.md §4.1).
func (t VirtualNetworkTable) Add(code string, m VNetMember) {
	t[code] = append(t[code], m)
}

// IsVirtual reports whether code names a registered virtual network.
func (t VirtualNetworkTable) IsVirtual(code string) bool {
	_, ok := t[code]
	return ok
}
