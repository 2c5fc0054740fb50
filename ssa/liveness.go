package ssa

import (
	"bx/cfg"
	"bx/tac"
)

// Liveness holds, per block, the set of temporaries live on entry and
// on exit, computed with the standard backward fixed-point iteration.
// A phi's operands are attributed to its predecessor's liveout for the
// corresponding edge, not to the block containing the phi.
type Liveness struct {
	In  map[string]map[tac.Operand]bool
	Out map[string]map[tac.Operand]bool
}

func computeUseDef(instrs []tac.Instruction) (use, def map[tac.Operand]bool) {
	use = map[tac.Operand]bool{}
	def = map[tac.Operand]bool{}
	for _, in := range instrs {
		if in.Op == tac.Phi {
			if in.Dest != nil {
				def[*in.Dest] = true
			}
			continue
		}
		for _, a := range in.Args {
			if a.IsTemporary() && !def[a] {
				use[a] = true
			}
		}
		if in.Dest != nil && in.Dest.IsTemporary() {
			def[*in.Dest] = true
		}
	}
	return use, def
}

func phiDests(b *cfg.Block) map[tac.Operand]bool {
	dests := map[tac.Operand]bool{}
	for _, in := range b.Instrs {
		if in.Op != tac.Phi {
			break
		}
		if in.Dest != nil {
			dests[*in.Dest] = true
		}
	}
	return dests
}

func phiEdgeSources(b *cfg.Block, pred string) map[tac.Operand]bool {
	sources := map[tac.Operand]bool{}
	for _, in := range b.Instrs {
		if in.Op != tac.Phi {
			break
		}
		for _, edge := range in.Phi {
			if edge.Pred == pred {
				sources[edge.Source] = true
			}
		}
	}
	return sources
}

func sameSet(a, b map[tac.Operand]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func cloneSet(s map[tac.Operand]bool) map[tac.Operand]bool {
	out := make(map[tac.Operand]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

// ComputeLiveness runs the block-level backward dataflow fixed point
// over g.
func ComputeLiveness(g *cfg.Graph) *Liveness {
	use := map[string]map[tac.Operand]bool{}
	def := map[string]map[tac.Operand]bool{}
	in := map[string]map[tac.Operand]bool{}
	out := map[string]map[tac.Operand]bool{}
	for _, label := range g.Order {
		u, d := computeUseDef(g.Blocks[label].Instrs)
		use[label], def[label] = u, d
		in[label] = map[tac.Operand]bool{}
		out[label] = map[tac.Operand]bool{}
	}

	changed := true
	for changed {
		changed = false
		for _, label := range g.Order {
			newOut := map[tac.Operand]bool{}
			for _, succLabel := range g.Fwd(label) {
				succ := g.Blocks[succLabel]
				excl := phiDests(succ)
				for op := range in[succLabel] {
					if !excl[op] {
						newOut[op] = true
					}
				}
				for op := range phiEdgeSources(succ, label) {
					newOut[op] = true
				}
			}
			if !sameSet(newOut, out[label]) {
				out[label] = newOut
				changed = true
			}
			newIn := map[tac.Operand]bool{}
			for op := range use[label] {
				newIn[op] = true
			}
			for op := range out[label] {
				if !def[label][op] {
					newIn[op] = true
				}
			}
			if !sameSet(newIn, in[label]) {
				in[label] = newIn
				changed = true
			}
		}
	}
	return &Liveness{In: in, Out: out}
}

// PerInstructionLiveOut walks b backward from blockLiveOut, returning
// the liveout set immediately after each instruction.
func PerInstructionLiveOut(b *cfg.Block, blockLiveOut map[tac.Operand]bool) []map[tac.Operand]bool {
	n := len(b.Instrs)
	outs := make([]map[tac.Operand]bool, n)
	cur := cloneSet(blockLiveOut)
	for i := n - 1; i >= 0; i-- {
		outs[i] = cloneSet(cur)
		in := b.Instrs[i]
		if in.Dest != nil && in.Dest.IsTemporary() {
			delete(cur, *in.Dest)
		}
		if in.Op == tac.Phi {
			continue
		}
		for _, a := range in.Args {
			if a.IsTemporary() {
				cur[a] = true
			}
		}
	}
	return outs
}
