package ssa

import (
	"bx/cfg"
	"bx/tac"
)

// dseExempt reports whether op must never be dropped as a dead store
// even when its result is unused, because it carries a side effect:
// div/mod trap on overflow and divide-by-zero, and call may itself be
// observable.
func dseExempt(op tac.Opcode) bool {
	return op == tac.Div || op == tac.Mod || op == tac.Call
}

// DSE drops every instruction whose temporary destination is not in its
// own liveout, repeating until no change. It reports whether anything changed.
func DSE(g *cfg.Graph) bool {
	changed := false
	for {
		live := ComputeLiveness(g)
		passChanged := false
		for _, label := range g.Order {
			blk := g.Blocks[label]
			outs := PerInstructionLiveOut(blk, live.Out[label])
			var kept []tac.Instruction
			for i, in := range blk.Instrs {
				if in.Dest != nil && in.Dest.IsTemporary() && !dseExempt(in.Op) {
					if !outs[i][*in.Dest] {
						passChanged = true
						continue
					}
				}
				kept = append(kept, in)
			}
			blk.Instrs = kept
		}
		if !passChanged {
			break
		}
		changed = true
	}
	return changed
}
