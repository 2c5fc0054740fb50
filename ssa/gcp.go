package ssa

import (
	"bx/cfg"
	"bx/tac"
)

// GCP runs one pass of global copy propagation over SSA-form g: every
// copy src -> dst is recorded, every use of dst anywhere in the
// procedure (including a phi's predecessor-indexed sources) is rewritten
// to src's ultimate source, and the copy itself is deleted. It reports whether anything changed.
func GCP(g *cfg.Graph) bool {
	copies := map[tac.Operand]tac.Operand{}
	for _, label := range g.Order {
		for _, in := range g.Blocks[label].Instrs {
			if in.Op == tac.Copy && in.Dest != nil && in.Dest.IsTemporary() {
				copies[*in.Dest] = in.Args[0]
			}
		}
	}
	if len(copies) == 0 {
		return false
	}

	resolve := func(o tac.Operand) tac.Operand {
		seen := map[tac.Operand]bool{}
		for {
			src, ok := copies[o]
			if !ok || seen[o] {
				return o
			}
			seen[o] = true
			o = src
		}
	}

	changed := false
	for _, label := range g.Order {
		blk := g.Blocks[label]
		var kept []tac.Instruction
		for _, in := range blk.Instrs {
			if in.Op == tac.Copy && in.Dest != nil && in.Dest.IsTemporary() {
				changed = true
				continue
			}
			for i := range in.Args {
				if in.Args[i].IsTemporary() {
					in.Args[i] = resolve(in.Args[i])
				}
			}
			for i := range in.Phi {
				if in.Phi[i].Source.IsTemporary() {
					in.Phi[i].Source = resolve(in.Phi[i].Source)
				}
			}
			kept = append(kept, in)
		}
		blk.Instrs = kept
	}
	return changed
}
