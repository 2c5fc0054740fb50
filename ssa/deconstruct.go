package ssa

import (
	"bx/cfg"
	"bx/tac"
)

// Deconstruct removes phi instructions from g, inserting an equivalent
// copy at the tail of each predecessor block (before its terminator) for
// every phi edge.
func Deconstruct(g *cfg.Graph) {
	for _, label := range g.Order {
		blk := g.Blocks[label]
		for _, in := range blk.Instrs {
			if in.Op != tac.Phi {
				break
			}
			for _, edge := range in.Phi {
				pred, ok := g.Blocks[edge.Pred]
				if !ok {
					continue
				}
				dest := *in.Dest
				insertBeforeTerminator(pred, tac.Instruction{Op: tac.Copy, Args: []tac.Operand{edge.Source}, Dest: &dest})
			}
		}
		var kept []tac.Instruction
		for _, in := range blk.Instrs {
			if in.Op == tac.Phi {
				continue
			}
			kept = append(kept, in)
		}
		blk.Instrs = kept
	}
}

// insertBeforeTerminator inserts instr just before b's final
// instruction, which every block (having passed through
// cfg.BuildBlocks) is guaranteed to have as a jmp or ret.
func insertBeforeTerminator(b *cfg.Block, instr tac.Instruction) {
	if len(b.Instrs) == 0 {
		b.Instrs = []tac.Instruction{instr}
		return
	}
	idx := len(b.Instrs) - 1
	out := make([]tac.Instruction, 0, len(b.Instrs)+1)
	out = append(out, b.Instrs[:idx]...)
	out = append(out, instr)
	out = append(out, b.Instrs[idx])
	b.Instrs = out
}
