package cfg

import "bx/tac"

// Optimize applies BX's control-flow optimizations to a procedure's
// linear TAC body — coalescing, unreachable-code elimination, and
// unconditional/conditional jump threading — iterated to a fixed point,
// then re-linearizes.
func Optimize(body []tac.Instruction) []tac.Instruction {
	blocks := BuildBlocks(body)
	g := Build(blocks)
	for {
		changed := false
		if coalesce(g) {
			changed = true
		}
		if unreachableCodeElimination(g) {
			changed = true
		}
		if unconditionalJumpThreading(g) {
			changed = true
		}
		if conditionalJumpThreading(g) {
			changed = true
		}
		if !changed {
			break
		}
	}
	return Linearize(g)
}

// coalesce merges a block b1 with its single successor b2 when b1 is
// b2's only predecessor and b2 is not the entry: b2's instructions
// replace b1's trailing jmp and b2 is deleted.
func coalesce(g *Graph) bool {
	changed := false
	bwd := g.Bwd()
	for _, label := range append([]string{}, g.Order...) {
		b1, ok := g.Blocks[label]
		if !ok || len(b1.Instrs) == 0 || b1.last().Op != tac.Jmp {
			continue
		}
		succs := g.Fwd(label)
		if len(succs) != 1 {
			continue
		}
		b2label := succs[0]
		if b2label == g.Entry || b2label == label {
			continue
		}
		preds := bwd[b2label]
		if len(preds) != 1 || preds[0] != label {
			continue
		}
		b2, ok := g.Blocks[b2label]
		if !ok {
			continue
		}
		merged := make([]tac.Instruction, 0, len(b1.Instrs)-1+len(b2.Instrs))
		merged = append(merged, b1.Instrs[:len(b1.Instrs)-1]...)
		merged = append(merged, b2.Instrs...)
		b1.Instrs = merged
		delete(g.Blocks, b2label)
		removeFromOrder(g, b2label)
		bwd = g.Bwd()
		changed = true
	}
	return changed
}

// unreachableCodeElimination deletes every block not reachable from
// Entry via Fwd.
func unreachableCodeElimination(g *Graph) bool {
	reachable := g.Reachable()
	changed := false
	for _, label := range append([]string{}, g.Order...) {
		if !reachable[label] {
			delete(g.Blocks, label)
			removeFromOrder(g, label)
			changed = true
		}
	}
	return changed
}

func isEmptyJumpBlock(b *Block) bool {
	return len(b.Instrs) == 1 && b.Instrs[0].Op == tac.Jmp
}

// unconditionalJumpThreading rewrites a block's unconditional jump past
// any chain of empty "single jmp" blocks it targets.
func unconditionalJumpThreading(g *Graph) bool {
	changed := false
	for _, label := range g.Order {
		b, ok := g.Blocks[label]
		if !ok || len(b.Instrs) == 0 {
			continue
		}
		last := &b.Instrs[len(b.Instrs)-1]
		if last.Op != tac.Jmp {
			continue
		}
		original := jumpTargetOf(*last)
		target := original
		visited := map[string]bool{label: true}
		for {
			tb, ok := g.Blocks[target]
			if !ok || !isEmptyJumpBlock(tb) || visited[target] {
				break
			}
			visited[target] = true
			target = jumpTargetOf(tb.Instrs[0])
		}
		if target != original {
			rewriteTarget(last, target)
			changed = true
		}
	}
	return changed
}

// conditionOperand returns the temporary a conditional jump tests: the
// first argument for every opcode in tac.Implies' table.
func conditionOperand(in tac.Instruction) tac.Operand {
	return in.Args[0]
}

func definesOperand(in tac.Instruction, o tac.Operand) bool {
	return in.Dest != nil && *in.Dest == o
}

// conditionalJumpThreading rewrites a block's conditional-jump target
// to skip past a redundant re-check of an implied relation in the
// target block, without mutating the target block itself (it may have
// other predecessors that still need the original check).
func conditionalJumpThreading(g *Graph) bool {
	changed := false
	for _, label := range g.Order {
		b, ok := g.Blocks[label]
		if !ok {
			continue
		}
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if !tac.IsConditionalJump(in.Op) {
				continue
			}
			t := conditionOperand(*in)
			targetLabel := jumpTargetOf(*in)
			target, ok := g.Blocks[targetLabel]
			if !ok {
				continue
			}
			for _, in2 := range target.Instrs {
				if definesOperand(in2, t) {
					break
				}
				if !tac.IsConditionalJump(in2.Op) {
					continue
				}
				if conditionOperand(in2) != t || !tac.Implies(in.Op, in2.Op) {
					break
				}
				newTarget := jumpTargetOf(in2)
				if newTarget != targetLabel {
					rewriteTarget(in, newTarget)
					changed = true
				}
				break
			}
		}
	}
	return changed
}

func rewriteTarget(in *tac.Instruction, newLabel string) {
	for i := len(in.Args) - 1; i >= 0; i-- {
		if in.Args[i].Kind == tac.LabelOperand {
			in.Args[i] = tac.Operand{Kind: tac.LabelOperand, Name: newLabel}
			return
		}
	}
}

func removeFromOrder(g *Graph, label string) {
	out := g.Order[:0]
	for _, l := range g.Order {
		if l != label {
			out = append(out, l)
		}
	}
	g.Order = out
	if g.Entry == label && len(g.Order) > 0 {
		g.Entry = g.Order[0]
	}
}
