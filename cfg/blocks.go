// Package cfg recovers basic blocks and a control-flow graph from
// linearized TAC, applies BX's control-flow optimizations, and
// re-linearizes.
package cfg

import (
	"strconv"
	"strings"

	"bx/tac"
)

// Block is one basic block: a label and the straight-line instructions
// that follow it, ending in a jmp or ret. The
// label instruction itself is not part of Instrs; it is the block's key.
type Block struct {
	Label  string
	Instrs []tac.Instruction
}

func (b *Block) last() tac.Instruction {
	return b.Instrs[len(b.Instrs)-1]
}

// endsSegment reports whether op splits a basic block during recovery:
// every jmp and conditional jump does.
func endsSegment(op tac.Opcode) bool {
	switch op {
	case tac.Jmp, tac.Ret, tac.Je, tac.Jne, tac.Jl, tac.Jle, tac.Jg, tac.Jge, tac.Jz:
		return true
	default:
		return false
	}
}

// isHardEnd reports whether op alone satisfies "this block ends in jmp
// or ret"; conditional jumps do not; they have a
// literal jmp appended to their block instead.
func isHardEnd(op tac.Opcode) bool {
	return op == tac.Jmp || op == tac.Ret
}

// labelAllocator hands out fresh labels continuing the numbering already
// used in a procedure's body, so recovery never collides with labels
// the generator already emitted.
type labelAllocator struct{ next int }

func newLabelAllocator(instrs []tac.Instruction) *labelAllocator {
	max := -1
	for _, in := range instrs {
		for _, a := range in.Args {
			if a.Kind != tac.LabelOperand {
				continue
			}
			if n, ok := labelNumber(a.Name); ok && n > max {
				max = n
			}
		}
	}
	return &labelAllocator{next: max + 1}
}

func labelNumber(name string) (int, bool) {
	trimmed := strings.TrimPrefix(name, ".L")
	if trimmed == name {
		return 0, false
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (a *labelAllocator) fresh() tac.Operand {
	l := tac.LabelOperandOf(a.next)
	a.next++
	return l
}

// BuildBlocks recovers basic blocks from a procedure's linear TAC body.
func BuildBlocks(body []tac.Instruction) []*Block {
	alloc := newLabelAllocator(body)

	instrs := make([]tac.Instruction, 0, len(body)+4)
	if len(body) == 0 || body[0].Op != tac.Label {
		l := alloc.fresh()
		instrs = append(instrs, tac.Instruction{Op: tac.Label, Args: []tac.Operand{l}})
	}
	for i, in := range body {
		instrs = append(instrs, in)
		if !endsSegment(in.Op) {
			continue
		}
		isLast := i == len(body)-1
		nextIsLabel := !isLast && body[i+1].Op == tac.Label
		if !isLast && !nextIsLabel {
			l := alloc.fresh()
			instrs = append(instrs, tac.Instruction{Op: tac.Label, Args: []tac.Operand{l}})
		}
	}

	blocks := sliceAtLabels(instrs)
	closeBlocks(blocks, alloc)
	return blocks
}

func sliceAtLabels(instrs []tac.Instruction) []*Block {
	var blocks []*Block
	var cur *Block
	for _, in := range instrs {
		if in.Op == tac.Label {
			if cur != nil {
				blocks = append(blocks, cur)
			}
			cur = &Block{Label: in.Args[0].Name}
			continue
		}
		cur.Instrs = append(cur.Instrs, in)
	}
	if cur != nil {
		blocks = append(blocks, cur)
	}
	return blocks
}

// closeBlocks enforces "every block now ends in jmp or ret", appending an explicit fall-through jmp to the next
// block, or synthesizing a bare ret for a dangling final block.
func closeBlocks(blocks []*Block, alloc *labelAllocator) {
	for i, b := range blocks {
		if len(b.Instrs) > 0 && isHardEnd(b.last().Op) {
			continue
		}
		if i+1 < len(blocks) {
			target := tac.Operand{Kind: tac.LabelOperand, Name: blocks[i+1].Label}
			b.Instrs = append(b.Instrs, tac.Instruction{Op: tac.Jmp, Args: []tac.Operand{target}})
		} else {
			b.Instrs = append(b.Instrs, tac.Instruction{Op: tac.Ret})
		}
	}
	_ = alloc
}
