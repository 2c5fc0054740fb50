package ssa

import (
	"fmt"

	"bx/cfg"
	"bx/tac"
)

// builder renames a procedure's temporaries into crude SSA form: phi
// nodes are over-inserted at every block in the iterated dominance
// frontier of a variable's definitions, never proven minimal.
type builder struct {
	g        *cfg.Graph
	dom      *domInfo
	df       map[string][]string
	counters map[string]int
	stacks   map[string][]tac.Operand
	phiOrig  map[string]string // renamed phi dest name -> original variable name
}

// Construct rewrites g's blocks in place into SSA form: every variable
// gets a unique name per definition, and join points carry phi
// instructions recording which predecessor contributed which name.
// paramNames lists the procedure's formal parameters, whose value on
// entry must keep its original, unversioned name so the x86-64 lowering
// stage still recognizes it as an incoming argument.
func Construct(g *cfg.Graph, paramNames []string) {
	dom := computeDominators(g)
	df := dominanceFrontier(g, dom)
	b := &builder{
		g:        g,
		dom:      dom,
		df:       df,
		counters: map[string]int{},
		stacks:   map[string][]tac.Operand{},
		phiOrig:  map[string]string{},
	}
	for _, p := range paramNames {
		b.stacks[p] = []tac.Operand{{Kind: tac.NamedParam, Name: p}}
	}
	b.insertPhis()
	children := dominatorChildren(g, dom)
	b.visit(g.Entry, children)
}

func (b *builder) insertPhis() {
	defs := map[string]map[string]bool{}
	kind := map[string]tac.OperandKind{}
	for _, label := range b.g.Order {
		for _, in := range b.g.Blocks[label].Instrs {
			if in.Dest == nil || !in.Dest.IsTemporary() {
				continue
			}
			name := in.Dest.Name
			if defs[name] == nil {
				defs[name] = map[string]bool{}
			}
			defs[name][label] = true
			kind[name] = in.Dest.Kind
		}
	}
	for name, blockSet := range defs {
		for label := range iteratedFrontier(b.df, blockSet) {
			blk := b.g.Blocks[label]
			if hasPhiFor(blk, name) {
				continue
			}
			dest := tac.Operand{Kind: kind[name], Name: name}
			phi := tac.Instruction{Op: tac.Phi, Dest: &dest}
			blk.Instrs = append([]tac.Instruction{phi}, blk.Instrs...)
		}
	}
}

func hasPhiFor(b *cfg.Block, name string) bool {
	for _, in := range b.Instrs {
		if in.Op != tac.Phi {
			break
		}
		if in.Dest != nil && in.Dest.Name == name {
			return true
		}
	}
	return false
}

func (b *builder) currentOperand(origName string, kind tac.OperandKind) tac.Operand {
	stack := b.stacks[origName]
	if len(stack) == 0 {
		return tac.Operand{Kind: kind, Name: origName}
	}
	return stack[len(stack)-1]
}

func (b *builder) freshVersion(origName string, kind tac.OperandKind) tac.Operand {
	b.counters[origName]++
	newOp := tac.Operand{Kind: kind, Name: fmt.Sprintf("%s.%d", origName, b.counters[origName])}
	b.stacks[origName] = append(b.stacks[origName], newOp)
	return newOp
}

func (b *builder) popVersion(origName string) {
	s := b.stacks[origName]
	b.stacks[origName] = s[:len(s)-1]
}

// visit performs the dominator-tree preorder renaming walk: uses are
// rewritten to the current reaching definition before a def pushes a
// fresh one, and each successor's phis are filled in with this block's
// final reaching definitions right before recursing to dominator
// children.
func (b *builder) visit(label string, children map[string][]string) {
	blk := b.g.Blocks[label]
	var pushed []string
	for i := range blk.Instrs {
		in := &blk.Instrs[i]
		if in.Op == tac.Phi {
			origName := in.Dest.Name
			newOp := b.freshVersion(origName, in.Dest.Kind)
			b.phiOrig[newOp.Name] = origName
			dest := newOp
			in.Dest = &dest
			pushed = append(pushed, origName)
			continue
		}
		for j := range in.Args {
			a := in.Args[j]
			if a.IsTemporary() {
				in.Args[j] = b.currentOperand(a.Name, a.Kind)
			}
		}
		if in.Dest != nil && in.Dest.IsTemporary() {
			origName := in.Dest.Name
			newOp := b.freshVersion(origName, in.Dest.Kind)
			dest := newOp
			in.Dest = &dest
			pushed = append(pushed, origName)
		}
	}

	for _, succLabel := range b.g.Fwd(label) {
		succ, ok := b.g.Blocks[succLabel]
		if !ok {
			continue
		}
		for i := range succ.Instrs {
			in := &succ.Instrs[i]
			if in.Op != tac.Phi {
				break
			}
			origName, ok := b.phiOrig[in.Dest.Name]
			if !ok {
				// The phi's own block has not been visited yet, so its
				// dest still carries the original variable name.
				origName = in.Dest.Name
			}
			in.Phi = append(in.Phi, tac.PhiEdge{
				Pred:   label,
				Source: b.currentOperand(origName, in.Dest.Kind),
			})
		}
	}

	for _, child := range children[label] {
		b.visit(child, children)
	}
	for _, name := range pushed {
		b.popVersion(name)
	}
}
