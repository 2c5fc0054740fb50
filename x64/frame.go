package x64

import "bx/tac"

// frame is one procedure's stack-slot allocation: every temporary and
// named parameter claims the next 8-byte slot below %rbp, in
// first-appearance order, with parameters reserved up front so the
// prologue can copy incoming arguments before any local temporary
// claims a slot.
type frame struct {
	index map[string]int
	next  int
}

func newFrame() *frame {
	return &frame{index: map[string]int{}}
}

// slotKey distinguishes a numbered temporary from a named parameter so
// "%0" (a temporary) and a parameter that happened to be named "0"
// could never collide; in practice BX identifiers can't be all-digit,
// but the tag keeps the map honest either way.
func slotKey(op tac.Operand) string {
	switch op.Kind {
	case tac.Temp:
		return "t:" + op.Name
	case tac.NamedParam:
		return "p:" + op.Name
	default:
		return ""
	}
}

// slot returns op's 0-based stack slot, assigning a fresh one on first
// use.
func (f *frame) slot(op tac.Operand) int {
	key := slotKey(op)
	if idx, ok := f.index[key]; ok {
		return idx
	}
	idx := f.next
	f.index[key] = idx
	f.next++
	return idx
}

// offset returns the %rbp-relative byte offset of op's slot: slot k
// lives at -8*(k+1)(%rbp).
func (f *frame) offset(op tac.Operand) int {
	return -8 * (f.slot(op) + 1)
}

// size is the number of slots handed out so far.
func (f *frame) size() int { return f.next }

// reserveParams assigns parameter slots in declaration order before the
// body is scanned, matching the order the prologue fills them in.
func (f *frame) reserveParams(params []string) {
	for _, name := range params {
		f.slot(tac.NamedParamOperand(name))
	}
}
