// Package x64 lowers one straight-line TAC procedure at a time into
// x86-64 System V assembly text, using a stack-slot allocator for
// temporaries and the SysV calling convention for calls.
//
// There is no in-process instruction encoding here: output is assembly
// text for an external assembler/linker, built with
// strings.Builder/fmt.Fprintf rather than a machine-code encoder.
package x64

import (
	"fmt"
	"strings"

	"bx/tac"
)

// sysVRegs is the SysV AMD64 integer argument-passing register order.
var sysVRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// procGen lowers a single tac.Proc. pending stages the operands of
// `param` instructions by position, consumed by the following `call`
//.
type procGen struct {
	proc    *tac.Proc
	frame   *frame
	out     *strings.Builder
	pending map[int64]tac.Operand
}

func newProcGen(proc *tac.Proc) *procGen {
	return &procGen{
		proc:    proc,
		frame:   newFrame(),
		out:     &strings.Builder{},
		pending: map[int64]tac.Operand{},
	}
}

// LowerProc renders one TAC procedure as x86-64 assembly: a prologue
// that reserves stack slots and copies in arguments, the lowered body,
// and a shared epilogue at a per-procedure Lret label.
func LowerProc(proc *tac.Proc) (asm string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	g := newProcGen(proc)
	g.frame.reserveParams(proc.Params)
	g.prescan()
	g.emitPrologue()
	for _, in := range proc.Body {
		g.lowerInstr(in)
	}
	g.emitEpilogue()
	return g.out.String(), nil
}

// prescan assigns every temporary/named-parameter operand its stack
// slot before the prologue is emitted, so the prologue's `subq` can
// reserve the whole frame up front.
func (g *procGen) prescan() {
	for _, in := range g.proc.Body {
		for _, a := range in.Args {
			g.touch(a)
		}
		if in.Dest != nil {
			g.touch(*in.Dest)
		}
		for _, edge := range in.Phi {
			g.touch(edge.Source)
		}
	}
}

func (g *procGen) touch(op tac.Operand) {
	if op.IsTemporary() {
		g.frame.slot(op)
	}
}

// --- operand addressing -----------------------------------------------

// opnd renders op as an assembly operand: an immediate, an %rbp-relative
// stack slot, or a %rip-relative global reference.
func (g *procGen) opnd(op tac.Operand) string {
	switch op.Kind {
	case tac.Imm:
		return fmt.Sprintf("$%d", op.Int)
	case tac.Temp, tac.NamedParam:
		return fmt.Sprintf("%d(%%rbp)", g.frame.offset(op))
	case tac.Global:
		return op.Name + "(%rip)"
	default:
		panic(&InternalError{Message: "operand has no addressing mode: " + op.String()})
	}
}

func (g *procGen) retLabel() string {
	return ".Lbx_" + g.proc.Name + "_ret"
}

// mangledLabel rewrites a TAC label (fresh per procedure)
// into a globally unique assembly label by prefixing the procedure
// name, since the assembler's label namespace is shared across the
// whole file.
func (g *procGen) mangledLabel(name string) string {
	return ".Lbx_" + g.proc.Name + "_" + strings.TrimPrefix(name, ".L")
}

func (g *procGen) emit(format string, args ...any) {
	fmt.Fprintf(g.out, "\t"+format+"\n", args...)
}

// --- prologue / epilogue ------------------------------------------------

func (g *procGen) emitPrologue() {
	frameBytes := 8 * g.frame.size()
	if frameBytes%16 != 0 {
		// Keeps %rsp 16-aligned across the procedure body: the invariant this relies on is that the caller
		// always calls into a 16-aligned %rsp.
		frameBytes += 8
	}

	fmt.Fprintf(g.out, "\t.globl %s\n", g.proc.Name)
	fmt.Fprintf(g.out, "%s:\n", g.proc.Name)
	g.emit("pushq %%rbp")
	g.emit("movq %%rsp, %%rbp")
	if frameBytes > 0 {
		g.emit("subq $%d, %%rsp", frameBytes)
	}

	for i, name := range g.proc.Params {
		dstOff := g.frame.offset(tac.NamedParamOperand(name))
		if i < len(sysVRegs) {
			g.emit("movq %s, %d(%%rbp)", sysVRegs[i], dstOff)
			continue
		}
		srcOff := 16 + 8*(i-len(sysVRegs))
		g.emit("movq %d(%%rbp), %%r11", srcOff)
		g.emit("movq %%r11, %d(%%rbp)", dstOff)
	}
}

func (g *procGen) emitEpilogue() {
	fmt.Fprintf(g.out, "%s:\n", g.retLabel())
	g.emit("movq %%rbp, %%rsp")
	g.emit("popq %%rbp")
	g.emit("xorq %%rax, %%rax")
	g.emit("retq")
}

// --- instruction lowering ---

func (g *procGen) lowerInstr(in tac.Instruction) {
	switch in.Op {
	case tac.Const:
		g.emit("movq $%d, %s", in.Args[0].Int, g.opnd(*in.Dest))
	case tac.Copy:
		g.lowerMove(in.Args[0], *in.Dest)
	case tac.Add:
		g.lowerBinary("addq", in)
	case tac.Sub:
		g.lowerBinary("subq", in)
	case tac.And:
		g.lowerBinary("andq", in)
	case tac.Or:
		g.lowerBinary("orq", in)
	case tac.Xor:
		g.lowerBinary("xorq", in)
	case tac.Mul:
		g.lowerMul(in)
	case tac.Div:
		g.lowerDivMod(in, "%rax")
	case tac.Mod:
		g.lowerDivMod(in, "%rdx")
	case tac.Shl:
		g.lowerShift("salq", in)
	case tac.Shr:
		g.lowerShift("sarq", in)
	case tac.Neg:
		g.lowerUnary("negq", in)
	case tac.Not:
		g.lowerUnary("notq", in)
	case tac.Label:
		fmt.Fprintf(g.out, "%s:\n", g.mangledLabel(in.Args[0].Name))
	case tac.Jmp:
		g.emit("jmp %s", g.mangledLabel(in.Args[0].Name))
	case tac.Je, tac.Jne, tac.Jl, tac.Jle, tac.Jg, tac.Jge:
		g.lowerCondJump(in)
	case tac.Jz:
		g.lowerJz(in)
	case tac.Param:
		g.pending[in.Args[0].Int] = in.Args[1]
	case tac.Call:
		g.lowerCall(in)
	case tac.Ret:
		g.lowerRet(in)
	case tac.Print:
		g.lowerLegacyPrint(in)
	case tac.Nop:
		// nothing to emit
	case tac.Phi:
		panic(&InternalError{Message: "phi instruction reached x64 lowering; SSA deconstruction should have removed it"})
	default:
		panic(&InternalError{Message: "unknown TAC opcode: " + string(in.Op)})
	}
}

// lowerMove implements `copy src -> dst`: movq slot(s), %r11; movq %r11,
// slot(d).
func (g *procGen) lowerMove(src, dst tac.Operand) {
	g.emit("movq %s, %%r11", g.opnd(src))
	g.emit("movq %%r11, %s", g.opnd(dst))
}

func (g *procGen) lowerBinary(op string, in tac.Instruction) {
	g.emit("movq %s, %%r11", g.opnd(in.Args[0]))
	g.emit("%s %s, %%r11", op, g.opnd(in.Args[1]))
	g.emit("movq %%r11, %s", g.opnd(*in.Dest))
}

// lowerMul is signed multiplication via %rax/%rdx: the
// one-operand imulq form writes the full 128-bit product across
// %rdx:%rax; only the low 64 bits in %rax are kept.
func (g *procGen) lowerMul(in tac.Instruction) {
	g.emit("movq %s, %%rax", g.opnd(in.Args[0]))
	g.emit("movq %s, %%r11", g.opnd(in.Args[1]))
	g.emit("imulq %%r11")
	g.emit("movq %%rax, %s", g.opnd(*in.Dest))
}

// lowerDivMod implements both div (quotient in %rax) and mod (remainder
// in %rdx) via cqto/idivq; resultReg selects which half is kept. Runtime division/modulus by zero is not a compile-time
// diagnostic: it is left to idivq's trap.
func (g *procGen) lowerDivMod(in tac.Instruction, resultReg string) {
	g.emit("movq %s, %%rax", g.opnd(in.Args[0]))
	g.emit("cqto")
	g.emit("movq %s, %%r11", g.opnd(in.Args[1]))
	g.emit("idivq %%r11")
	g.emit("movq %s, %s", resultReg, g.opnd(*in.Dest))
}

// lowerShift implements shl/shr: count in %rcx (%cl), value in %r11
//. BX's Int is signed, so shr lowers to the arithmetic
// sarq rather than a logical shift.
func (g *procGen) lowerShift(op string, in tac.Instruction) {
	g.emit("movq %s, %%r11", g.opnd(in.Args[0]))
	g.emit("movq %s, %%rcx", g.opnd(in.Args[1]))
	g.emit("%s %%cl, %%r11", op)
	g.emit("movq %%r11, %s", g.opnd(*in.Dest))
}

func (g *procGen) lowerUnary(op string, in tac.Instruction) {
	g.emit("movq %s, %%r11", g.opnd(in.Args[0]))
	g.emit("%s %%r11", op)
	g.emit("movq %%r11, %s", g.opnd(*in.Dest))
}

// lowerCondJump implements je/jne/jl/jle/jg/jge: the generator always
// emits these immediately after a `sub` computing the operand
// difference, so comparing that temporary against zero reproduces the
// relational test.
func (g *procGen) lowerCondJump(in tac.Instruction) {
	g.emit("movq $0, %%r11")
	g.emit("cmpq %%r11, %s", g.opnd(in.Args[0]))
	g.emit("%s %s", string(in.Op), g.mangledLabel(in.Args[1].Name))
}

// lowerJz implements `jz t, L`: equivalent to je against zero, used to
// test a bare boolean temporary without a preceding sub.
func (g *procGen) lowerJz(in tac.Instruction) {
	g.emit("movq $0, %%r11")
	g.emit("cmpq %%r11, %s", g.opnd(in.Args[0]))
	g.emit("je %s", g.mangledLabel(in.Args[1].Name))
}

// lowerRet moves the return value (if any) into %rax, then jumps to the
// shared epilogue.
func (g *procGen) lowerRet(in tac.Instruction) {
	if len(in.Args) > 0 {
		g.emit("movq %s, %%rax", g.opnd(in.Args[0]))
	}
	g.emit("jmp %s", g.retLabel())
}

// lowerLegacyPrint implements the standalone `print` opcode retained
// for compatibility with an earlier lowering path: the
// caller-saved %rsp is already 16-aligned throughout the body, so no
// extra stack alignment is needed before the call.
func (g *procGen) lowerLegacyPrint(in tac.Instruction) {
	g.emit("movq %s, %%rdi", g.opnd(in.Args[0]))
	g.emit("callq %s", RuntimePrintInt)
}

// --- calls -----------------------------

func (g *procGen) lowerCall(in tac.Instruction) {
	callee := in.Args[0].Name
	n := int(in.Args[1].Int)

	stackCount := 0
	if n > len(sysVRegs) {
		stackCount = n - len(sysVRegs)
	}
	pad := stackCount % 2
	if pad == 1 {
		g.emit("pushq $0")
	}
	for i := n - 1; i >= len(sysVRegs); i-- {
		g.pushOperand(g.pending[int64(i)])
	}
	for i := 0; i < n && i < len(sysVRegs); i++ {
		g.emit("movq %s, %s", g.opnd(g.pending[int64(i)]), sysVRegs[i])
	}

	g.emit("callq %s", callee)

	cleanup := 8 * (stackCount + pad)
	if cleanup > 0 {
		g.emit("addq $%d, %%rsp", cleanup)
	}
	if in.Dest != nil {
		g.emit("movq %%rax, %s", g.opnd(*in.Dest))
	}
	g.pending = map[int64]tac.Operand{}
}

// pushOperand pushes op onto the stack as a call argument. A raw
// immediate cannot be pushed directly in general (pushq only sign-
// extends a 32-bit immediate, and BX's i64 literals can exceed that
// range), so it is first materialized into a register.
func (g *procGen) pushOperand(op tac.Operand) {
	if op.Kind == tac.Imm {
		g.emit("movq $%d, %%r11", op.Int)
		g.emit("pushq %%r11")
		return
	}
	g.emit("pushq %s", g.opnd(op))
}
