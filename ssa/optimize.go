package ssa

import (
	"bx/cfg"
	"bx/tac"
)

// Optimize infers a fresh CFG over body, builds crude SSA, runs global
// DSE and global copy propagation to a fixed point, deconstructs back to
// plain TAC, and re-runs the control-flow optimizations once more to
// clean up the copies deconstruction introduces.
func Optimize(body []tac.Instruction, paramNames []string) []tac.Instruction {
	blocks := cfg.BuildBlocks(body)
	g := cfg.Build(blocks)

	Construct(g, paramNames)

	for {
		changed := false
		if DSE(g) {
			changed = true
		}
		if GCP(g) {
			changed = true
		}
		if !changed {
			break
		}
	}

	Deconstruct(g)
	return cfg.Optimize(cfg.Linearize(g))
}
