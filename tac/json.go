package tac

import "encoding/json"

// The JSON interchange format below uses small serializable mirror
// structs translated to/from the real IR, rather than hand-rolled
// MarshalJSON methods on Operand/Instruction themselves.

type jsonGlobal struct {
	Var  string `json:"var"`
	Init int64  `json:"init"`
}

type jsonInstruction struct {
	Opcode string `json:"opcode"`
	Args   []any  `json:"args"`
	Result any    `json:"result"`
}

type jsonProc struct {
	Proc string            `json:"proc"`
	Args []string          `json:"args"`
	Body []jsonInstruction `json:"body"`
}

func operandJSON(o Operand) any {
	if o.Kind == Imm {
		return o.Int
	}
	return o.String()
}

func instructionToJSON(i Instruction) jsonInstruction {
	var args []any
	if i.Op == Phi {
		for _, edge := range i.Phi {
			args = append(args, map[string]any{"pred": "%" + edge.Pred, "src": operandJSON(edge.Source)})
		}
	} else {
		for _, a := range i.Args {
			args = append(args, operandJSON(a))
		}
	}
	var result any
	if i.Dest != nil {
		result = operandJSON(*i.Dest)
	}
	return jsonInstruction{Opcode: string(i.Op), Args: args, Result: result}
}

// ToJSON renders prog in the TAC JSON interchange format,
// suitable for writing to a FILE.tac.json sidecar.
func ToJSON(prog *Program) ([]byte, error) {
	var decls []any
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *GlobalVar:
			decls = append(decls, jsonGlobal{Var: "@" + decl.Name, Init: decl.Init})
		case *Proc:
			args := make([]string, len(decl.Params))
			for i, p := range decl.Params {
				args[i] = "%" + p
			}
			body := make([]jsonInstruction, len(decl.Body))
			for i, instr := range decl.Body {
				body[i] = instructionToJSON(instr)
			}
			decls = append(decls, jsonProc{Proc: "@" + decl.Name, Args: args, Body: body})
		}
	}
	return json.MarshalIndent(decls, "", "  ")
}
