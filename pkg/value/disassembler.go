package value

import (
	"fmt"
	"strings"

	"github.com/kristofer/loxvm/pkg/bytecode"
)

// Disassemble renders every instruction in chunk under the given name.
// Purely a debugging aid — neither the VM nor cmd/loxvm calls this; the
// -trace flag renders one instruction at a time through
// DisassembleInstruction as the VM executes it.
func Disassemble(chunk *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < chunk.Len(); {
		line, next := DisassembleInstruction(chunk, offset)
		b.WriteString(line)
		b.WriteByte('\n')
		offset = next
	}
	return b.String()
}

// DisassembleInstruction renders the instruction at offset and returns
// the offset of the next instruction (always offset+1, since every
// Instruction is a single fixed-size struct regardless of operand count).
func DisassembleInstruction(chunk *Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", chunk.Lines[offset])
	}

	inst := chunk.Code[offset]
	switch inst.Op {
	case bytecode.OpConstant, bytecode.OpGetGlobal, bytecode.OpDefineGlobal,
		bytecode.OpSetGlobal, bytecode.OpGetProperty, bytecode.OpSetProperty,
		bytecode.OpGetSuper, bytecode.OpClosure, bytecode.OpClass, bytecode.OpMethod:
		constantInstruction(&b, inst, chunk)
	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpGetUpvalue,
		bytecode.OpSetUpvalue, bytecode.OpCall:
		fmt.Fprintf(&b, "%-16s %4d", inst.Op, inst.A)
	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		fmt.Fprintf(&b, "%-16s %4d -> %d", inst.Op, inst.A, offset+1+inst.A)
	case bytecode.OpLoop:
		fmt.Fprintf(&b, "%-16s %4d -> %d", inst.Op, inst.A, offset+1-inst.A)
	case bytecode.OpInvoke, bytecode.OpSuperInvoke:
		name := constantName(chunk, inst.A)
		fmt.Fprintf(&b, "%-16s (%d args) %4d '%s'", inst.Op, inst.B, inst.A, name)
	default:
		fmt.Fprintf(&b, "%s", inst.Op)
	}

	return b.String(), offset + 1
}

func constantInstruction(b *strings.Builder, inst bytecode.Instruction, chunk *Chunk) {
	fmt.Fprintf(b, "%-16s %4d '%s'", inst.Op, inst.A, constantName(chunk, inst.A))
}

func constantName(chunk *Chunk, index int) string {
	if index < 0 || index >= len(chunk.Constants) {
		return "<out of range>"
	}
	return chunk.Constants[index].String()
}
