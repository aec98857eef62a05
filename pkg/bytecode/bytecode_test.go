package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpCodeString(t *testing.T) {
	assert.Equal(t, "OP_CONSTANT", OpConstant.String())
	assert.Equal(t, "OP_RETURN", OpReturn.String())
	assert.Equal(t, "OP_INVOKE", OpInvoke.String())
	assert.Equal(t, "OP_UNKNOWN", OpCode(255).String())
}

func TestInstructionCarriesTwoOperands(t *testing.T) {
	inst := Instruction{Op: OpInvoke, A: 3, B: 2}
	assert.Equal(t, 3, inst.A)
	assert.Equal(t, 2, inst.B)
}
