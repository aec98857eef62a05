package value

import "github.com/kristofer/loxvm/pkg/bytecode"

// Chunk is an ordered sequence of instructions, a parallel ordered
// sequence of source line numbers (one per instruction), and a constant
// pool. It belongs to exactly one ObjFunction and is immutable once the
// compiler finishes emitting into it.
//
// Invariant: len(Code) == len(Lines) always; every constant-pool index
// recorded inside an instruction is a valid index into Constants.
type Chunk struct {
	Code      []bytecode.Instruction
	Lines     []int
	Constants []Value
}

// NewChunk returns an empty chunk ready for emission.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends an instruction and records the source line it came from.
// Returns the instruction's offset within the chunk, used by callers that
// need to patch a jump later.
func (c *Chunk) Write(op bytecode.OpCode, a, b, line int) int {
	c.Code = append(c.Code, bytecode.Instruction{Op: op, A: a, B: b})
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// AddConstant appends a value to the constant pool and returns its index.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Len returns the number of instructions currently in the chunk.
func (c *Chunk) Len() int { return len(c.Code) }
