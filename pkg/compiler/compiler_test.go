package compiler

import (
	"testing"

	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, source string) *[]bytecode.Instruction {
	t.Helper()
	fn, errs := Compile(source)
	require.Empty(t, errs)
	require.NotNil(t, fn)
	return &fn.Chunk.Code
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	code := *compileOK(t, "1 + 2 * 3;")
	var ops []bytecode.OpCode
	for _, inst := range code {
		ops = append(ops, inst.Op)
	}
	assert.Contains(t, ops, bytecode.OpMultiply)
	assert.Contains(t, ops, bytecode.OpAdd)

	// multiply must be emitted before add, since it binds tighter
	var mulIdx, addIdx int
	for i, op := range ops {
		if op == bytecode.OpMultiply {
			mulIdx = i
		}
		if op == bytecode.OpAdd {
			addIdx = i
		}
	}
	assert.Less(t, mulIdx, addIdx)
}

func TestCompileVarDeclarationEmitsDefineGlobal(t *testing.T) {
	code := *compileOK(t, "var x = 1;")
	var ops []bytecode.OpCode
	for _, inst := range code {
		ops = append(ops, inst.Op)
	}
	assert.Contains(t, ops, bytecode.OpDefineGlobal)
}

func TestCompileBlockScopingEmitsPopOnScopeExit(t *testing.T) {
	code := *compileOK(t, "{ var a = 1; var b = 2; }")
	popCount := 0
	for _, inst := range code {
		if inst.Op == bytecode.OpPop {
			popCount++
		}
	}
	assert.Equal(t, 2, popCount)
}

func TestCompileClosureEmitsUpvalueDescriptors(t *testing.T) {
	fn, errs := Compile(`
		fun outer() {
			var x = 1;
			fun inner() {
				return x;
			}
			return inner;
		}
	`)
	require.Empty(t, errs)

	var outerFn *value.ObjFunction
	for _, c := range fn.Chunk.Constants {
		if f, ok := c.AsObj().(*value.ObjFunction); ok && f.Name == "outer" {
			outerFn = f
		}
	}
	require.NotNil(t, outerFn)

	var innerFn *value.ObjFunction
	for _, c := range outerFn.Chunk.Constants {
		if f, ok := c.AsObj().(*value.ObjFunction); ok && f.Name == "inner" {
			innerFn = f
		}
	}
	require.NotNil(t, innerFn)
	require.Len(t, innerFn.Upvalues, 1)
	assert.True(t, innerFn.Upvalues[0].IsLocal)
}

func TestCompileSelfReferentialInitializerIsAnError(t *testing.T) {
	_, errs := Compile(`{ var a = a; }`)
	require.NotEmpty(t, errs)
}

func TestCompileTopLevelReturnIsAnError(t *testing.T) {
	_, errs := Compile(`return 1;`)
	require.NotEmpty(t, errs)
}

func TestCompileClassWithMethodEmitsMethodOp(t *testing.T) {
	code := *compileOK(t, `
		class Greeter {
			greet() {
				print "hi";
			}
		}
	`)
	var ops []bytecode.OpCode
	for _, inst := range code {
		ops = append(ops, inst.Op)
	}
	assert.Contains(t, ops, bytecode.OpClass)
	assert.Contains(t, ops, bytecode.OpMethod)
}

func TestCompileInheritanceEmitsInheritOp(t *testing.T) {
	code := *compileOK(t, `
		class A {}
		class B < A {}
	`)
	var ops []bytecode.OpCode
	for _, inst := range code {
		ops = append(ops, inst.Op)
	}
	assert.Contains(t, ops, bytecode.OpInherit)
}

func TestCompileSuperOutsideClassIsAnError(t *testing.T) {
	_, errs := Compile(`
		fun f() {
			super.foo();
		}
	`)
	require.NotEmpty(t, errs)
}

func TestCompileForLoopDesugarsToJumpAndLoop(t *testing.T) {
	code := *compileOK(t, `
		for (var i = 0; i < 10; i = i + 1) {
			print i;
		}
	`)
	var ops []bytecode.OpCode
	for _, inst := range code {
		ops = append(ops, inst.Op)
	}
	assert.Contains(t, ops, bytecode.OpLoop)
	assert.Contains(t, ops, bytecode.OpJumpIfFalse)
}
