package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/loxvm/internal/loxerr"
	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) string {
	t.Helper()
	machine := New(nil, false)
	var out bytes.Buffer
	machine.SetOutput(&out)
	err := machine.Interpret(source)
	require.NoError(t, err, "source:\n%s", source)
	return out.String()
}

func runErr(t *testing.T, source string) error {
	t.Helper()
	machine := New(nil, false)
	var out bytes.Buffer
	machine.SetOutput(&out)
	return machine.Interpret(source)
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestArithmeticPrecedence(t *testing.T) {
	out := run(t, `print 1 + 2 * 3 - 4 / 2;`)
	assert.Equal(t, []string{"5"}, lines(out))
}

func TestBlockScopingAndShadowing(t *testing.T) {
	out := run(t, `
		var a = "outer";
		{
			var a = "inner";
			print a;
		}
		print a;
	`)
	assert.Equal(t, []string{"inner", "outer"}, lines(out))
}

func TestForLoopAccumulates(t *testing.T) {
	out := run(t, `
		var sum = 0;
		for (var i = 1; i <= 5; i = i + 1) {
			sum = sum + i;
		}
		print sum;
	`)
	assert.Equal(t, []string{"15"}, lines(out))
}

func TestRecursiveFibonacci(t *testing.T) {
	out := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	assert.Equal(t, []string{"55"}, lines(out))
}

func TestClosuresCaptureByReference(t *testing.T) {
	out := run(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	assert.Equal(t, []string{"1", "2", "3"}, lines(out))
}

func TestClassInitAndMethod(t *testing.T) {
	out := run(t, `
		class Counter {
			init(start) {
				this.value = start;
			}
			increment() {
				this.value = this.value + 1;
				return this.value;
			}
		}
		var c = Counter(10);
		print c.increment();
		print c.increment();
	`)
	assert.Equal(t, []string{"11", "12"}, lines(out))
}

func TestSingleInheritanceWithSuper(t *testing.T) {
	out := run(t, `
		class Animal {
			speak() {
				print "...";
			}
			describe() {
				print "an animal that says:";
				this.speak();
			}
		}
		class Dog < Animal {
			speak() {
				print "Woof";
			}
			describe() {
				super.describe();
				print "(a dog)";
			}
		}
		Dog().describe();
	`)
	assert.Equal(t, []string{"an animal that says:", "Woof", "(a dog)"}, lines(out))
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	err := runErr(t, `
		var x = 1;
		x();
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can only call functions and classes.")
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	err := runErr(t, `print nope;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'nope'.")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	err := runErr(t, `
		fun f(a, b) { return a + b; }
		f(1);
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 2 arguments but got 1.")
}

func TestFieldShadowsMethodOnInvoke(t *testing.T) {
	out := run(t, `
		class Box {
			call() {
				print "method";
			}
		}
		fun asField() {
			print "field";
		}
		var b = Box();
		b.call();
		b.call = asField;
		b.call();
	`)
	assert.Equal(t, []string{"method", "field"}, lines(out))
}

func TestStringConcatenation(t *testing.T) {
	out := run(t, `print "foo" + "bar";`)
	assert.Equal(t, []string{"foobar"}, lines(out))
}

// TestMalformedChunkUnderflowIsRecovered constructs a chunk no real
// compilation could produce (an OP_POP that removes the script closure
// from slot 0, so the following OP_RETURN pops an empty stack) to confirm
// the VM's boundary recover() converts the resulting panic into a
// distinct internal error instead of crashing the process.
func TestMalformedChunkUnderflowIsRecovered(t *testing.T) {
	chunk := value.NewChunk()
	chunk.Write(bytecode.OpPop, 0, 0, 1)
	chunk.Write(bytecode.OpReturn, 0, 0, 1)
	fn := &value.ObjFunction{Chunk: chunk}

	machine := New(nil, false)
	var out bytes.Buffer
	machine.SetOutput(&out)

	err := machine.interpretCompiled(fn)
	require.Error(t, err)
	var stackErr *loxerr.EmptyStackError
	assert.ErrorAs(t, err, &stackErr)
}

func TestFalsinessIsStandardLox(t *testing.T) {
	out := run(t, `
		if (!nil) print "nil is falsey";
		if (!false) print "false is falsey";
		if (0) print "zero is truthy";
		if ("") print "empty string is truthy";
	`)
	assert.Equal(t, []string{"nil is falsey", "false is falsey", "zero is truthy", "empty string is truthy"}, lines(out))
}
