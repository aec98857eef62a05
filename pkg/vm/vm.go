// Package vm implements the stack-based bytecode interpreter: a value
// stack, a call-frame stack, a global table, and an open-upvalue
// registry, executing the Chunks pkg/compiler emits.
package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kristofer/loxvm/internal/loxerr"
	"github.com/kristofer/loxvm/internal/loxlog"
	"github.com/kristofer/loxvm/internal/natives"
	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/compiler"
	"github.com/kristofer/loxvm/pkg/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// callFrame is one activation record: the closure being executed, its
// instruction pointer, and the base stack slot its locals start at
// (slot 0 of the frame is always the callee or, for methods, `this`).
type callFrame struct {
	closure *value.ObjClosure
	ip      int
	slots   int
}

// openUpvalue pairs a stack slot with the cell aliasing it. The VM keeps
// these sorted by descending slot, mirroring clox's linked list sorted
// top-of-stack-down, so closing upvalues at a scope exit is a single
// contiguous scan from the end.
type openUpvalue struct {
	slot int
	cell *value.ObjUpvalue
}

// VM executes compiled Lox bytecode. The value stack is a fixed-size
// array, not a growable slice: ObjUpvalue.Location points directly at a
// stack slot, and a slice reallocation on append would silently
// invalidate every open upvalue pointing into it.
type VM struct {
	stack    [stackMax]value.Value
	stackTop int

	frames     [framesMax]callFrame
	frameCount int

	globals      map[string]value.Value
	openUpvalues []openUpvalue

	startTime time.Time
	logger    *loxlog.Logger
	trace     bool

	stdout io.Writer
}

// SetOutput redirects the destination of Lox's `print` statement, used by
// tests to capture output without touching os.Stdout.
func (vm *VM) SetOutput(w io.Writer) { vm.stdout = w }

// New builds a VM with its native library installed. trace enables
// per-instruction execution logging through logger.
func New(logger *loxlog.Logger, trace bool) *VM {
	vm := &VM{
		globals:   make(map[string]value.Value),
		startTime: time.Now(),
		logger:    logger,
		trace:     trace,
		stdout:    os.Stdout,
	}
	natives.Install(func(name string, fn value.NativeFn) {
		vm.globals[name] = value.FromObj(&value.ObjNative{Name: name, Fn: fn})
	}, vm.startTime)
	return vm
}

// Interpret compiles and runs one source unit to completion. A compile
// failure never reaches the VM loop at all; a runtime failure unwinds
// with the call stack active at the fault.
func (vm *VM) Interpret(source string) error {
	fn, errs := compiler.Compile(source)
	if len(errs) > 0 {
		return loxerr.NewCompileErrors(errs)
	}
	return vm.interpretCompiled(fn)
}

// interpretCompiled runs an already-compiled function descriptor. Split
// out from Interpret so tests can drive the VM with a hand-built Chunk
// that bypasses the compiler's invariants entirely.
func (vm *VM) interpretCompiled(fn *value.ObjFunction) (err error) {
	// A correctly compiled chunk never pops more than it pushed; an
	// out-of-range stack access here means the compiler or VM has a bug,
	// not that the Lox program is malformed. Surface that distinctly
	// instead of letting the host process crash.
	defer func() {
		if r := recover(); r != nil {
			err = loxerr.NewEmptyStackError(fmt.Sprintf("%v", r))
		}
	}()

	closure := &value.ObjClosure{Function: fn}
	vm.push(value.FromObj(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	_, err = vm.run()
	return err
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// run is the main fetch-decode-execute loop. It returns the value left on
// top of the stack when the outermost frame returns (the script's
// implicit nil), or a *loxerr.RuntimeError.
func (vm *VM) run() (value.Value, error) {
	frame := &vm.frames[vm.frameCount-1]

	for {
		chunk := frame.closure.Function.Chunk
		inst := chunk.Code[frame.ip]
		if vm.trace && vm.logger != nil {
			rendered, _ := value.DisassembleInstruction(chunk, frame.ip)
			vm.logger.Trace(frame.ip, rendered)
		}
		frame.ip++

		switch inst.Op {
		case bytecode.OpConstant:
			vm.push(chunk.Constants[inst.A])

		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			vm.push(vm.stack[frame.slots+inst.A])
		case bytecode.OpSetLocal:
			vm.stack[frame.slots+inst.A] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := chunk.Constants[inst.A].AsString()
			v, ok := vm.globals[name]
			if !ok {
				return value.Nil, vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			name := chunk.Constants[inst.A].AsString()
			vm.globals[name] = vm.pop()
		case bytecode.OpSetGlobal:
			name := chunk.Constants[inst.A].AsString()
			if _, ok := vm.globals[name]; !ok {
				return value.Nil, vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)

		case bytecode.OpGetUpvalue:
			vm.push(*frame.closure.Upvalues[inst.A].Location)
		case bytecode.OpSetUpvalue:
			*frame.closure.Upvalues[inst.A].Location = vm.peek(0)

		case bytecode.OpGetProperty:
			instance, ok := vm.peek(0).AsObj().(*value.ObjInstance)
			if !ok {
				return value.Nil, vm.runtimeError("Only instances have properties.")
			}
			name := chunk.Constants[inst.A].AsString()
			if field, ok := instance.Fields[name]; ok {
				vm.pop()
				vm.push(field)
				break
			}
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return value.Nil, err
			}

		case bytecode.OpSetProperty:
			instance, ok := vm.peek(1).AsObj().(*value.ObjInstance)
			if !ok {
				return value.Nil, vm.runtimeError("Only instances have fields.")
			}
			name := chunk.Constants[inst.A].AsString()
			instance.Fields[name] = vm.peek(0)
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case bytecode.OpGetSuper:
			name := chunk.Constants[inst.A].AsString()
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.bindMethod(superclass, name); err != nil {
				return value.Nil, err
			}

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(a.Equal(b)))
		case bytecode.OpGreater:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return value.Nil, err
			}
		case bytecode.OpLess:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return value.Nil, err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return value.Nil, err
			}
		case bytecode.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return value.Nil, err
			}
		case bytecode.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return value.Nil, err
			}
		case bytecode.OpDivide:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return value.Nil, err
			}

		case bytecode.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return value.Nil, vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case bytecode.OpJump:
			frame.ip += inst.A
		case bytecode.OpJumpIfFalse:
			if vm.peek(0).IsFalsey() {
				frame.ip += inst.A
			}
		case bytecode.OpLoop:
			frame.ip -= inst.A

		case bytecode.OpCall:
			argCount := inst.A
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return value.Nil, err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpInvoke:
			name := chunk.Constants[inst.A].AsString()
			if err := vm.invoke(name, inst.B); err != nil {
				return value.Nil, err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpSuperInvoke:
			name := chunk.Constants[inst.A].AsString()
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.invokeFromClass(superclass, name, inst.B); err != nil {
				return value.Nil, err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClosure:
			fn := chunk.Constants[inst.A].AsObj().(*value.ObjFunction)
			closure := &value.ObjClosure{Function: fn, Upvalues: make([]*value.ObjUpvalue, len(fn.Upvalues))}
			for i, desc := range fn.Upvalues {
				if desc.IsLocal {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + desc.Index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[desc.Index]
				}
			}
			vm.push(value.FromObj(closure))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return result, nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClass:
			name := chunk.Constants[inst.A].AsString()
			vm.push(value.FromObj(value.NewClass(name)))

		case bytecode.OpInherit:
			superclass, ok := vm.peek(1).AsObj().(*value.ObjClass)
			if !ok {
				return value.Nil, vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsObj().(*value.ObjClass)
			for name, method := range superclass.Methods {
				subclass.Methods[name] = method
			}
			vm.pop()

		case bytecode.OpMethod:
			name := chunk.Constants[inst.A].AsString()
			method := vm.pop().AsObj().(*value.ObjClosure)
			class := vm.peek(0).AsObj().(*value.ObjClass)
			class.Methods[name] = method

		default:
			return value.Nil, vm.runtimeError("Unknown opcode %s.", inst.Op)
		}
	}
}

func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		vm.push(value.FromObj(&value.ObjString{Chars: a.AsString() + b.AsString()}))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) numericBinary(op func(a, b float64) value.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return nil
}

// callValue dispatches a call to whatever kind of callable sits on the
// stack: a Closure runs; a NativeCallable runs immediately; a Class
// constructs an instance (routing to `init` if defined); a BoundMethod
// rebinds its receiver into the call window and runs the underlying
// closure.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *value.ObjClosure:
			return vm.call(obj, argCount)
		case *value.ObjNative:
			args := make([]value.Value, argCount)
			copy(args, vm.stack[vm.stackTop-argCount:vm.stackTop])
			result, err := obj.Fn(args)
			if err != nil {
				return loxerr.WrapNativeError(err, vm.buildTrace(), obj.Name)
			}
			vm.stackTop -= argCount + 1
			vm.push(result)
			return nil
		case *value.ObjClass:
			instance := value.NewInstance(obj)
			vm.stack[vm.stackTop-argCount-1] = value.FromObj(instance)
			if initializer, ok := obj.Methods["init"]; ok {
				return vm.call(initializer, argCount)
			}
			if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case *value.ObjBoundMethod:
			vm.stack[vm.stackTop-argCount-1] = obj.Receiver
			return vm.call(obj.Method, argCount)
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) call(closure *value.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames[vm.frameCount] = callFrame{
		closure: closure,
		ip:      0,
		slots:   vm.stackTop - argCount - 1,
	}
	vm.frameCount++
	return nil
}

// invoke implements a fused get-property-then-call: if the receiver has
// a field by that name, the field's value is called (fields shadow
// methods, per the standard resolution of this ambiguity); otherwise the
// class's method table is consulted.
func (vm *VM) invoke(name string, argCount int) error {
	receiver := vm.peek(argCount)
	instance, ok := receiver.AsObj().(*value.ObjInstance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}
	if field, ok := instance.Fields[name]; ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *value.ObjClass, name string, argCount int) error {
	method, ok := class.Methods[name]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	return vm.call(method, argCount)
}

func (vm *VM) bindMethod(class *value.ObjClass, name string) error {
	method, ok := class.Methods[name]
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	bound := &value.ObjBoundMethod{Receiver: vm.peek(0), Method: method}
	vm.pop()
	vm.push(value.FromObj(bound))
	return nil
}

// captureUpvalue returns the open cell for slot, reusing one already
// registered by an earlier closure over the same local, or creating one
// that aliases the live stack slot.
func (vm *VM) captureUpvalue(slot int) *value.ObjUpvalue {
	insertAt := len(vm.openUpvalues)
	for i, u := range vm.openUpvalues {
		if u.slot == slot {
			return u.cell
		}
		if u.slot < slot {
			insertAt = i
			break
		}
	}
	cell := &value.ObjUpvalue{Location: &vm.stack[slot]}
	vm.openUpvalues = append(vm.openUpvalues, openUpvalue{})
	copy(vm.openUpvalues[insertAt+1:], vm.openUpvalues[insertAt:])
	vm.openUpvalues[insertAt] = openUpvalue{slot: slot, cell: cell}
	return cell
}

// closeUpvalues migrates every open upvalue at or above last from
// aliasing the stack to owning a private copy, then drops them from the
// registry — they're closed, so the VM no longer tracks them.
func (vm *VM) closeUpvalues(last int) {
	i := 0
	for i < len(vm.openUpvalues) && vm.openUpvalues[i].slot >= last {
		vm.openUpvalues[i].cell.Close()
		i++
	}
	vm.openUpvalues = vm.openUpvalues[i:]
}

// buildTrace renders the active call stack innermost-frame-first, for
// attachment to a runtime fault.
func (vm *VM) buildTrace() []loxerr.Frame {
	trace := make([]loxerr.Frame, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := vm.frames[i]
		line := 0
		if f.ip-1 >= 0 && f.ip-1 < len(f.closure.Function.Chunk.Lines) {
			line = f.closure.Function.Chunk.Lines[f.ip-1]
		}
		trace = append(trace, loxerr.Frame{FunctionName: f.closure.Function.Name, Line: line})
	}
	return trace
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	return loxerr.NewRuntimeError(vm.buildTrace(), format, args...)
}

