package value

import (
	"fmt"
)

// ObjType discriminates the cases of Obj.
type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeNative
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "string"
	case ObjTypeFunction:
		return "function"
	case ObjTypeClosure:
		return "function"
	case ObjTypeUpvalue:
		return "upvalue"
	case ObjTypeNative:
		return "native function"
	case ObjTypeClass:
		return "class"
	case ObjTypeInstance:
		return "instance"
	case ObjTypeBoundMethod:
		return "method"
	}
	return "object"
}

// Obj is satisfied by every heap-allocated Lox object kind. Dispatch is by
// type switch or map probe — there is no vtable.
type Obj interface {
	ObjType() ObjType
	String() string
}

// ObjString is immutable, UTF-8 text. Two ObjStrings compare equal by
// content (Value.Equal), not by identity.
type ObjString struct {
	Chars string
}

func (s *ObjString) ObjType() ObjType { return ObjTypeString }
func (s *ObjString) String() string   { return s.Chars }

// UpvalueDescriptor is a compile-time record of how a closure should
// capture one free variable: either by aliasing a local slot in the
// immediately enclosing function (IsLocal), or by re-exporting an upvalue
// already captured by that enclosing function (propagated outward).
type UpvalueDescriptor struct {
	Index   int
	IsLocal bool
}

// ObjFunction is a compiled function: its name, parameter arity, the
// Chunk the compiler emitted for its body, and the UpvalueDescriptors the
// compiler computed for the free variables it closes over. Immutable
// after the compiler finishes emitting it; may be shared by many Closures.
type ObjFunction struct {
	Name     string
	Arity    int
	Chunk    *Chunk
	Upvalues []UpvalueDescriptor
}

func (f *ObjFunction) ObjType() ObjType { return ObjTypeFunction }
func (f *ObjFunction) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// ObjUpvalue is a capture cell. While open, Location aliases a live stack
// slot; Close copies the current contents into Closed and repoints
// Location at that owned copy, so every Closure sharing this cell
// observes the transition without further coordination.
type ObjUpvalue struct {
	Location *Value
	Closed   Value
}

func (u *ObjUpvalue) ObjType() ObjType { return ObjTypeUpvalue }
func (u *ObjUpvalue) String() string   { return "upvalue" }

// Close migrates the cell from aliasing the stack to owning its value.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a FunctionDescriptor with the upvalue cells it
// captured at creation time. Closures, not bare functions, are what the
// VM calls.
type ObjClosure struct {
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) ObjType() ObjType { return ObjTypeClosure }
func (c *ObjClosure) String() string   { return c.Function.String() }

// NativeFn is the host-callable signature a native function implements.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a host-supplied Go function so it can be installed as a
// global Lox value and invoked through the same Call opcode as closures.
type ObjNative struct {
	Name string
	Fn   NativeFn
}

func (n *ObjNative) ObjType() ObjType { return ObjTypeNative }
func (n *ObjNative) String() string   { return fmt.Sprintf("<native fn %s>", n.Name) }

// ObjClass is a class: a name plus its own method table (method name ->
// Closure). Inheritance copies the superclass's methods into the
// subclass's table at the moment OpInherit runs; there is no runtime
// superclass chain to walk afterward except via explicit `super` opcodes.
type ObjClass struct {
	Name    string
	Methods map[string]*ObjClosure
}

func NewClass(name string) *ObjClass {
	return &ObjClass{Name: name, Methods: make(map[string]*ObjClosure)}
}

func (c *ObjClass) ObjType() ObjType { return ObjTypeClass }
func (c *ObjClass) String() string   { return c.Name }

// ObjInstance is a mutable bag of fields backed by a Class.
type ObjInstance struct {
	Class  *ObjClass
	Fields map[string]Value
}

func NewInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Class: class, Fields: make(map[string]Value)}
}

func (i *ObjInstance) ObjType() ObjType { return ObjTypeInstance }
func (i *ObjInstance) String() string   { return fmt.Sprintf("<%s instance>", i.Class.Name) }

// ObjBoundMethod pairs a receiver with one of its class's closures,
// materialized when `obj.method` is evaluated without being immediately
// called (OP_GET_PROPERTY binds; OP_INVOKE skips this allocation).
type ObjBoundMethod struct {
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) ObjType() ObjType { return ObjTypeBoundMethod }
func (b *ObjBoundMethod) String() string   { return b.Method.String() }
