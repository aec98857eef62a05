// Package compiler implements Lox's single-pass Pratt compiler: scanning,
// parsing, variable/upvalue resolution, and bytecode emission all happen
// in one traversal over the token stream. No separate AST is built — each
// parse function emits directly into the Chunk of the function currently
// being compiled.
package compiler

import (
	"strconv"

	"github.com/kristofer/loxvm/internal/loxerr"
	"github.com/kristofer/loxvm/pkg/bytecode"
	"github.com/kristofer/loxvm/pkg/lexer"
	"github.com/kristofer/loxvm/pkg/value"
)

// CompileError is one diagnostic produced while compiling. Multiple
// errors may accumulate in a single compilation; panic mode suppresses
// cascades between them. It is the type loxerr.CompileError.
type CompileError = loxerr.CompileError

// functionType distinguishes the four contexts a FunctionDescriptor can
// be compiled for; Script is the implicit top-level function wrapping an
// entire compilation unit.
type functionType int

const (
	typeScript functionType = iota
	typeFunction
	typeMethod
	typeInitializer
)

// local is a compile-time record of one declared name: its depth (-1
// while its own initializer is being compiled, so a self-reference like
// `var a = a;` can be caught), and whether a nested function captured it
// as an upvalue.
type local struct {
	name       lexer.Token
	depth      int
	isCaptured bool
}

// upvalueRef is the compile-time twin of value.UpvalueDescriptor, scoped
// to one functionScope while it's being resolved.
type upvalueRef struct {
	index   int
	isLocal bool
}

// functionScope holds all compiler state private to the function
// currently being compiled: its FunctionDescriptor-in-progress, its
// lexical locals, its resolved upvalues, and a link to the enclosing
// function so upvalue resolution can walk outward.
type functionScope struct {
	enclosing *functionScope
	function  *value.ObjFunction
	fnType    functionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// classScope tracks whether the class currently being compiled has a
// superclass, so `super` references outside any inheriting class are
// compile errors.
type classScope struct {
	enclosing     *classScope
	hasSuperclass bool
}

// Compiler drives the lexer through a two-token window (previous/current)
// and emits bytecode as it parses — there is no intermediate tree.
type Compiler struct {
	lex *lexer.Lexer

	previous lexer.Token
	current  lexer.Token

	hadError  bool
	panicMode bool
	errors    []error

	scope *functionScope // the function currently being compiled
	class *classScope
}

// Compile compiles source into a root FunctionDescriptor representing the
// top-level script. On success it returns the function and a nil error
// slice; otherwise it returns nil and the full list of compile errors.
func Compile(source string) (*value.ObjFunction, []error) {
	c := &Compiler{lex: lexer.New(source)}
	c.scope = &functionScope{
		function:   &value.ObjFunction{Chunk: value.NewChunk()},
		fnType:     typeScript,
		scopeDepth: 0,
	}
	// Slot 0 is reserved for the callee/receiver.
	c.scope.locals = append(c.scope.locals, local{name: lexer.Token{Lexeme: ""}, depth: 0})

	c.advance()
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}

	fn := c.endFunction()
	if c.hadError {
		return nil, c.errors
	}
	return fn, nil
}

// ---- token stream -------------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t lexer.TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t lexer.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t lexer.TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// ---- error reporting / panic mode ---------------------------------------

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok lexer.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errors = append(c.errors, &CompileError{Line: tok.Line, Message: message})
}

// synchronize skips tokens until it reaches a likely statement boundary,
// ending the cascade of spurious errors panic mode triggered.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != lexer.TokenEOF {
		if c.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch c.current.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		c.advance()
	}
}

// ---- emission -------------------------------------------------------------

func (c *Compiler) chunk() *value.Chunk { return c.scope.function.Chunk }

func (c *Compiler) emit(op bytecode.OpCode, a, b int) int {
	return c.chunk().Write(op, a, b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.OpCode) int { return c.emit(op, 0, 0) }

func (c *Compiler) emitJump(op bytecode.OpCode) int {
	return c.emit(op, 0, 0)
}

func (c *Compiler) patchJump(offset int) {
	jump := c.chunk().Len() - offset - 1
	c.chunk().Code[offset].A = jump
}

func (c *Compiler) emitLoop(loopStart int) {
	offset := c.chunk().Len() - loopStart + 1
	c.emit(bytecode.OpLoop, offset, 0)
}

func (c *Compiler) emitReturn() {
	if c.scope.fnType == typeInitializer {
		c.emit(bytecode.OpGetLocal, 0, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) makeConstant(v value.Value) int {
	return c.chunk().AddConstant(v)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emit(bytecode.OpConstant, c.makeConstant(v), 0)
}

func (c *Compiler) identifierConstant(name lexer.Token) int {
	return c.makeConstant(value.FromObj(&value.ObjString{Chars: name.Lexeme}))
}

func identifiersEqual(a, b lexer.Token) bool {
	return a.Lexeme == b.Lexeme
}

// endFunction closes out the function currently being compiled, emits its
// implicit trailing return, and pops back to the enclosing functionScope
// (nil at the top-level script).
func (c *Compiler) endFunction() *value.ObjFunction {
	c.emitReturn()
	fn := c.scope.function
	c.scope = c.scope.enclosing
	return fn
}

// ---- scopes ---------------------------------------------------------------

func (c *Compiler) beginScope() { c.scope.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scope.scopeDepth--
	fs := c.scope
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		if fs.locals[len(fs.locals)-1].isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

// ---- variables --------------------------------------------------------------

func (c *Compiler) addLocal(name lexer.Token) {
	if len(c.scope.locals) >= 256 {
		c.error("Too many local variables in function.")
		return
	}
	c.scope.locals = append(c.scope.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable() {
	if c.scope.scopeDepth == 0 {
		return
	}
	name := c.previous
	fs := c.scope
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(errorMessage string) int {
	c.consume(lexer.TokenIdentifier, errorMessage)
	c.declareVariable()
	if c.scope.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) markInitialized() {
	if c.scope.scopeDepth == 0 {
		return
	}
	c.scope.locals[len(c.scope.locals)-1].depth = c.scope.scopeDepth
}

func (c *Compiler) defineVariable(global int) {
	if c.scope.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emit(bytecode.OpDefineGlobal, global, 0)
}

func (c *Compiler) resolveLocal(fs *functionScope, name lexer.Token) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if identifiersEqual(name, l.name) {
			if l.depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue walks enclosing functionScopes outward. Finding the name
// as a local in the immediately enclosing scope is the terminal case
// (mark it captured, register a local-aliasing descriptor); finding it as
// an already registered upvalue there is a reuse; otherwise recurse
// outward, and on success register a non-local descriptor at every level
// in between.
func (c *Compiler) resolveUpvalue(fs *functionScope, name lexer.Token) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fs, local, true)
	}
	if up := c.resolveUpvalue(fs.enclosing, name); up != -1 {
		return c.addUpvalue(fs, up, false)
	}
	return -1
}

// addUpvalue deduplicates by (index, isLocal) within fs, keeping a
// Closure's upvalue vector exactly as long as its function's
// UpvalueDescriptors.
func (c *Compiler) addUpvalue(fs *functionScope, index int, isLocal bool) int {
	for i, up := range fs.upvalues {
		if up.index == index && up.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= 256 {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.function.Upvalues = append(fs.function.Upvalues, value.UpvalueDescriptor{Index: index, IsLocal: isLocal})
	return len(fs.upvalues) - 1
}

func (c *Compiler) namedVariable(name lexer.Token, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	arg := c.resolveLocal(c.scope, name)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = c.resolveUpvalue(c.scope, name); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.expression()
		c.emit(setOp, arg, 0)
	} else {
		c.emit(getOp, arg, 0)
	}
}

// ---- declarations & statements ---------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(lexer.TokenClass):
		c.classDeclaration()
	case c.match(lexer.TokenFun):
		c.funDeclaration()
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(lexer.TokenIdentifier, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok)
	c.declareVariable()

	c.emit(bytecode.OpClass, nameConstant, 0)
	c.defineVariable(nameConstant)

	cs := &classScope{enclosing: c.class}
	c.class = cs

	if c.match(lexer.TokenLess) {
		c.consume(lexer.TokenIdentifier, "Expect superclass name.")
		c.variable(false)
		if identifiersEqual(nameTok, c.previous) {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(syntheticToken("super"))
		c.defineVariable(0)

		c.namedVariable(nameTok, false)
		c.emitOp(bytecode.OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(nameTok, false)
	c.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.method()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	c.emitOp(bytecode.OpPop) // the class itself, pushed above for OpMethod to find

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(lexer.TokenIdentifier, "Expect method name.")
	nameTok := c.previous
	constant := c.identifierConstant(nameTok)

	fnType := typeMethod
	if nameTok.Lexeme == "init" {
		fnType = typeInitializer
	}
	c.function(fnType)
	c.emit(bytecode.OpMethod, constant, 0)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

func (c *Compiler) function(fnType functionType) {
	fn := &value.ObjFunction{Name: c.previous.Lexeme, Chunk: value.NewChunk()}
	fs := &functionScope{enclosing: c.scope, function: fn, fnType: fnType}
	if fnType != typeFunction {
		fs.locals = append(fs.locals, local{name: syntheticToken("this"), depth: 0})
	} else {
		fs.locals = append(fs.locals, local{name: lexer.Token{Lexeme: ""}, depth: 0})
	}
	c.scope = fs

	c.beginScope()
	c.consume(lexer.TokenLeftParen, "Expect '(' after function name.")
	if !c.check(lexer.TokenRightParen) {
		for {
			fs.function.Arity++
			if fs.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after parameters.")
	c.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
	c.block()

	compiled := c.endFunction()
	idx := c.makeConstant(value.FromObj(compiled))
	c.emit(bytecode.OpClosure, idx, 0)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokenPrint):
		c.printStatement()
	case c.match(lexer.TokenFor):
		c.forStatement()
	case c.match(lexer.TokenIf):
		c.ifStatement()
	case c.match(lexer.TokenReturn):
		c.returnStatement()
	case c.match(lexer.TokenWhile):
		c.whileStatement()
	case c.match(lexer.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) returnStatement() {
	if c.scope.fnType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(lexer.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.scope.fnType == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(lexer.TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk().Len()
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'for'.")
	switch {
	case c.match(lexer.TokenSemicolon):
		// no initializer
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().Len()
	exitJump := -1
	if !c.match(lexer.TokenSemicolon) {
		c.expression()
		c.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.match(lexer.TokenRightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := c.chunk().Len()
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.endScope()
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

// ---- Pratt expression parsing -----------------------------------------------

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:    {(*Compiler).grouping, (*Compiler).call, precCall},
		lexer.TokenDot:          {nil, (*Compiler).dot, precCall},
		lexer.TokenMinus:        {(*Compiler).unary, (*Compiler).binary, precTerm},
		lexer.TokenPlus:         {nil, (*Compiler).binary, precTerm},
		lexer.TokenSlash:        {nil, (*Compiler).binary, precFactor},
		lexer.TokenStar:         {nil, (*Compiler).binary, precFactor},
		lexer.TokenBang:         {(*Compiler).unary, nil, precNone},
		lexer.TokenBangEqual:    {nil, (*Compiler).binary, precEquality},
		lexer.TokenEqualEqual:   {nil, (*Compiler).binary, precEquality},
		lexer.TokenGreater:      {nil, (*Compiler).binary, precComparison},
		lexer.TokenGreaterEqual: {nil, (*Compiler).binary, precComparison},
		lexer.TokenLess:         {nil, (*Compiler).binary, precComparison},
		lexer.TokenLessEqual:    {nil, (*Compiler).binary, precComparison},
		lexer.TokenIdentifier:   {(*Compiler).variable, nil, precNone},
		lexer.TokenString:       {(*Compiler).string_, nil, precNone},
		lexer.TokenNumber:       {(*Compiler).number, nil, precNone},
		lexer.TokenAnd:          {nil, (*Compiler).and_, precAnd},
		lexer.TokenOr:           {nil, (*Compiler).or_, precOr},
		lexer.TokenFalse:        {(*Compiler).literal, nil, precNone},
		lexer.TokenTrue:         {(*Compiler).literal, nil, precNone},
		lexer.TokenNil:          {(*Compiler).literal, nil, precNone},
		lexer.TokenThis:         {(*Compiler).this_, nil, precNone},
		lexer.TokenSuper:        {(*Compiler).super_, nil, precNone},
	}
}

func (c *Compiler) getRule(t lexer.TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{precedence: precNone}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := c.getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= c.getRule(c.current.Type).precedence {
		c.advance()
		infix := c.getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string_(canAssign bool) {
	raw := c.previous.Lexeme
	text := unescapeString(raw[1 : len(raw)-1])
	c.emitConstant(value.FromObj(&value.ObjString{Chars: text}))
}

// unescapeString processes the one escape Lox string literals recognize:
// \n -> newline. Everything else passes through unchanged.
func unescapeString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'n' {
			out = append(out, '\n')
			i++
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case lexer.TokenFalse:
		c.emitOp(bytecode.OpFalse)
	case lexer.TokenTrue:
		c.emitOp(bytecode.OpTrue)
	case lexer.TokenNil:
		c.emitOp(bytecode.OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case lexer.TokenBang:
		c.emitOp(bytecode.OpNot)
	case lexer.TokenMinus:
		c.emitOp(bytecode.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := c.getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.TokenBangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case lexer.TokenEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case lexer.TokenGreater:
		c.emitOp(bytecode.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case lexer.TokenLess:
		c.emitOp(bytecode.OpLess)
	case lexer.TokenLessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case lexer.TokenPlus:
		c.emitOp(bytecode.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(bytecode.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(bytecode.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(bytecode.OpDivide)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emit(bytecode.OpCall, argCount, 0)
}

func (c *Compiler) argumentList() int {
	argCount := 0
	if !c.check(lexer.TokenRightParen) {
		for {
			c.expression()
			if argCount == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return argCount
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(lexer.TokenEqual):
		c.expression()
		c.emit(bytecode.OpSetProperty, name, 0)
	case c.match(lexer.TokenLeftParen):
		argCount := c.argumentList()
		c.emit(bytecode.OpInvoke, name, argCount)
	default:
		c.emit(bytecode.OpGetProperty, name, 0)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(lexer.TokenDot, "Expect '.' after 'super'.")
	c.consume(lexer.TokenIdentifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(syntheticToken("this"), false)
	if c.match(lexer.TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super"), false)
		c.emit(bytecode.OpSuperInvoke, name, argCount)
	} else {
		c.namedVariable(syntheticToken("super"), false)
		c.emit(bytecode.OpGetSuper, name, 0)
	}
}

func syntheticToken(text string) lexer.Token {
	return lexer.Token{Type: lexer.TokenIdentifier, Lexeme: text, Line: 0}
}
