package ir

import (
	"crest/internal/source"
	"crest/internal/types"
)

// ExprKind enumerates IR expression kinds. The resolution passes operate on
// an already-normalized tree, so the surface is deliberately small.
type ExprKind uint8

const (
	// ExprVarRef references a variable or temporary.
	ExprVarRef ExprKind = iota
	// ExprFormalRef references a formal of the enclosing function.
	ExprFormalRef
	// ExprTypeRef references a type as a first-class value.
	ExprTypeRef
	// ExprUnresolved references a name resolved by a later sweep. Promotion
	// wrappers use these for loop index symbols.
	ExprUnresolved
	// ExprCall invokes a function, primitive or named runtime routine.
	ExprCall
	// ExprTuple groups expressions; zippered iterator lists are tuples.
	ExprTuple
)

func (k ExprKind) String() string {
	switch k {
	case ExprVarRef:
		return "VarRef"
	case ExprFormalRef:
		return "FormalRef"
	case ExprTypeRef:
		return "TypeRef"
	case ExprUnresolved:
		return "Unresolved"
	case ExprCall:
		return "Call"
	case ExprTuple:
		return "Tuple"
	}
	return "Unknown"
}

// Expr is an IR expression with deduced type information.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific payloads.
type ExprData interface {
	exprData()
}

// VarRefData references a module variable.
type VarRefData struct {
	Var VarID
}

// FormalRefData references a formal.
type FormalRefData struct {
	Formal FormalID
}

// TypeRefData carries a type used as a value (type expressions, casts).
type TypeRefData struct {
	Ref types.TypeID
}

// UnresolvedData carries a name to be fixed up against a later definition.
type UnresolvedData struct {
	Name string
}

// TupleData groups element expressions.
type TupleData struct {
	Elems []*Expr
}

// Prim enumerates compiler primitives that calls can target directly.
type Prim uint8

const (
	// PrimNone means the call targets a function or a named routine.
	PrimNone Prim = iota
	// PrimAddrOf takes the address of its operand.
	PrimAddrOf
	// PrimDeref loads through a reference.
	PrimDeref
	// PrimInitDefault produces the default value of a type.
	PrimInitDefault
	// PrimSetMember stores into a named field of an aggregate.
	PrimSetMember
	// PrimInitFields default-initializes every field of an aggregate.
	PrimInitFields
	// PrimCast converts the operand to the call's result type.
	PrimCast
	// PrimTypeof yields the static type of its operand.
	PrimTypeof
	// PrimIterRecFieldByFormal extracts the iterator-record field that
	// corresponds to a promoted formal.
	PrimIterRecFieldByFormal
)

func (p Prim) String() string {
	switch p {
	case PrimNone:
		return "none"
	case PrimAddrOf:
		return "addr-of"
	case PrimDeref:
		return "deref"
	case PrimInitDefault:
		return "init-default"
	case PrimSetMember:
		return "set-member"
	case PrimInitFields:
		return "init-fields"
	case PrimCast:
		return "cast"
	case PrimTypeof:
		return "typeof"
	case PrimIterRecFieldByFormal:
		return "iter-rec-field"
	}
	return "unknown"
}

// Callee designates a call target: a resolved function, a primitive, or a
// runtime routine referenced by name until resolution binds it.
type Callee struct {
	Fn   FuncID
	Prim Prim
	Name string
}

// CallData is the payload of ExprCall.
type CallData struct {
	Callee Callee
	Args   []*Expr
	// ArgNames holds the label of each named actual; "" for positional.
	// Nil when no actual is named.
	ArgNames []string
	// Field names the member for PrimSetMember.
	Field string
	// Square records bracketed call syntax at the original call site.
	Square bool
}

func (VarRefData) exprData()     {}
func (FormalRefData) exprData()  {}
func (TypeRefData) exprData()    {}
func (UnresolvedData) exprData() {}
func (TupleData) exprData()      {}
func (*CallData) exprData()      {}

// NewVarRef builds a reference to a variable with the given type.
func NewVarRef(v VarID, t types.TypeID, span source.Span) *Expr {
	return &Expr{Kind: ExprVarRef, Type: t, Span: span, Data: VarRefData{Var: v}}
}

// NewFormalRef builds a reference to a formal with the given type.
func NewFormalRef(f FormalID, t types.TypeID, span source.Span) *Expr {
	return &Expr{Kind: ExprFormalRef, Type: t, Span: span, Data: FormalRefData{Formal: f}}
}

// NewTypeRef builds a type-as-value expression.
func NewTypeRef(t types.TypeID, span source.Span) *Expr {
	return &Expr{Kind: ExprTypeRef, Type: t, Span: span, Data: TypeRefData{Ref: t}}
}

// NewUnresolved builds a symbolic name reference.
func NewUnresolved(name string, span source.Span) *Expr {
	return &Expr{Kind: ExprUnresolved, Span: span, Data: UnresolvedData{Name: name}}
}

// NewTuple groups the given expressions.
func NewTuple(span source.Span, elems ...*Expr) *Expr {
	return &Expr{Kind: ExprTuple, Span: span, Data: TupleData{Elems: elems}}
}

// NewCallFn builds a call to a resolved function.
func NewCallFn(fn FuncID, span source.Span, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Span: span, Data: &CallData{Callee: Callee{Fn: fn}, Args: args}}
}

// NewCallPrim builds a primitive call.
func NewCallPrim(p Prim, span source.Span, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Span: span, Data: &CallData{Callee: Callee{Prim: p}, Args: args}}
}

// NewCallNamed builds a call to a runtime routine by name.
func NewCallNamed(name string, span source.Span, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Span: span, Data: &CallData{Callee: Callee{Name: name}, Args: args}}
}

// AsCall returns the call payload, or nil when e is not a call.
func (e *Expr) AsCall() *CallData {
	if e == nil || e.Kind != ExprCall {
		return nil
	}
	data, ok := e.Data.(*CallData)
	if !ok {
		return nil
	}
	return data
}

// VarOf returns the referenced variable, or NoVarID.
func (e *Expr) VarOf() VarID {
	if e == nil || e.Kind != ExprVarRef {
		return NoVarID
	}
	if data, ok := e.Data.(VarRefData); ok {
		return data.Var
	}
	return NoVarID
}

// FormalOf returns the referenced formal, or NoFormalID.
func (e *Expr) FormalOf() FormalID {
	if e == nil || e.Kind != ExprFormalRef {
		return NoFormalID
	}
	if data, ok := e.Data.(FormalRefData); ok {
		return data.Formal
	}
	return NoFormalID
}
