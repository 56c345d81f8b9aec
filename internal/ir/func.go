package ir

import (
	"crest/internal/source"
	"crest/internal/types"
)

// Formal is a declared parameter of a function.
//
// Default and TypeExpr are normalized blocks whose tail statement is an
// expression statement producing the value; the defaults stage splices them
// into wrapper bodies.
type Formal struct {
	ID       FormalID
	Owner    FuncID
	Name     string
	Type     types.TypeID
	Intent   Intent
	Flags    Flags
	Default  *Block
	TypeExpr *Block
	Span     source.Span
}

// HasDefault reports whether the formal may be omitted at a call site.
func (f *Formal) HasDefault() bool {
	return f.Default != nil
}

// Func is a function definition.
type Func struct {
	ID      FuncID
	Name    string
	CName   string
	Flags   Flags
	Formals []FormalID
	// This is the receiver: a formal for methods, a body-local var for
	// constructors (the constructor builds the object it returns).
	This    Ref
	RetType types.TypeID
	RetKind RetKind
	Throws  bool
	Body    *Block
	// Where guards generic instantiation (leader/follower tag dispatch).
	Where *Expr
	// InstantiationScope is the visibility block generic instantiation
	// starts from; wrappers record the call site's block here.
	InstantiationScope ScopeID
	Span               source.Span
}

// IsIterator reports whether the function yields rather than returns.
func (f *Func) IsIterator() bool {
	return f.Flags.Has(FlagIterator)
}

// IsResolved reports whether the function body has been resolved.
func (f *Func) IsResolved() bool {
	return f.Flags.Has(FlagResolved)
}

// NumFormals returns the declared formal count.
func (f *Func) NumFormals() int {
	return len(f.Formals)
}

// Var is a variable or compiler temporary. Literals are vars carrying an
// immediate payload.
type Var struct {
	ID    VarID
	Name  string
	Type  types.TypeID
	Flags Flags
	Imm   *Imm
	Span  source.Span
}

// IsImmediate reports whether the var is a literal constant.
func (v *Var) IsImmediate() bool {
	return v != nil && v.Imm != nil
}

// ImmKind tags the payload of a literal var.
type ImmKind uint8

const (
	ImmInt ImmKind = iota
	ImmReal
	ImmBool
	ImmString
)

// Imm is the constant payload of a literal var.
type Imm struct {
	Kind ImmKind
	Int  int64
	Real float64
	Bool bool
	Str  string
}

// Scope is a lexical visibility block. Wrappers record the call site's scope
// as their instantiation point.
type Scope struct {
	ID     ScopeID
	Parent ScopeID
	Owner  FuncID
}
