package ir

import (
	"fmt"

	"fortio.org/safecast"

	"crest/internal/source"
	"crest/internal/types"
)

// Globals bundles the distinguished symbols every module carries.
type Globals struct {
	// MethodToken is the hidden marker actual of method calls.
	MethodToken VarID
	// LeaderTag and FollowerTag drive parallel-iterator dispatch.
	LeaderTag   VarID
	FollowerTag VarID
	// False is the canonical false literal.
	False VarID
	// TypeDefault is the "use the type's default" sentinel value.
	TypeDefault VarID
	// ProgramScope is the root visibility block.
	ProgramScope ScopeID
}

// Module owns the program IR: functions, formals, variables and scopes live
// in slice arenas addressed by typed IDs. The wrapper pass creates nodes but
// never destroys existing ones.
type Module struct {
	Files *source.FileSet
	Types *types.Interner

	funcs   []*Func
	formals []*Formal
	vars    []*Var
	scopes  []*Scope

	// Defs is the program-order list of function definitions. Wrappers are
	// inserted next to their origin so later passes see them together.
	Defs []FuncID

	// ParamMap binds formals to their compile-time values, established by
	// overload resolution before this pass runs.
	ParamMap map[FormalID]VarID

	Globals Globals
}

// NewModule constructs an empty module with its distinguished globals.
func NewModule(files *source.FileSet, interner *types.Interner) *Module {
	m := NewBareModule(files, interner)
	bt := interner.Builtins()
	m.Globals.ProgramScope = m.NewScope(NoScopeID, NoFuncID)
	m.Globals.MethodToken = m.NewVar("_mt", bt.MethodToken, source.Span{})
	m.Globals.LeaderTag = m.NewVar("iterKindLeader", bt.IterTag, source.Span{})
	m.Globals.FollowerTag = m.NewVar("iterKindFollower", bt.IterTag, source.Span{})
	m.Globals.False = m.NewBoolLit(false, source.Span{})
	m.Globals.TypeDefault = m.NewVar("_typeDefault", bt.TypeDefaultToken, source.Span{})
	return m
}

// NewBareModule constructs a module without its distinguished globals; the
// snapshot decoder replays them from the encoded arenas.
func NewBareModule(files *source.FileSet, interner *types.Interner) *Module {
	m := &Module{
		Files:    files,
		Types:    interner,
		funcs:    make([]*Func, 1, 64), // index 0 reserved for NoFuncID
		formals:  make([]*Formal, 1, 256),
		vars:     make([]*Var, 1, 256),
		scopes:   make([]*Scope, 1, 32),
		ParamMap: make(map[FormalID]VarID),
	}
	return m
}

// NewFunc allocates a function and appends it to the program definitions.
func (m *Module) NewFunc(name string, span source.Span) FuncID {
	id := FuncID(m.nextIndex(len(m.funcs), "func"))
	fn := &Func{ID: id, Name: name, CName: name, Span: span, Body: NewBlock(span)}
	m.funcs = append(m.funcs, fn)
	m.Defs = append(m.Defs, id)
	return id
}

// NewFuncDetached allocates a function without adding it to the program
// definitions; the caller decides its insertion point.
func (m *Module) NewFuncDetached(name string, span source.Span) FuncID {
	id := FuncID(m.nextIndex(len(m.funcs), "func"))
	fn := &Func{ID: id, Name: name, CName: name, Span: span, Body: NewBlock(span)}
	m.funcs = append(m.funcs, fn)
	return id
}

// Func returns the function for id, or nil.
func (m *Module) Func(id FuncID) *Func {
	if !id.IsValid() || int(id) >= len(m.funcs) {
		return nil
	}
	return m.funcs[id]
}

// InsertFuncBefore places id immediately before anchor in program order.
func (m *Module) InsertFuncBefore(anchor, id FuncID) {
	for i, def := range m.Defs {
		if def == anchor {
			m.Defs = append(m.Defs, NoFuncID)
			copy(m.Defs[i+1:], m.Defs[i:])
			m.Defs[i] = id
			return
		}
	}
	m.Defs = append(m.Defs, id)
}

// InsertFuncAfter places id immediately after anchor in program order.
func (m *Module) InsertFuncAfter(anchor, id FuncID) {
	for i, def := range m.Defs {
		if def == anchor {
			m.Defs = append(m.Defs, NoFuncID)
			copy(m.Defs[i+2:], m.Defs[i+1:])
			m.Defs[i+1] = id
			return
		}
	}
	m.Defs = append(m.Defs, id)
}

// AppendFunc places id at the program tail (global scope definitions).
func (m *Module) AppendFunc(id FuncID) {
	m.Defs = append(m.Defs, id)
}

// NewFormal allocates a formal on fn and appends it to fn's formal list.
func (m *Module) NewFormal(fn FuncID, name string, t types.TypeID, intent Intent, span source.Span) FormalID {
	id := FormalID(m.nextIndex(len(m.formals), "formal"))
	m.formals = append(m.formals, &Formal{ID: id, Owner: fn, Name: name, Type: t, Intent: intent, Span: span})
	if owner := m.Func(fn); owner != nil {
		owner.Formals = append(owner.Formals, id)
	}
	return id
}

// NewFormalDetached allocates a formal not yet attached to a function.
func (m *Module) NewFormalDetached(name string, t types.TypeID, intent Intent, span source.Span) FormalID {
	id := FormalID(m.nextIndex(len(m.formals), "formal"))
	m.formals = append(m.formals, &Formal{ID: id, Name: name, Type: t, Intent: intent, Span: span})
	return id
}

// AttachFormal appends an already-allocated formal at the tail of fn's
// formal list.
func (m *Module) AttachFormal(fn FuncID, formal FormalID) {
	if f := m.Formal(formal); f != nil {
		f.Owner = fn
	}
	if owner := m.Func(fn); owner != nil {
		owner.Formals = append(owner.Formals, formal)
	}
}

// Formal returns the formal for id, or nil.
func (m *Module) Formal(id FormalID) *Formal {
	if !id.IsValid() || int(id) >= len(m.formals) {
		return nil
	}
	return m.formals[id]
}

// NewVar allocates a named variable.
func (m *Module) NewVar(name string, t types.TypeID, span source.Span) VarID {
	id := VarID(m.nextIndex(len(m.vars), "var"))
	m.vars = append(m.vars, &Var{ID: id, Name: name, Type: t, Span: span})
	return id
}

// NewTemp allocates a compiler temporary.
func (m *Module) NewTemp(name string, t types.TypeID, span source.Span) VarID {
	id := m.NewVar(name, t, span)
	m.Var(id).Flags = m.Var(id).Flags.With(FlagCompilerGenerated)
	return id
}

// Var returns the variable for id, or nil.
func (m *Module) Var(id VarID) *Var {
	if !id.IsValid() || int(id) >= len(m.vars) {
		return nil
	}
	return m.vars[id]
}

// NewIntLit allocates an integer literal.
func (m *Module) NewIntLit(v int64, span source.Span) VarID {
	id := m.NewVar(fmt.Sprintf("%d", v), m.Types.Builtins().Int, span)
	m.Var(id).Imm = &Imm{Kind: ImmInt, Int: v}
	m.Var(id).Flags = m.Var(id).Flags.With(FlagConst)
	return id
}

// NewRealLit allocates a real literal.
func (m *Module) NewRealLit(v float64, span source.Span) VarID {
	id := m.NewVar(fmt.Sprintf("%g", v), m.Types.Builtins().Real, span)
	m.Var(id).Imm = &Imm{Kind: ImmReal, Real: v}
	m.Var(id).Flags = m.Var(id).Flags.With(FlagConst)
	return id
}

// NewBoolLit allocates a boolean literal.
func (m *Module) NewBoolLit(v bool, span source.Span) VarID {
	id := m.NewVar(fmt.Sprintf("%t", v), m.Types.Builtins().Bool, span)
	m.Var(id).Imm = &Imm{Kind: ImmBool, Bool: v}
	m.Var(id).Flags = m.Var(id).Flags.With(FlagConst)
	return id
}

// NewStringLit allocates a managed string literal.
func (m *Module) NewStringLit(s string, span source.Span) VarID {
	id := m.NewVar(s, m.Types.Builtins().String, span)
	m.Var(id).Imm = &Imm{Kind: ImmString, Str: s}
	m.Var(id).Flags = m.Var(id).Flags.With(FlagConst)
	return id
}

// NewCStringLit allocates a C string literal.
func (m *Module) NewCStringLit(s string, span source.Span) VarID {
	id := m.NewVar(s, m.Types.Builtins().CString, span)
	m.Var(id).Imm = &Imm{Kind: ImmString, Str: s}
	m.Var(id).Flags = m.Var(id).Flags.With(FlagConst)
	return id
}

// NewScope allocates a visibility block.
func (m *Module) NewScope(parent ScopeID, owner FuncID) ScopeID {
	id := ScopeID(m.nextIndex(len(m.scopes), "scope"))
	m.scopes = append(m.scopes, &Scope{ID: id, Parent: parent, Owner: owner})
	return id
}

// Scope returns the scope for id, or nil.
func (m *Module) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(m.scopes) {
		return nil
	}
	return m.scopes[id]
}

// NumFuncs reports the number of allocated functions.
func (m *Module) NumFuncs() int { return len(m.funcs) - 1 }

// NumFormals reports the number of allocated formals.
func (m *Module) NumFormals() int { return len(m.formals) - 1 }

// NumVars reports the number of allocated variables.
func (m *Module) NumVars() int { return len(m.vars) - 1 }

// NumScopes reports the number of allocated scopes.
func (m *Module) NumScopes() int { return len(m.scopes) - 1 }

// VarRef builds a reference expression for v typed by the var's type.
func (m *Module) VarRef(v VarID, span source.Span) *Expr {
	return NewVarRef(v, m.Var(v).Type, span)
}

// FormalRef builds a reference expression for f typed by the formal's type.
func (m *Module) FormalRef(f FormalID, span source.Span) *Expr {
	return NewFormalRef(f, m.Formal(f).Type, span)
}

// RefExpr builds a reference expression for a formal-or-var Ref.
func (m *Module) RefExpr(r Ref, span source.Span) *Expr {
	if r.Var.IsValid() {
		return m.VarRef(r.Var, span)
	}
	return m.FormalRef(r.Formal, span)
}

// RefType returns the declared type behind a formal-or-var Ref.
func (m *Module) RefType(r Ref) types.TypeID {
	if r.Var.IsValid() {
		return m.Var(r.Var).Type
	}
	if r.Formal.IsValid() {
		return m.Formal(r.Formal).Type
	}
	return types.NoTypeID
}

func (m *Module) nextIndex(n int, what string) uint32 {
	value, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", what, err))
	}
	return value
}
