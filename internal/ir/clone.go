package ir

import (
	"slices"
)

// Ref points at either a formal or a variable; substitution targets use it so
// a formal reference can be redirected to a wrapper temp.
type Ref struct {
	Formal FormalID
	Var    VarID
}

// ToFormal makes a formal-targeted Ref.
func ToFormal(f FormalID) Ref { return Ref{Formal: f} }

// ToVar makes a variable-targeted Ref.
func ToVar(v VarID) Ref { return Ref{Var: v} }

// IsValid reports whether the Ref targets anything.
func (r Ref) IsValid() bool { return r.Formal.IsValid() || r.Var.IsValid() }

// Subst maps original symbols to their replacements during cloning and
// in-place symbol updates.
type Subst struct {
	Formals map[FormalID]Ref
	Vars    map[VarID]VarID
}

// NewSubst returns an empty substitution.
func NewSubst() *Subst {
	return &Subst{
		Formals: make(map[FormalID]Ref),
		Vars:    make(map[VarID]VarID),
	}
}

// PutFormal redirects references of f to target.
func (s *Subst) PutFormal(f FormalID, target Ref) {
	s.Formals[f] = target
}

// PutVar redirects references of v to target.
func (s *Subst) PutVar(v, target VarID) {
	s.Vars[v] = target
}

// substExpr returns the replacement expression for e, or nil when e is not
// substituted.
func (m *Module) substExpr(e *Expr, subst *Subst) *Expr {
	if subst == nil {
		return nil
	}
	switch e.Kind {
	case ExprFormalRef:
		target, ok := subst.Formals[e.FormalOf()]
		if !ok {
			return nil
		}
		if target.Var.IsValid() {
			out := m.VarRef(target.Var, e.Span)
			return out
		}
		return m.FormalRef(target.Formal, e.Span)
	case ExprVarRef:
		target, ok := subst.Vars[e.VarOf()]
		if !ok {
			return nil
		}
		return m.VarRef(target, e.Span)
	}
	return nil
}

// CloneExpr deep-copies e, applying subst to symbol references.
func (m *Module) CloneExpr(e *Expr, subst *Subst) *Expr {
	if e == nil {
		return nil
	}
	if repl := m.substExpr(e, subst); repl != nil {
		return repl
	}
	out := *e
	switch data := e.Data.(type) {
	case *CallData:
		clone := &CallData{
			Callee:   data.Callee,
			Field:    data.Field,
			Square:   data.Square,
			ArgNames: slices.Clone(data.ArgNames),
		}
		if len(data.Args) > 0 {
			clone.Args = make([]*Expr, len(data.Args))
			for i, arg := range data.Args {
				clone.Args[i] = m.CloneExpr(arg, subst)
			}
		}
		out.Data = clone
	case TupleData:
		clone := TupleData{}
		if len(data.Elems) > 0 {
			clone.Elems = make([]*Expr, len(data.Elems))
			for i, elem := range data.Elems {
				clone.Elems[i] = m.CloneExpr(elem, subst)
			}
		}
		out.Data = clone
	}
	return &out
}

// CloneStmt deep-copies s, applying subst.
func (m *Module) CloneStmt(s Stmt, subst *Subst) Stmt {
	out := s
	switch data := s.Data.(type) {
	case DefData:
		if subst != nil {
			if target, ok := subst.Vars[data.Var]; ok {
				out.Data = DefData{Var: target}
			}
		}
	case MoveData:
		out.Data = MoveData{
			Dst: m.CloneExpr(data.Dst, subst),
			Src: m.CloneExpr(data.Src, subst),
		}
	case ExprStmtData:
		out.Data = ExprStmtData{Expr: m.CloneExpr(data.Expr, subst)}
	case ReturnData:
		out.Data = ReturnData{Value: m.CloneExpr(data.Value, subst)}
	case YieldData:
		out.Data = YieldData{Value: m.CloneExpr(data.Value, subst)}
	case IfData:
		out.Data = IfData{
			Cond: m.CloneExpr(data.Cond, subst),
			Then: m.CloneBlock(data.Then, subst),
			Else: m.CloneBlock(data.Else, subst),
		}
	case LoopData:
		out.Data = LoopData{
			Index:    m.CloneExpr(data.Index, subst),
			Iter:     m.CloneExpr(data.Iter, subst),
			Body:     m.CloneBlock(data.Body, subst),
			Zippered: data.Zippered,
		}
	}
	return out
}

// CloneBlock deep-copies b, applying subst.
func (m *Module) CloneBlock(b *Block, subst *Subst) *Block {
	if b == nil {
		return nil
	}
	out := &Block{Span: b.Span}
	if len(b.Stmts) == 0 {
		return out
	}
	out.Stmts = make([]Stmt, len(b.Stmts))
	for i := range b.Stmts {
		out.Stmts[i] = m.CloneStmt(b.Stmts[i], subst)
	}
	return out
}

// UpdateSymbols rewrites symbol references inside b in place according to
// subst. Spliced default expressions reference the origin function's formals;
// this redirects them to the wrapper's formals and temps.
func (m *Module) UpdateSymbols(b *Block, subst *Subst) {
	if b == nil || subst == nil {
		return
	}
	for i := range b.Stmts {
		m.updateStmt(&b.Stmts[i], subst)
	}
}

func (m *Module) updateStmt(s *Stmt, subst *Subst) {
	switch data := s.Data.(type) {
	case DefData:
		if target, ok := subst.Vars[data.Var]; ok {
			s.Data = DefData{Var: target}
		}
	case MoveData:
		data.Dst = m.updateExpr(data.Dst, subst)
		data.Src = m.updateExpr(data.Src, subst)
		s.Data = data
	case ExprStmtData:
		data.Expr = m.updateExpr(data.Expr, subst)
		s.Data = data
	case ReturnData:
		data.Value = m.updateExpr(data.Value, subst)
		s.Data = data
	case YieldData:
		data.Value = m.updateExpr(data.Value, subst)
		s.Data = data
	case IfData:
		data.Cond = m.updateExpr(data.Cond, subst)
		m.UpdateSymbols(data.Then, subst)
		m.UpdateSymbols(data.Else, subst)
		s.Data = data
	case LoopData:
		data.Index = m.updateExpr(data.Index, subst)
		data.Iter = m.updateExpr(data.Iter, subst)
		m.UpdateSymbols(data.Body, subst)
		s.Data = data
	}
}

func (m *Module) updateExpr(e *Expr, subst *Subst) *Expr {
	if e == nil {
		return nil
	}
	if repl := m.substExpr(e, subst); repl != nil {
		return repl
	}
	switch data := e.Data.(type) {
	case *CallData:
		for i, arg := range data.Args {
			data.Args[i] = m.updateExpr(arg, subst)
		}
	case TupleData:
		for i, elem := range data.Elems {
			data.Elems[i] = m.updateExpr(elem, subst)
		}
		e.Data = data
	}
	return e
}
