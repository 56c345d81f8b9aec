package ir

import (
	"fmt"
	"strings"
)

// Printer renders IR in a compact textual form for dumps and debugging.
type Printer struct {
	Mod *Module
	sb  strings.Builder
}

// NewPrinter binds a printer to a module.
func NewPrinter(mod *Module) *Printer {
	return &Printer{Mod: mod}
}

// Func renders one function definition.
func (p *Printer) Func(id FuncID) string {
	p.sb.Reset()
	fn := p.Mod.Func(id)
	if fn == nil {
		return "<no func>"
	}
	p.sb.WriteString("fn ")
	p.sb.WriteString(fn.Name)
	p.sb.WriteByte('(')
	for i, fid := range fn.Formals {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		formal := p.Mod.Formal(fid)
		if formal.Intent != IntentBlank {
			p.sb.WriteString(formal.Intent.String())
			p.sb.WriteByte(' ')
		}
		p.sb.WriteString(formal.Name)
		p.sb.WriteString(": ")
		p.sb.WriteString(p.Mod.Types.String(formal.Type))
	}
	p.sb.WriteByte(')')
	if !p.Mod.Types.IsVoid(fn.RetType) {
		p.sb.WriteString(": ")
		p.sb.WriteString(p.Mod.Types.String(fn.RetType))
	}
	if fn.Flags != 0 {
		p.sb.WriteString("  [")
		p.sb.WriteString(fn.Flags.String())
		p.sb.WriteByte(']')
	}
	p.sb.WriteByte('\n')
	p.block(fn.Body, 1)
	return p.sb.String()
}

func (p *Printer) block(b *Block, depth int) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		p.stmt(&b.Stmts[i], depth)
	}
}

func (p *Printer) stmt(s *Stmt, depth int) {
	indent := strings.Repeat("  ", depth)
	switch data := s.Data.(type) {
	case DefData:
		v := p.Mod.Var(data.Var)
		fmt.Fprintf(&p.sb, "%sdef %s: %s\n", indent, v.Name, p.Mod.Types.String(v.Type))
	case MoveData:
		fmt.Fprintf(&p.sb, "%smove %s <- %s\n", indent, p.Expr(data.Dst), p.Expr(data.Src))
	case ExprStmtData:
		fmt.Fprintf(&p.sb, "%s%s\n", indent, p.Expr(data.Expr))
	case ReturnData:
		if data.Value == nil {
			fmt.Fprintf(&p.sb, "%sreturn\n", indent)
		} else {
			fmt.Fprintf(&p.sb, "%sreturn %s\n", indent, p.Expr(data.Value))
		}
	case YieldData:
		fmt.Fprintf(&p.sb, "%syield %s\n", indent, p.Expr(data.Value))
	case IfData:
		fmt.Fprintf(&p.sb, "%sif %s\n", indent, p.Expr(data.Cond))
		p.block(data.Then, depth+1)
		if data.Else != nil {
			fmt.Fprintf(&p.sb, "%selse\n", indent)
			p.block(data.Else, depth+1)
		}
	case LoopData:
		kw := "for"
		if s.Kind == StmtForall {
			kw = "forall"
		}
		zip := ""
		if data.Zippered {
			zip = " zip"
		}
		fmt.Fprintf(&p.sb, "%s%s%s %s in %s\n", indent, kw, zip, p.Expr(data.Index), p.Expr(data.Iter))
		p.block(data.Body, depth+1)
	}
}

// Expr renders one expression.
func (p *Printer) Expr(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch data := e.Data.(type) {
	case VarRefData:
		return p.Mod.Var(data.Var).Name
	case FormalRefData:
		return p.Mod.Formal(data.Formal).Name
	case TypeRefData:
		return p.Mod.Types.String(data.Ref)
	case UnresolvedData:
		return "?" + data.Name
	case TupleData:
		parts := make([]string, len(data.Elems))
		for i, elem := range data.Elems {
			parts[i] = p.Expr(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *CallData:
		var name string
		switch {
		case data.Callee.Fn.IsValid():
			name = p.Mod.Func(data.Callee.Fn).Name
		case data.Callee.Prim != PrimNone:
			name = "prim:" + data.Callee.Prim.String()
		default:
			name = data.Callee.Name
		}
		parts := make([]string, 0, len(data.Args)+1)
		if data.Field != "" {
			parts = append(parts, "."+data.Field)
		}
		for _, arg := range data.Args {
			parts = append(parts, p.Expr(arg))
		}
		return name + "(" + strings.Join(parts, ", ") + ")"
	}
	return e.Kind.String()
}
