package snapshot

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"crest/internal/ir"
	"crest/internal/source"
	"crest/internal/types"
)

// Decode reads a module snapshot from r and rebuilds the arenas.
func Decode(r io.Reader) (*ir.Module, error) {
	var rec ModuleRec
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if rec.Schema != Schema {
		return nil, fmt.Errorf("snapshot: schema %d, this build reads %d", rec.Schema, Schema)
	}
	return rebuild(&rec)
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func rebuild(rec *ModuleRec) (*ir.Module, error) {
	files := source.NewFileSet()
	for _, name := range rec.Files {
		files.Add(name)
	}

	in := types.NewInterner()
	if in.Len()-1 != int(rec.SeedTypes) {
		return nil, fmt.Errorf("snapshot: interner seeds %d types, snapshot expects %d", in.Len()-1, rec.SeedTypes)
	}

	// Replay user types in ID order; side tables refill in encounter order.
	nextRecord, nextClass, nextTuple := 0, 0, 0
	for i := int(rec.SeedTypes); i < len(rec.Types); i++ {
		tr := rec.Types[i]
		var got types.TypeID
		switch types.Kind(tr.Kind) {
		case types.KindRecord:
			if nextRecord >= len(rec.Records) {
				return nil, fmt.Errorf("snapshot: missing record metadata for type %d", i+1)
			}
			meta := rec.Records[nextRecord]
			nextRecord++
			got = in.RegisterRecord(meta.Name, decodeFields(meta.Fields))
		case types.KindClass:
			if nextClass >= len(rec.Classes) {
				return nil, fmt.Errorf("snapshot: missing class metadata for type %d", i+1)
			}
			meta := rec.Classes[nextClass]
			nextClass++
			got = in.RegisterClass(meta.Name, types.TypeID(meta.Parent), decodeFields(meta.Fields))
		case types.KindTuple:
			if nextTuple >= len(rec.Tuples) {
				return nil, fmt.Errorf("snapshot: missing tuple metadata for type %d", i+1)
			}
			elems := make([]types.TypeID, len(rec.Tuples[nextTuple]))
			for j, e := range rec.Tuples[nextTuple] {
				elems[j] = types.TypeID(e)
			}
			nextTuple++
			got = in.RegisterTuple(elems)
		case types.KindIterRecord:
			got = in.MakeIterRecord(tr.Payload, types.TypeID(tr.Elem))
		default:
			got = in.Intern(types.Type{Kind: types.Kind(tr.Kind), Elem: types.TypeID(tr.Elem), Payload: tr.Payload})
		}
		if int(got) != i+1 {
			return nil, fmt.Errorf("snapshot: type replay diverged at %d (got %d)", i+1, got)
		}
	}

	mod := ir.NewBareModule(files, in)

	for _, sr := range rec.Scopes {
		mod.NewScope(ir.ScopeID(sr.Parent), ir.FuncID(sr.Owner))
	}

	for _, vr := range rec.Vars {
		id := mod.NewVar(vr.Name, types.TypeID(vr.Type), source.Span{})
		v := mod.Var(id)
		v.Flags = ir.Flags(vr.Flags)
		if vr.HasImm {
			v.Imm = &ir.Imm{
				Kind: ir.ImmKind(vr.ImmKind),
				Int:  vr.ImmInt,
				Real: vr.ImmReal,
				Bool: vr.ImmBool,
				Str:  vr.ImmStr,
			}
		}
	}

	for _, fr := range rec.Formals {
		id := mod.NewFormalDetached(fr.Name, types.TypeID(fr.Type), ir.Intent(fr.Intent), source.Span{})
		formal := mod.Formal(id)
		formal.Owner = ir.FuncID(fr.Owner)
		formal.Flags = ir.Flags(fr.Flags)
		if fr.HasDef {
			formal.Default = decodeBlock(fr.Default)
		}
		if fr.HasType {
			formal.TypeExpr = decodeBlock(fr.TypeExpr)
		}
	}

	for _, fr := range rec.Funcs {
		id := mod.NewFuncDetached(fr.Name, source.Span{})
		fn := mod.Func(id)
		fn.CName = fr.CName
		fn.Flags = ir.Flags(fr.Flags)
		fn.This = ir.Ref{Formal: ir.FormalID(fr.ThisFormal), Var: ir.VarID(fr.ThisVar)}
		fn.RetType = types.TypeID(fr.RetType)
		fn.RetKind = ir.RetKind(fr.RetKind)
		fn.Throws = fr.Throws
		fn.InstantiationScope = ir.ScopeID(fr.Scope)
		for _, f := range fr.Formals {
			fn.Formals = append(fn.Formals, ir.FormalID(f))
		}
		fn.Body = decodeBlock(fr.Body)
		if fn.Body == nil {
			fn.Body = ir.NewBlock(source.Span{})
		}
		fn.Where = decodeExpr(fr.Where)
	}

	for _, def := range rec.Defs {
		mod.AppendFunc(ir.FuncID(def))
	}

	for f, v := range rec.ParamMap {
		mod.ParamMap[ir.FormalID(f)] = ir.VarID(v)
	}

	mod.Globals = ir.Globals{
		MethodToken:  ir.VarID(rec.Globals.MethodToken),
		LeaderTag:    ir.VarID(rec.Globals.LeaderTag),
		FollowerTag:  ir.VarID(rec.Globals.FollowerTag),
		False:        ir.VarID(rec.Globals.False),
		TypeDefault:  ir.VarID(rec.Globals.TypeDefault),
		ProgramScope: ir.ScopeID(rec.Globals.ProgramScope),
	}

	return mod, nil
}

func decodeFields(fields []FieldRec) []types.Field {
	out := make([]types.Field, len(fields))
	for i, f := range fields {
		out[i] = types.Field{Name: f.Name, Type: types.TypeID(f.Type)}
	}
	return out
}

func decodeBlock(stmts []StmtRec) *ir.Block {
	if stmts == nil {
		return nil
	}
	b := ir.NewBlock(source.Span{})
	for i := range stmts {
		b.Append(decodeStmt(&stmts[i]))
	}
	return b
}

func decodeStmt(rec *StmtRec) ir.Stmt {
	span := source.Span{}
	switch ir.StmtKind(rec.Kind) {
	case ir.StmtDef:
		return ir.DefStmt(ir.VarID(rec.Var), span)
	case ir.StmtMove:
		return ir.MoveStmt(decodeExpr(rec.Dst), decodeExpr(rec.Src), span)
	case ir.StmtExpr:
		return ir.ExprStmt(decodeExpr(rec.Value), span)
	case ir.StmtReturn:
		return ir.ReturnStmt(decodeExpr(rec.Value), span)
	case ir.StmtYield:
		return ir.YieldStmt(decodeExpr(rec.Value), span)
	case ir.StmtIf:
		return ir.IfStmt(decodeExpr(rec.Cond), decodeBlock(rec.Then), decodeBlock(rec.Else), span)
	case ir.StmtFor:
		return ir.ForStmt(decodeExpr(rec.Index), decodeExpr(rec.Iter), decodeBlock(rec.Body), rec.Zippered, span)
	case ir.StmtForall:
		return ir.ForallStmt(decodeExpr(rec.Index), decodeExpr(rec.Iter), decodeBlock(rec.Body), rec.Zippered, span)
	}
	return ir.Stmt{}
}

func decodeExpr(rec *ExprRec) *ir.Expr {
	if rec == nil {
		return nil
	}
	span := source.Span{}
	t := types.TypeID(rec.Type)
	switch ir.ExprKind(rec.Kind) {
	case ir.ExprVarRef:
		return ir.NewVarRef(ir.VarID(rec.Var), t, span)
	case ir.ExprFormalRef:
		return ir.NewFormalRef(ir.FormalID(rec.Formal), t, span)
	case ir.ExprTypeRef:
		return ir.NewTypeRef(types.TypeID(rec.TypeRef), span)
	case ir.ExprUnresolved:
		return ir.NewUnresolved(rec.Name, span)
	case ir.ExprTuple:
		elems := make([]*ir.Expr, len(rec.Elems))
		for i, e := range rec.Elems {
			elems[i] = decodeExpr(e)
		}
		return ir.NewTuple(span, elems...)
	case ir.ExprCall:
		args := make([]*ir.Expr, len(rec.Args))
		for i, a := range rec.Args {
			args[i] = decodeExpr(a)
		}
		e := &ir.Expr{Kind: ir.ExprCall, Type: t, Span: span, Data: &ir.CallData{
			Callee:   ir.Callee{Fn: ir.FuncID(rec.Fn), Prim: ir.Prim(rec.Prim), Name: rec.Name},
			Args:     args,
			ArgNames: rec.Names,
			Field:    rec.Field,
			Square:   rec.Square,
		}}
		return e
	}
	return nil
}
