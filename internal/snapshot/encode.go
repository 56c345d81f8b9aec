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

// SeedTypeCount is the number of types NewInterner pre-seeds; every
// snapshot's type table starts with exactly these.
func SeedTypeCount() int {
	return types.NewInterner().Len() - 1
}

// Encode writes a module snapshot to w.
func Encode(w io.Writer, mod *ir.Module) error {
	rec, err := buildModuleRec(mod, SeedTypeCount())
	if err != nil {
		return err
	}
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// WriteFile encodes the module into path.
func WriteFile(path string, mod *ir.Module) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()
	return Encode(f, mod)
}

func buildModuleRec(mod *ir.Module, seedTypes int) (*ModuleRec, error) {
	rec := &ModuleRec{
		Schema:    Schema,
		SeedTypes: uint32(seedTypes),
	}

	for id := uint32(1); int(id) <= mod.Files.Len(); id++ {
		rec.Files = append(rec.Files, mod.Files.Name(source.FileID(id)))
	}

	in := mod.Types
	for id := types.TypeID(1); int(id) < in.Len(); id++ {
		tt := in.MustLookup(id)
		rec.Types = append(rec.Types, TypeRec{Kind: uint8(tt.Kind), Elem: uint32(tt.Elem), Payload: tt.Payload})
		if int(id) <= seedTypes {
			continue
		}
		switch tt.Kind {
		case types.KindRecord:
			info, ok := in.RecordInfo(id)
			if !ok {
				return nil, fmt.Errorf("snapshot: record type %d lacks metadata", id)
			}
			rec.Records = append(rec.Records, RecordRec{Name: info.Name, Fields: encodeFields(info.Fields)})
		case types.KindClass:
			info, ok := in.ClassInfo(id)
			if !ok {
				return nil, fmt.Errorf("snapshot: class type %d lacks metadata", id)
			}
			rec.Classes = append(rec.Classes, ClassRec{Name: info.Name, Parent: uint32(info.Parent), Fields: encodeFields(info.Fields)})
		case types.KindTuple:
			info, ok := in.TupleInfo(id)
			if !ok {
				return nil, fmt.Errorf("snapshot: tuple type %d lacks metadata", id)
			}
			elems := make([]uint32, len(info.Elems))
			for i, e := range info.Elems {
				elems[i] = uint32(e)
			}
			rec.Tuples = append(rec.Tuples, elems)
		}
	}

	for id := ir.FormalID(1); int(id) <= mod.NumFormals(); id++ {
		formal := mod.Formal(id)
		fr := FormalRec{
			Name:   formal.Name,
			Owner:  uint32(formal.Owner),
			Type:   uint32(formal.Type),
			Intent: uint8(formal.Intent),
			Flags:  uint64(formal.Flags),
		}
		if formal.Default != nil {
			fr.HasDef = true
			fr.Default = encodeBlock(formal.Default)
		}
		if formal.TypeExpr != nil {
			fr.HasType = true
			fr.TypeExpr = encodeBlock(formal.TypeExpr)
		}
		rec.Formals = append(rec.Formals, fr)
	}

	for id := ir.VarID(1); int(id) <= mod.NumVars(); id++ {
		v := mod.Var(id)
		vr := VarRec{Name: v.Name, Type: uint32(v.Type), Flags: uint64(v.Flags)}
		if v.Imm != nil {
			vr.HasImm = true
			vr.ImmKind = uint8(v.Imm.Kind)
			vr.ImmInt = v.Imm.Int
			vr.ImmReal = v.Imm.Real
			vr.ImmBool = v.Imm.Bool
			vr.ImmStr = v.Imm.Str
		}
		rec.Vars = append(rec.Vars, vr)
	}

	for id := ir.ScopeID(1); int(id) <= mod.NumScopes(); id++ {
		s := mod.Scope(id)
		rec.Scopes = append(rec.Scopes, ScopeRec{Parent: uint32(s.Parent), Owner: uint32(s.Owner)})
	}

	for id := ir.FuncID(1); int(id) <= mod.NumFuncs(); id++ {
		fn := mod.Func(id)
		fr := FuncRec{
			Name:       fn.Name,
			CName:      fn.CName,
			Flags:      uint64(fn.Flags),
			ThisFormal: uint32(fn.This.Formal),
			ThisVar:    uint32(fn.This.Var),
			RetType:    uint32(fn.RetType),
			RetKind:    uint8(fn.RetKind),
			Throws:     fn.Throws,
			Scope:      uint32(fn.InstantiationScope),
		}
		for _, f := range fn.Formals {
			fr.Formals = append(fr.Formals, uint32(f))
		}
		fr.Body = encodeBlock(fn.Body)
		fr.Where = encodeExpr(fn.Where)
		rec.Funcs = append(rec.Funcs, fr)
	}

	for _, def := range mod.Defs {
		rec.Defs = append(rec.Defs, uint32(def))
	}

	if len(mod.ParamMap) > 0 {
		rec.ParamMap = make(map[uint32]uint32, len(mod.ParamMap))
		for f, v := range mod.ParamMap {
			rec.ParamMap[uint32(f)] = uint32(v)
		}
	}

	rec.Globals = GlobalsRec{
		MethodToken:  uint32(mod.Globals.MethodToken),
		LeaderTag:    uint32(mod.Globals.LeaderTag),
		FollowerTag:  uint32(mod.Globals.FollowerTag),
		False:        uint32(mod.Globals.False),
		TypeDefault:  uint32(mod.Globals.TypeDefault),
		ProgramScope: uint32(mod.Globals.ProgramScope),
	}

	return rec, nil
}

func encodeFields(fields []types.Field) []FieldRec {
	out := make([]FieldRec, len(fields))
	for i, f := range fields {
		out[i] = FieldRec{Name: f.Name, Type: uint32(f.Type)}
	}
	return out
}

func encodeBlock(b *ir.Block) []StmtRec {
	if b == nil {
		return nil
	}
	out := make([]StmtRec, 0, len(b.Stmts))
	for i := range b.Stmts {
		out = append(out, encodeStmt(&b.Stmts[i]))
	}
	return out
}

func encodeStmt(s *ir.Stmt) StmtRec {
	rec := StmtRec{Kind: uint8(s.Kind)}
	switch data := s.Data.(type) {
	case ir.DefData:
		rec.Var = uint32(data.Var)
	case ir.MoveData:
		rec.Dst = encodeExpr(data.Dst)
		rec.Src = encodeExpr(data.Src)
	case ir.ExprStmtData:
		rec.Value = encodeExpr(data.Expr)
	case ir.ReturnData:
		rec.Value = encodeExpr(data.Value)
	case ir.YieldData:
		rec.Value = encodeExpr(data.Value)
	case ir.IfData:
		rec.Cond = encodeExpr(data.Cond)
		rec.Then = encodeBlock(data.Then)
		rec.Else = encodeBlock(data.Else)
	case ir.LoopData:
		rec.Index = encodeExpr(data.Index)
		rec.Iter = encodeExpr(data.Iter)
		rec.Body = encodeBlock(data.Body)
		rec.Zippered = data.Zippered
	}
	return rec
}

func encodeExpr(e *ir.Expr) *ExprRec {
	if e == nil {
		return nil
	}
	rec := &ExprRec{Kind: uint8(e.Kind), Type: uint32(e.Type)}
	switch data := e.Data.(type) {
	case ir.VarRefData:
		rec.Var = uint32(data.Var)
	case ir.FormalRefData:
		rec.Formal = uint32(data.Formal)
	case ir.TypeRefData:
		rec.TypeRef = uint32(data.Ref)
	case ir.UnresolvedData:
		rec.Name = data.Name
	case ir.TupleData:
		for _, elem := range data.Elems {
			rec.Elems = append(rec.Elems, encodeExpr(elem))
		}
	case *ir.CallData:
		rec.Fn = uint32(data.Callee.Fn)
		rec.Prim = uint8(data.Callee.Prim)
		rec.Name = data.Callee.Name
		rec.Field = data.Field
		rec.Square = data.Square
		rec.Names = data.ArgNames
		for _, arg := range data.Args {
			rec.Args = append(rec.Args, encodeExpr(arg))
		}
	}
	return rec
}
