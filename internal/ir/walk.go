package ir

// WalkExprs visits every expression in the block, depth-first, parents before
// children.
func WalkExprs(b *Block, visit func(*Expr)) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		walkStmtExprs(&b.Stmts[i], visit)
	}
}

func walkStmtExprs(s *Stmt, visit func(*Expr)) {
	switch data := s.Data.(type) {
	case MoveData:
		walkExpr(data.Dst, visit)
		walkExpr(data.Src, visit)
	case ExprStmtData:
		walkExpr(data.Expr, visit)
	case ReturnData:
		walkExpr(data.Value, visit)
	case YieldData:
		walkExpr(data.Value, visit)
	case IfData:
		walkExpr(data.Cond, visit)
		WalkExprs(data.Then, visit)
		WalkExprs(data.Else, visit)
	case LoopData:
		walkExpr(data.Index, visit)
		walkExpr(data.Iter, visit)
		WalkExprs(data.Body, visit)
	}
}

func walkExpr(e *Expr, visit func(*Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch data := e.Data.(type) {
	case *CallData:
		for _, arg := range data.Args {
			walkExpr(arg, visit)
		}
	case TupleData:
		for _, elem := range data.Elems {
			walkExpr(elem, visit)
		}
	}
}

// CollectCalls gathers every call expression in the block in visit order.
func CollectCalls(b *Block) []*Expr {
	var calls []*Expr
	WalkExprs(b, func(e *Expr) {
		if e.Kind == ExprCall {
			calls = append(calls, e)
		}
	})
	return calls
}

// CollectDefs gathers every variable declared in the block, including nested
// loop bodies.
func CollectDefs(b *Block) []VarID {
	var defs []VarID
	collectDefs(b, &defs)
	return defs
}

func collectDefs(b *Block, out *[]VarID) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		switch data := b.Stmts[i].Data.(type) {
		case DefData:
			*out = append(*out, data.Var)
		case IfData:
			collectDefs(data.Then, out)
			collectDefs(data.Else, out)
		case LoopData:
			collectDefs(data.Body, out)
		}
	}
}
