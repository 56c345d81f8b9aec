package resolve

import (
	"crest/internal/ir"
	"crest/internal/source"
)

// CallInfo bundles a resolved call site for transformation. The actual
// expressions live in Call; Actuals mirrors them with each actual's deduced
// symbol, and ActualNames with each actual's label ("" when positional). The
// reorder stage permutes all three consistently.
type CallInfo struct {
	// Call is the call expression being rewritten.
	Call *ir.Expr
	// Span locates the call site for diagnostics.
	Span source.Span
	// Scope is the visibility block of the call site; wrappers record it as
	// their instantiation point.
	Scope ir.ScopeID
	// Block is the statement list enclosing the call; coercion temps are
	// defined just before the call's statement.
	Block *ir.Block
	// Anchor is the index of the call's statement within Block.
	Anchor int

	Actuals     []ir.VarID
	ActualNames []string
}

// InsertBefore places stmt so it executes immediately before the call's
// statement, keeping the anchor pointed at the call.
func (info *CallInfo) InsertBefore(stmt ir.Stmt) {
	info.Block.InsertBefore(info.Anchor, stmt)
	info.Anchor++
}

// Args returns the call's actual expression list.
func (info *CallInfo) Args() []*ir.Expr {
	return info.Call.AsCall().Args
}

// SetArg replaces the i-th actual expression.
func (info *CallInfo) SetArg(i int, e *ir.Expr) {
	info.Call.AsCall().Args[i] = e
}
