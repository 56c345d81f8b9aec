package resolve

import (
	"crest/internal/ir"
	"crest/internal/types"
)

// Oracle answers the type and resolution questions wrapper synthesis asks.
// Overload resolution, dispatch tables and normalization live behind it; the
// pass never decides whether a cast is legal, it only asks.
type Oracle interface {
	// CanCoerce reports whether actual values of type src (deduced symbol
	// srcSym, possibly NoVarID) implicitly convert to dst at a call to fn.
	CanCoerce(src types.TypeID, srcSym ir.VarID, dst types.TypeID, fn ir.FuncID) bool

	// IsDispatchParent reports whether dst is an ancestor of src in the
	// dispatch hierarchy.
	IsDispatchParent(src, dst types.TypeID) bool

	// CanDispatch reports whether an actual of type src can bind a formal of
	// type dst at a call to fn; promotes is true when the binding goes
	// through per-element promotion of a collection.
	CanDispatch(src types.TypeID, srcSym ir.VarID, dst types.TypeID, fn ir.FuncID) (ok, promotes bool)

	// ConcreteIntent folds a blank or const intent to the type's concrete
	// binding rule.
	ConcreteIntent(formal *ir.Formal) ir.Intent

	// BlankIntentForType is the blank-intent rule for a type.
	BlankIntentForType(t types.TypeID) ir.Intent

	// ResolveFormals resolves a function's formal list (type expressions,
	// generic markers).
	ResolveFormals(fn ir.FuncID)

	// ResolveCall resolves one call expression: binds named callees and
	// deduces the result type.
	ResolveCall(call *ir.Expr)

	// ResolveCallAndCallee resolves the call, then its callee's body, and
	// returns the callee (NoFuncID for primitives and unbound names).
	ResolveCallAndCallee(call *ir.Expr, inherited bool) ir.FuncID

	// Normalize brings a freshly synthesized function into normalized form,
	// materializing loop index variables for symbolic index names.
	Normalize(fn ir.FuncID)
}
