package resolve

import (
	"crest/internal/ir"
)

// inheritedFlags are carried verbatim from the origin onto every wrapper.
const inheritedFlags = ir.FlagInitCopyFn |
	ir.FlagAutoCopyFn |
	ir.FlagAutoDestroyFn |
	ir.FlagDonorFn |
	ir.FlagNoParens |
	ir.FlagConstructor |
	ir.FlagFieldAccessor |
	ir.FlagRefToConst |
	ir.FlagMethod |
	ir.FlagMethodPrimary |
	ir.FlagAssignOp |
	ir.FlagDefaultConstructor |
	ir.FlagLastResort

// buildEmptyWrapper constructs a wrapper shell for fn: same name, inherited
// flag subset, the call site's visibility block as instantiation point. The
// caller names its mangled form and fills the body.
func buildEmptyWrapper(st *State, fnID ir.FuncID, info *CallInfo) ir.FuncID {
	fn := st.Mod.Func(fnID)
	wID := st.Mod.NewFuncDetached(fn.Name, fn.Span)
	w := st.Mod.Func(wID)

	w.Flags = (fn.Flags & inheritedFlags).
		With(ir.FlagWrapper).
		With(ir.FlagInvisible).
		With(ir.FlagInline).
		With(ir.FlagCompilerGenerated)
	if fn.Flags.Has(ir.FlagCompilerGenerated) {
		w.Flags = w.Flags.With(ir.FlagWasCompilerGenerated)
	}

	// A wrapper around an iterator is value-returning by default; the
	// promotion stage re-flags it when it becomes an iterator itself.
	if !fn.IsIterator() {
		w.RetKind = fn.RetKind
	}

	w.Throws = fn.Throws
	w.InstantiationScope = info.Scope
	return wID
}

// copyFormalForWrapper clones a formal for placement on a wrapper, flattening
// intent: out/inout originals leave a writeback marker and become blank, ref
// intents survive, everything else becomes blank. Writeback happens once, at
// the innermost call; the wrapper's caller must not observe it again.
func copyFormalForWrapper(st *State, formalID ir.FormalID) ir.FormalID {
	formal := st.Mod.Formal(formalID)
	cloneID := st.Mod.NewFormalDetached(formal.Name, formal.Type, formal.Intent, formal.Span)
	clone := st.Mod.Formal(cloneID)
	clone.Flags = formal.Flags
	clone.Default = st.Mod.CloneBlock(formal.Default, nil)
	clone.TypeExpr = st.Mod.CloneBlock(formal.TypeExpr, nil)

	if formal.Intent.IsWriteback() || formal.Flags.Has(ir.FlagWrapWrittenFormal) {
		clone.Flags = clone.Flags.With(ir.FlagWrapWrittenFormal)
	}
	if !formal.Intent.IsRef() {
		clone.Intent = ir.IntentBlank
	}
	return cloneID
}
