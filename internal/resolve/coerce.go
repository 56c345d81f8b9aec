package resolve

import (
	"fmt"

	"crest/internal/diag"
	"crest/internal/ir"
	"crest/internal/types"
)

// coerceActuals inserts explicit conversions for every actual whose type
// differs from its formal's: sync/single reads, dereferences, and casts,
// repeated until the types agree.
//
// Param-returning callees are skipped entirely: the call folds away after
// resolution, but a sync read inserted here would keep its side effect.
func coerceActuals(st *State, fnID ir.FuncID, info *CallInfo) error {
	mod := st.Mod
	fn := mod.Func(fnID)

	if fn.RetKind == ir.RetParam {
		return nil
	}

	for j, formalID := range fn.Formals {
		if j >= len(info.Actuals) {
			break
		}
		formal := mod.Formal(formalID)

		// Each sync/ref layer of the actual peels off one conversion at a
		// time, so a single actual may need several rounds. The limit is a
		// guard against chains that never converge; a receiver typed
		// ref(sync(sync(int))) uses three rounds (two reads and a deref) plus
		// the final check.
		checksLeft := st.Opts.CoercionLimit
		checkAgain := false

		for {
			actualSym := info.Actuals[j]
			actualVar := mod.Var(actualSym)
			actualType := actualVar.Type
			checkAgain = false

			if needToAddCoercion(st, actualType, actualSym, formalID, fnID) {
				if formal.Type == mod.Types.Builtins().CString &&
					actualType == mod.Types.Builtins().String &&
					actualVar.IsImmediate() {
					// The literal is known valid, and string has no cast to
					// c_string on purpose; swap the literal in place.
					lit := mod.NewCStringLit(actualVar.Imm.Str, info.Span)
					info.SetArg(j, mod.VarRef(lit, info.Span))
					info.Actuals[j] = lit
				} else {
					again, err := addArgCoercion(st, fnID, info, j, formalID)
					if err != nil {
						return err
					}
					checkAgain = again
				}
			}

			if !checkAgain {
				break
			}
			checksLeft--
			if checksLeft <= 0 {
				diag.ReportError(st.Reporter, diag.ResCoercionDepth, info.Span,
					fmt.Sprintf("coercion of actual %d did not converge after %d steps", j+1, st.Opts.CoercionLimit)).Emit()
				ice("coercion loop exceeded %d iterations for actual %d", st.Opts.CoercionLimit, j+1)
			}
		}
		assert(!checkAgain, "coercion loop left a pending re-check")
	}
	return nil
}

// needToAddCoercion reports whether the actual needs a conversion step: the
// types differ, the actual is not already a reference to the formal's type
// under a ref intent, and the oracle confirms a coercion or dispatch path.
func needToAddCoercion(st *State, actualType types.TypeID, actualSym ir.VarID, formalID ir.FormalID, fnID ir.FuncID) bool {
	formal := st.Mod.Formal(formalID)
	formalType := formal.Type

	if actualType == formalType {
		return false
	}
	if actualType == st.Mod.Types.MakeRef(formalType) && getIntent(st, formal).IsRef() {
		return false
	}
	if st.Oracle.CanCoerce(actualType, actualSym, formalType, fnID) {
		return true
	}
	if st.Oracle.IsDispatchParent(actualType, formalType) {
		return true
	}
	return false
}

// getIntent folds blank and const intents, leaving iterator-record formals
// untouched.
func getIntent(st *State, formal *ir.Formal) ir.Intent {
	intent := formal.Intent
	if intent == ir.IntentBlank || intent == ir.IntentConst {
		if !st.Mod.Types.IsIterRecord(formal.Type) {
			intent = st.Oracle.ConcreteIntent(formal)
		}
	}
	return intent
}

// addArgCoercion inserts one conversion step for the j-th actual and
// replaces the actual with the step's result temp. checkAgain is true when
// the step only peeled a sync/single/ref layer and the outer loop must look
// at the result once more.
func addArgCoercion(st *State, fnID ir.FuncID, info *CallInfo, j int, formalID ir.FormalID) (checkAgain bool, err error) {
	mod := st.Mod
	in := mod.Types
	formal := mod.Formal(formalID)
	span := info.Span

	prevActual := info.Args()[j]
	actualSym := info.Actuals[j]
	prevVar := mod.Var(actualSym)
	ats := prevVar.Type
	fts := formal.Type

	castTemp := mod.NewTemp("coerce_tmp", types.NoTypeID, span)
	ct := mod.Var(castTemp)
	ct.Flags = ct.Flags.With(ir.FlagCoerceTemp)

	// Preserve this-ness so constructors can still write the receiver's
	// fields after a dispatch-parent conversion.
	if prevVar.Flags.Has(ir.FlagArgThis) && st.Oracle.IsDispatchParent(ats, fts) {
		ct.Flags = ct.Flags.With(ir.FlagArgThis)
	}

	var castCall *ir.Expr

	switch {
	case in.IsSync(in.ValType(ats)):
		// Reading strips the sync layer; the result may need more work:
		//   ref(sync(int)) --readFullEmpty--> ref(int) --deref--> int --> real
		// Each nested sync layer peels off one read per round.
		checkAgain = true
		castCall = ir.NewCallNamed("readFullEmpty", span,
			mod.VarRef(mod.Globals.MethodToken, span), prevActual)
		castCall.Type = in.MakeRef(in.Elem(in.ValType(ats)))

	case in.IsSingle(in.ValType(ats)):
		checkAgain = true
		castCall = ir.NewCallNamed("readFullFull", span,
			mod.VarRef(mod.Globals.MethodToken, span), prevActual)
		castCall.Type = in.MakeRef(in.Elem(in.ValType(ats)))

	case in.IsRef(ats) && !(in.IsTuple(in.ValType(ats)) && in.IsTuple(in.ValType(fts))):
		// Dereference; afterwards the value may still need a cast:
		//   ref(int) --deref--> int --> real
		checkAgain = true
		castCall = ir.NewCallPrim(ir.PrimDeref, span, prevActual)
		castCall.Type = in.ValType(ats)
		if prevVar.Flags.Has(ir.FlagRefToConst) {
			ct.Flags = ct.Flags.With(ir.FlagConst)
			if prevVar.Flags.Has(ir.FlagRefForConstFieldOfThis) {
				ct.Flags = ct.Flags.With(ir.FlagRefForConstFieldOfThis)
			}
		}

	default:
		assert(!prevVar.Flags.Has(ir.FlagInstantiatedParam),
			"coercing an instantiated param actual")
	}

	if castCall == nil {
		// the common case: an explicit cast to the formal's type, resolved
		// like any other call so a broken cast function surfaces here
		castCall = ir.NewCallNamed("_cast", span, ir.NewTypeRef(fts, span), prevActual)
		castCall.Type = fts
		if in.IsString(fts) {
			ct.Flags = ct.Flags.With(ir.FlagInsertAutoDestroy)
		}
	}

	ct.Type = castCall.Type

	info.SetArg(j, mod.VarRef(castTemp, span))
	info.Actuals[j] = castTemp

	info.InsertBefore(ir.DefStmt(castTemp, span))
	info.InsertBefore(ir.MoveStmt(mod.VarRef(castTemp, span), castCall, span))

	target := st.Oracle.ResolveCallAndCallee(castCall, true)
	if target.IsValid() && !mod.Func(target).IsResolved() {
		targetFn := mod.Func(target)
		diag.ReportError(st.Reporter, diag.ResCastUnresolved, info.Span,
			fmt.Sprintf("error resolving a cast from %s to %s", st.typeName(ats), st.typeName(fts))).
			WithNote(targetFn.Span, "the troublesome function is here").
			Emit()
		return false, fmt.Errorf("resolve: cast from %s to %s did not resolve",
			st.typeName(ats), st.typeName(fts))
	}

	return checkAgain, nil
}
