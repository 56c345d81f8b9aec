package resolve

import (
	"crest/internal/ir"
)

// reorderActuals permutes the call's actual list — and the mirrored Actuals /
// ActualNames metadata — into formal order. The call node is mutated in
// place; no wrapper is created.
func reorderActuals(st *State, fnID ir.FuncID, info *CallInfo, actualToFormal []ir.FormalID) {
	fn := st.Mod.Func(fnID)
	numArgs := len(actualToFormal)
	formalsToFormals := make([]int, numArgs)
	needToReorder := false

	i := 0
	for _, formalID := range fn.Formals {
		j := 0
		i++
		for _, af := range actualToFormal {
			j++
			if af == formalID {
				if i != j {
					needToReorder = true
				}
				formalsToFormals[i-1] = j - 1
			}
		}
	}

	if !needToReorder {
		return
	}

	data := info.Call.AsCall()
	assert(len(info.Actuals) == numArgs, "call metadata out of step with actual count")

	savedArgs := make([]*ir.Expr, numArgs)
	savedActuals := make([]ir.VarID, numArgs)
	copy(savedArgs, data.Args)
	copy(savedActuals, info.Actuals)

	for i := 0; i < numArgs; i++ {
		data.Args[i] = savedArgs[formalsToFormals[i]]
		info.Actuals[i] = savedActuals[formalsToFormals[i]]
	}

	if len(info.ActualNames) == numArgs {
		savedNames := make([]string, numArgs)
		copy(savedNames, info.ActualNames)
		for i := 0; i < numArgs; i++ {
			info.ActualNames[i] = savedNames[formalsToFormals[i]]
		}
	}
	if len(data.ArgNames) == numArgs {
		savedNames := make([]string, numArgs)
		copy(savedNames, data.ArgNames)
		for i := 0; i < numArgs; i++ {
			data.ArgNames[i] = savedNames[formalsToFormals[i]]
		}
	}
}
