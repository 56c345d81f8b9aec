package resolve

import (
	"crest/internal/diag"
	"crest/internal/ir"
	"crest/internal/types"
)

// Options tunes the pass. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// FastFollowerChecks controls synthesis of the four static/dynamic
	// fast-follower check functions next to each promotion wrapper.
	FastFollowerChecks bool
	// ReportPromotion emits a note at every call site that promotes.
	ReportPromotion bool
	// CoercionLimit caps cast steps per actual. Exceeding it is an internal
	// error; the cap guards against pathological nested sync/ref chains.
	CoercionLimit int
}

// DefaultOptions returns the production configuration.
func DefaultOptions() Options {
	return Options{
		FastFollowerChecks: true,
		ReportPromotion:    false,
		CoercionLimit:      6,
	}
}

// State owns everything the pass mutates: the module, the wrapper caches and
// the leader/follower registry. It is injected explicitly so tests stay
// deterministic; the driver allocates one State per compilation.
type State struct {
	Mod      *ir.Module
	Oracle   Oracle
	Reporter diag.Reporter
	Opts     Options

	// Defaults and Promotions deduplicate wrappers across call sites.
	Defaults   *WrapperCache
	Promotions *WrapperCache

	// Leaders and Followers map each promotion wrapper to its parallel
	// iterator variants.
	Leaders   map[ir.FuncID]ir.FuncID
	Followers map[ir.FuncID]ir.FuncID

	// promoSeq discriminates iterator-record types per promoted call site.
	promoSeq uint32
}

// NewState builds a pass state over mod.
func NewState(mod *ir.Module, oracle Oracle, reporter diag.Reporter, opts Options) *State {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &State{
		Mod:        mod,
		Oracle:     oracle,
		Reporter:   reporter,
		Opts:       opts,
		Defaults:   NewWrapperCache(),
		Promotions: NewWrapperCache(),
		Leaders:    make(map[ir.FuncID]ir.FuncID),
		Followers:  make(map[ir.FuncID]ir.FuncID),
	}
}

// nextIterRecord interns a fresh iterator-record type for one promoted call
// site yielding elem.
func (st *State) nextIterRecord(elem types.TypeID) types.TypeID {
	st.promoSeq++
	return st.Mod.Types.MakeIterRecord(st.promoSeq, elem)
}

// typeName renders a type for diagnostics.
func (st *State) typeName(t types.TypeID) string {
	if t == types.NoTypeID {
		return "<generic>"
	}
	return st.Mod.Types.String(t)
}

// callSummary renders "name(type, type, ...)" for promotion notes.
func (st *State) callSummary(fn ir.FuncID, info *CallInfo) string {
	f := st.Mod.Func(fn)
	s := f.Name + "("
	for i, a := range info.Actuals {
		if i > 0 {
			s += ", "
		}
		s += st.typeName(st.Mod.Var(a).Type)
	}
	return s + ")"
}
