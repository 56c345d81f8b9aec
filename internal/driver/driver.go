// Package driver applies wrapper synthesis across a whole module: a parallel
// read-only scan collects resolved call sites, then a serial pass transforms
// them in deterministic order, preserving the single-writer discipline the
// caches assume.
package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"crest/internal/diag"
	"crest/internal/ir"
	"crest/internal/resolve"
)

// Options configures one driver run.
type Options struct {
	// Jobs bounds the parallel scan; 0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps the bag.
	MaxDiagnostics int
	// Resolve is handed to the pass state.
	Resolve resolve.Options
}

// DefaultOptions mirrors the production configuration.
func DefaultOptions() Options {
	return Options{
		Jobs:           0,
		MaxDiagnostics: 100,
		Resolve:        resolve.DefaultOptions(),
	}
}

// Event reports per-function progress to the UI.
type Event struct {
	Func      string
	Index     int
	Total     int
	Sites     int
	Rewritten int
	Done      bool
}

// CallSite is one transformable call found by the scan.
type CallSite struct {
	Owner ir.FuncID
	Call  *ir.Expr
	Block *ir.Block
}

// Result summarizes a run.
type Result struct {
	Funcs     int
	Sites     int
	Rewritten int
	Wrappers  int
	Bag       *diag.Bag
}

// Run scans mod for resolved call sites and rewrites each one. The scan
// fans out across functions; all mutation happens on this goroutine.
func Run(ctx context.Context, mod *ir.Module, opts Options, events chan<- Event) (*Result, error) {
	bag := diag.NewBag(opts.MaxDiagnostics)
	st := resolve.NewState(mod, resolve.NewRuleOracle(mod), diag.BagReporter{Bag: bag}, opts.Resolve)

	funcs := make([]ir.FuncID, len(mod.Defs))
	copy(funcs, mod.Defs)
	funcsBefore := mod.NumFuncs()

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	sites := make([][]CallSite, len(funcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(funcs), 1)))
	for i, fnID := range funcs {
		i, fnID := i, fnID
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			sites[i] = scanFunc(mod, fnID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Funcs: len(funcs), Bag: bag}

	for i, fnID := range funcs {
		fn := mod.Func(fnID)
		rewrittenHere := 0
		for _, site := range sites[i] {
			result.Sites++
			wrapped, ok, err := transformSite(st, site)
			if err != nil {
				return result, err
			}
			if ok && wrapped {
				rewrittenHere++
				result.Rewritten++
			}
		}
		if events != nil {
			events <- Event{
				Func:      fn.Name,
				Index:     i + 1,
				Total:     len(funcs),
				Sites:     len(sites[i]),
				Rewritten: rewrittenHere,
				Done:      true,
			}
		}
	}

	result.Wrappers = mod.NumFuncs() - funcsBefore
	return result, nil
}

// scanFunc collects top-level resolved calls in statement position. Wrappers
// synthesized earlier are left alone; running the pipeline over them again
// would be a no-op anyway.
func scanFunc(mod *ir.Module, fnID ir.FuncID) []CallSite {
	fn := mod.Func(fnID)
	if fn == nil || fn.Body == nil || fn.Flags.Has(ir.FlagWrapper) {
		return nil
	}
	var out []CallSite
	scanBlock(mod, fnID, fn.Body, &out)
	return out
}

func scanBlock(mod *ir.Module, owner ir.FuncID, b *ir.Block, out *[]CallSite) {
	for i := range b.Stmts {
		switch data := b.Stmts[i].Data.(type) {
		case ir.ExprStmtData:
			noteCall(mod, owner, b, data.Expr, out)
		case ir.MoveData:
			noteCall(mod, owner, b, data.Src, out)
		case ir.IfData:
			scanBlock(mod, owner, data.Then, out)
			if data.Else != nil {
				scanBlock(mod, owner, data.Else, out)
			}
		case ir.LoopData:
			scanBlock(mod, owner, data.Body, out)
		}
	}
}

func noteCall(mod *ir.Module, owner ir.FuncID, b *ir.Block, e *ir.Expr, out *[]CallSite) {
	data := e.AsCall()
	if data == nil || !data.Callee.Fn.IsValid() {
		return
	}
	*out = append(*out, CallSite{Owner: owner, Call: e, Block: b})
}

// transformSite rebuilds the CallInfo for one site and runs the pipeline.
// Returns whether the callee changed. Sites whose actuals are not plain
// symbol references are left untouched.
func transformSite(st *resolve.State, site CallSite) (changed, ok bool, err error) {
	mod := st.Mod
	data := site.Call.AsCall()
	callee := data.Callee.Fn

	actuals := make([]ir.VarID, len(data.Args))
	for i, arg := range data.Args {
		v := arg.VarOf()
		if !v.IsValid() {
			return false, false, nil
		}
		actuals[i] = v
	}
	names := make([]string, len(data.Args))
	if len(data.ArgNames) == len(data.Args) {
		copy(names, data.ArgNames)
	}

	anchor := findAnchor(site.Block, site.Call)
	if anchor < 0 {
		return false, false, fmt.Errorf("driver: call site detached from its block")
	}

	fn := mod.Func(site.Owner)
	info := &resolve.CallInfo{
		Call:        site.Call,
		Span:        site.Call.Span,
		Scope:       scopeFor(mod, fn),
		Block:       site.Block,
		Anchor:      anchor,
		Actuals:     actuals,
		ActualNames: names,
	}

	actualToFormal := bindActuals(mod, callee, data, names)

	wrapped, err := resolve.WrapCall(st, callee, info, actualToFormal)
	if err != nil {
		return false, false, err
	}
	resolve.RetargetCall(st, info, wrapped)
	return wrapped != callee, true, nil
}

// findAnchor locates the statement carrying the call; coercion temps are
// inserted just before it. Located lazily because earlier sites in the same
// block shift indices as they insert.
func findAnchor(b *ir.Block, call *ir.Expr) int {
	for i := range b.Stmts {
		switch data := b.Stmts[i].Data.(type) {
		case ir.ExprStmtData:
			if data.Expr == call {
				return i
			}
		case ir.MoveData:
			if data.Src == call {
				return i
			}
		}
	}
	return -1
}

// scopeFor picks the visibility block wrappers instantiate from.
func scopeFor(mod *ir.Module, fn *ir.Func) ir.ScopeID {
	if fn != nil && fn.InstantiationScope.IsValid() {
		return fn.InstantiationScope
	}
	return mod.Globals.ProgramScope
}

// bindActuals reproduces the overload resolver's pairing: named actuals bind
// by name, positional ones fill the remaining formals in declaration order.
func bindActuals(mod *ir.Module, fnID ir.FuncID, data *ir.CallData, names []string) []ir.FormalID {
	fn := mod.Func(fnID)
	out := make([]ir.FormalID, len(data.Args))
	taken := make(map[ir.FormalID]bool)

	for i := range data.Args {
		if names[i] == "" {
			continue
		}
		for _, fid := range fn.Formals {
			if mod.Formal(fid).Name == names[i] {
				out[i] = fid
				taken[fid] = true
				break
			}
		}
	}
	next := 0
	for i := range data.Args {
		if names[i] != "" {
			continue
		}
		for next < len(fn.Formals) && taken[fn.Formals[next]] {
			next++
		}
		if next < len(fn.Formals) {
			out[i] = fn.Formals[next]
			taken[fn.Formals[next]] = true
		}
	}
	return out
}
