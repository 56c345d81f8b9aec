package testkit

import (
	"crest/internal/ir"
	"crest/internal/resolve"
	"crest/internal/source"
)

var spanless = source.Span{}

// DemoSite is one prepared call site of the demo module.
type DemoSite struct {
	Label          string
	Fn             ir.FuncID
	Info           *resolve.CallInfo
	ActualToFormal []ir.FormalID
}

// BuildDemoModule assembles a module exercising each pipeline stage:
// defaults with reordering, a sync coercion chain, and array promotion.
func BuildDemoModule() (*Fixture, []DemoSite) {
	f := NewFixture()
	bt := f.Types.Builtins()

	// clamp(a: int, b: int = 10, c: int = 20) called as clamp(c=3, a=1)
	clamp := f.DefineFunc("clamp", bt.Int,
		FormalSpec{Name: "a", Type: bt.Int},
		FormalSpec{Name: "b", Type: bt.Int, Default: f.IntDefault(10)},
		FormalSpec{Name: "c", Type: bt.Int, Default: f.IntDefault(20)},
	)
	one := f.Mod.NewIntLit(1, spanless)
	three := f.Mod.NewIntLit(3, spanless)
	clampInfo, clampMap := f.CallSite(clamp, ByName("c", three), ByName("a", one))

	// scale(x: real) called with a sync(int) actual
	scale := f.DefineFunc("scale", bt.Real,
		FormalSpec{Name: "x", Type: bt.Real},
	)
	syncInt := f.Types.MakeSync(bt.Int)
	cell := f.Mod.NewVar("cell", syncInt, spanless)
	scaleInfo, scaleMap := f.CallSite(scale, Pos(cell))

	// square(x: int): int called with an array actual
	square := f.DefineFunc("square", bt.Int,
		FormalSpec{Name: "x", Type: bt.Int},
	)
	intArray := f.Types.MakeArray(bt.Int)
	data := f.Mod.NewVar("data", intArray, spanless)
	squareInfo, squareMap := f.CallSite(square, Pos(data))

	sites := []DemoSite{
		{Label: "defaults+reorder", Fn: clamp, Info: clampInfo, ActualToFormal: clampMap},
		{Label: "coercion chain", Fn: scale, Info: scaleInfo, ActualToFormal: scaleMap},
		{Label: "promotion", Fn: square, Info: squareInfo, ActualToFormal: squareMap},
	}
	return f, sites
}
