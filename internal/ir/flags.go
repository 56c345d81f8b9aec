package ir

import "strings"

// Flags is a bitset of semantic markers shared by functions, formals and
// variables. One enumeration keeps the wrapper-synthesis preservation rules
// auditable in a single place.
type Flags uint64

const (
	// FlagWrapper marks a synthesized call wrapper.
	FlagWrapper Flags = 1 << iota
	// FlagInvisible hides a function from user-facing listings.
	FlagInvisible
	// FlagInline requests inlining during lowering.
	FlagInline
	// FlagCompilerGenerated marks nodes the compiler created.
	FlagCompilerGenerated
	// FlagWasCompilerGenerated records that a wrapper's origin was itself
	// compiler generated.
	FlagWasCompilerGenerated
	// FlagInitCopyFn marks the initCopy entry point for a type.
	FlagInitCopyFn
	// FlagAutoCopyFn marks the autoCopy entry point for a type.
	FlagAutoCopyFn
	// FlagAutoDestroyFn marks the autoDestroy entry point for a type.
	FlagAutoDestroyFn
	// FlagDonorFn marks functions whose result donates ownership.
	FlagDonorFn
	// FlagNoParens marks parenless callables.
	FlagNoParens
	// FlagConstructor marks any constructor.
	FlagConstructor
	// FlagDefaultConstructor marks the compiler-built all-fields constructor.
	FlagDefaultConstructor
	// FlagFieldAccessor marks generated field getters.
	FlagFieldAccessor
	// FlagRefToConst marks accessors returning a reference to const state.
	FlagRefToConst
	// FlagMethod marks functions taking a receiver.
	FlagMethod
	// FlagMethodPrimary marks methods declared inside their type.
	FlagMethodPrimary
	// FlagAssignOp marks compound assignment operators.
	FlagAssignOp
	// FlagLastResort marks overloads considered only when nothing else fits.
	FlagLastResort
	// FlagPromotionWrapper marks a scalar-over-collection promotion wrapper.
	FlagPromotionWrapper
	// FlagIterator marks iterator functions.
	FlagIterator
	// FlagInlineIterator marks iterators that must be inlined into loops.
	FlagInlineIterator
	// FlagGeneric marks functions awaiting instantiation.
	FlagGeneric
	// FlagResolved is set once a function's body has been fully resolved.
	FlagResolved
	// FlagExtern marks functions with external linkage.
	FlagExtern
	// FlagTypeConstructor marks type-level constructors.
	FlagTypeConstructor
	// FlagMeme marks the hidden self-type placeholder formal.
	FlagMeme
	// FlagTypeVariable marks formals and temps holding types, not values.
	FlagTypeVariable
	// FlagMaybeParam marks temps that may fold to compile-time values.
	FlagMaybeParam
	// FlagMaybeType marks temps that may hold type values.
	FlagMaybeType
	// FlagExprTemp marks temps materialized for subexpression results.
	FlagExprTemp
	// FlagInsertAutoDestroy requests destructor insertion at scope exit.
	FlagInsertAutoDestroy
	// FlagCoerceTemp marks temps introduced by actual coercion.
	FlagCoerceTemp
	// FlagArgThis marks the receiver actual of a method call.
	FlagArgThis
	// FlagWrapWrittenFormal marks wrapper formals standing in for out/inout
	// originals.
	FlagWrapWrittenFormal
	// FlagConst marks values that must not be written.
	FlagConst
	// FlagRefForConstFieldOfThis marks references derived from const fields
	// of the receiver.
	FlagRefForConstFieldOfThis
	// FlagInstantiatedParam marks symbols bound to instantiated param values.
	FlagInstantiatedParam
)

// Has returns true if every given flag is set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// With returns the set with flag added.
func (f Flags) With(flag Flags) Flags {
	return f | flag
}

// Without returns the set with flag cleared.
func (f Flags) Without(flag Flags) Flags {
	return f &^ flag
}

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagWrapper, "wrapper"},
	{FlagInvisible, "invisible"},
	{FlagInline, "inline"},
	{FlagCompilerGenerated, "compiler-generated"},
	{FlagWasCompilerGenerated, "was-compiler-generated"},
	{FlagInitCopyFn, "init-copy-fn"},
	{FlagAutoCopyFn, "auto-copy-fn"},
	{FlagAutoDestroyFn, "auto-destroy-fn"},
	{FlagDonorFn, "donor-fn"},
	{FlagNoParens, "no-parens"},
	{FlagConstructor, "constructor"},
	{FlagDefaultConstructor, "default-constructor"},
	{FlagFieldAccessor, "field-accessor"},
	{FlagRefToConst, "ref-to-const"},
	{FlagMethod, "method"},
	{FlagMethodPrimary, "method-primary"},
	{FlagAssignOp, "assign-op"},
	{FlagLastResort, "last-resort"},
	{FlagPromotionWrapper, "promotion-wrapper"},
	{FlagIterator, "iterator"},
	{FlagInlineIterator, "inline-iterator"},
	{FlagGeneric, "generic"},
	{FlagResolved, "resolved"},
	{FlagExtern, "extern"},
	{FlagTypeConstructor, "type-constructor"},
	{FlagMeme, "meme"},
	{FlagTypeVariable, "type-variable"},
	{FlagMaybeParam, "maybe-param"},
	{FlagMaybeType, "maybe-type"},
	{FlagExprTemp, "expr-temp"},
	{FlagInsertAutoDestroy, "insert-auto-destroy"},
	{FlagCoerceTemp, "coerce-temp"},
	{FlagArgThis, "arg-this"},
	{FlagWrapWrittenFormal, "wrap-written-formal"},
	{FlagConst, "const"},
	{FlagRefForConstFieldOfThis, "ref-for-const-field-of-this"},
	{FlagInstantiatedParam, "instantiated-param"},
}

// String renders the set as a space-separated list of flag names.
func (f Flags) String() string {
	var b strings.Builder
	for _, entry := range flagNames {
		if f.Has(entry.flag) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(entry.name)
		}
	}
	return b.String()
}
