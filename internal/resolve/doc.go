// Package resolve implements call-site wrapper synthesis.
//
// Crest calls carry named arguments, default values, implicit coercions and
// scalar-to-array promotion; the code generator only emits plain positional
// calls. WrapCall rewrites one resolved call site so its actuals are
// positional, typed and numerically compatible with the callee — synthesizing
// a wrapper function when the callee itself cannot absorb the difference:
//
//   - default wrapper: supplies values for omitted formals and forwards the
//     rest to the origin;
//   - reorder: permutes the actual list into formal order (no wrapper);
//   - coercion: inserts explicit casts, dereferences and sync reads per
//     actual until its type matches the formal;
//   - promotion wrapper: lifts a scalar function over collection actuals,
//     producing serial, leader and follower iterators plus fast-follower
//     checks.
//
// The stages run in that order; each completes before the next begins.
// Overload resolution happens elsewhere: the actual-to-formal correspondence
// is an input, and type questions go through the Oracle. Wrappers are
// deduplicated process-wide through the two caches on State.
package resolve
