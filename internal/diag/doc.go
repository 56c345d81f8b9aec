// Package diag defines the diagnostic model shared by the resolution passes
// and the driver.
//
//   - Diagnostic is the central, data-only record: severity, stable numeric
//     code, message, primary span, optional notes.
//   - Reporter decouples emission from storage; BagReporter aggregates into a
//     Bag, which supports merging and deterministic sorting.
//   - ReportBuilder offers a small fluent surface for attaching notes before
//     emitting.
//
// The package performs no formatting or IO. The CLI renders bags; passes only
// fill them. Internal compiler errors panic (see internal/resolve); the only
// one that also reports here is the coercion cap, which emits
// ResCoercionDepth just before it panics.
package diag
