// Package bytecode provides immutable representations of compiled templates.
//
// This package defines the output of compilation: pure data structures that
// represent compiled bytecode and associated metadata. These types are
// created once during compilation and shared safely across renders.
//
// # Key Types
//
//   - [Unit]: A compiled template with its main code, blocks, macros and imports
//   - [Code]: An immutable compiled code block (template body, block, macro, etc.)
//   - [Macro]: A compiled macro with its parameters
//   - [SourceLocation]: Maps bytecode to source positions (value type)
//   - [TraceEntry]: Maps a compiled statement to its template line (value type)
//
// # Immutability Guarantees
//
// Code, Macro and Unit keep their fields unexported and copy input slices in
// their constructors. Index-based access is used for all collections:
//
//	code.InstructionAt(0)
//	code.ConstantAt(i)
//	unit.BlockAt(j)
//
// # Line Trace
//
// Every compiled statement records a [TraceEntry] on its code block. When a
// render fails, [Code.LineAt] maps the failing instruction back to the
// template line, and the dis package uses the same table to build a trace
// keyed by listing line.
package bytecode
