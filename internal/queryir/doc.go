// Package queryir provides the compiled form of a query: a reusable text
// template plus the ordered list of typed placeholders it expects.
//
// ARCHITECTURE:
//
// Compilation and filling are split so one compile serves many executions:
//
//	[ir.Expr] → compile → [Template] → fill(args) → SQL text
//
// The template text carries one generic marker ("%s") per placeholder, in
// left-to-right occurrence order. Literal percent signs are escaped as "%%"
// so every "%s" in the text is a marker.
//
// PLACEHOLDERS:
//
// A placeholder is written $<letter><n> in source, where the letter selects
// the kind and n is a one-based argument position:
//
//	$i1   identifier   first argument, escaped as an identifier
//	$s2   scalar       second argument, escaped as a literal
//	$v1   vector       first argument, escaped as a row or rows
//	$S1   schema       first argument, compiled as a column schema
//
// Positions are independent of marker order. (<= $s1 $s2 $s3) compiles to
// "%s BETWEEN %s AND %s" with placeholder indexes [1 0 2].
//
// SCHEMAS:
//
// Schema, Column and Constraint describe DDL column lists. They are the
// parsed form of inline schemas and of $S arguments.
package queryir
