// Package ir provides the input expression types for the s-expression SQL
// compiler.
//
// This package contains type definitions and encodings only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Expr is sealed: the compiler switches over the full variant set
//   - Expressions are immutable once handed to the compiler
//   - MarshalCanonical is the ONLY encoding used for cache identity
package ir
