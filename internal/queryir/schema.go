package queryir

import "github.com/roach88/sexpsql/internal/ir"

// Schema describes table columns and table-level constraints.
//
// Semantics:
//
//	<column>, <column>, ..., <constraint>, <constraint>
//
// Example (reader syntax):
//
//	([name (id integer :primary-key)] (:unique [name]))
//
// describes
//
//	Schema{
//	  Columns: []Column{
//	    {Name: ir.Sym("name")},
//	    {Name: ir.Sym("id"), Type: "integer", Constraints: []ir.Expr{ir.Kw("primary-key")}},
//	  },
//	  Constraints: []Constraint{{ir.Kw("unique"), ir.Vec(ir.Sym("name"))}},
//	}
type Schema struct {
	Columns     []Column
	Constraints []Constraint
}

// Column is a single column definition.
type Column struct {
	// Name is the column name, escaped as an identifier.
	Name ir.Expr
	// Type is the scalar type tag ("integer", "float", "object"), or empty
	// for an untagged column.
	Type string
	// Constraints is the column constraint sequence, e.g. :not-null :default 0.
	Constraints []ir.Expr
}

// Constraint is a table-level constraint sequence, e.g.
// :foreign-key [owner] :references people [id].
type Constraint []ir.Expr
