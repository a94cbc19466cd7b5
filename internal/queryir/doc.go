// Package queryir provides the typed description of a statement that the
// SQL compiler consumes.
//
// Loosely-typed descriptions (CUE, YAML, maps with sentinel operator
// strings such as "IN" or "NOT BETWEEN") are decoded into these types once,
// at the boundary, by package compiler. Nothing below that boundary infers
// operators from strings.
//
// SEALED INTERFACES:
//
// Statement, ConditionExpr and Predicate are sealed interfaces using the
// marker method pattern. Only types in this package implement them, so the
// compiler can switch over them exhaustively:
//
//	switch c := cond.(type) {
//	case Leaf:
//	    // column + predicate
//	case Group:
//	    // AND / OR over ordered children
//	case ColumnEquals:
//	    // column = column
//	}
//
// ORDERING:
//
// Every list here is ordered and the order is significant: column lists,
// table alias mappings, join lists, group children, assignment lists and
// IN value lists all compile in slice order. The compiler never sorts or
// deduplicates, which is what keeps placeholders and bind values aligned.
//
// Example:
//
//	queryir.Select{
//	  Table:   queryir.Table("users"),
//	  Columns: queryir.Columns("id", "name"),
//	  Where: queryir.And(
//	    queryir.Filter("id", queryir.In{Values: []ir.Value{ir.Int(1), ir.Int(2)}}),
//	    queryir.Or(
//	      queryir.Filter("role", queryir.Equals{Value: ir.Text("admin")}),
//	      queryir.Filter("deleted_at", queryir.IsNull{}),
//	    ),
//	  ),
//	}
//
// compiles to
//
//	SELECT `id`, `name` FROM `users`
//	WHERE `id` IN (?, ?) AND (`role` = ? OR `deleted_at` IS NULL)
package queryir
