// Package parser implements a recursive-descent parser over the
// lexer's tokens, producing the small statement set the executor
// understands.
package parser

import "tinydb/internal/sql/types"

// Statement is the common interface implemented by every parsed
// statement form.
type Statement interface {
	statementNode()
}

// ColumnDef is one column in a CREATE TABLE statement.
type ColumnDef struct {
	Name      string
	Type      types.ColumnType
	MaxLength int
	Nullable  bool
}

// CreateTableStmt is a parsed CREATE TABLE statement.
type CreateTableStmt struct {
	TableName string
	Columns   []ColumnDef
}

func (*CreateTableStmt) statementNode() {}

// InsertStmt is a parsed INSERT INTO ... VALUES statement.
type InsertStmt struct {
	TableName string
	Values    []Literal
}

func (*InsertStmt) statementNode() {}

// Predicate is the single `column = literal` equality WHERE clause
// this grammar supports. A nil *Predicate on a statement matches
// every row.
type Predicate struct {
	Column  string
	Literal Literal
}

// SelectStmt is a parsed SELECT * FROM ... [WHERE ...] statement.
type SelectStmt struct {
	TableName string
	Where     *Predicate
}

func (*SelectStmt) statementNode() {}

// DeleteStmt is a parsed DELETE FROM ... [WHERE ...] statement.
type DeleteStmt struct {
	TableName string
	Where     *Predicate
}

func (*DeleteStmt) statementNode() {}

// UpdateStmt is a parsed UPDATE ... SET ... [WHERE ...] statement.
type UpdateStmt struct {
	TableName string
	SetColumn string
	SetValue  Literal
	Where     *Predicate
}

func (*UpdateStmt) statementNode() {}

// Literal is a parsed literal value: a number, a string, or NULL.
// Which field is meaningful is selected by IsNull/IsInt, mirroring
// types.Value but independent of any column's declared type until
// the executor resolves it against a schema.
type Literal struct {
	IsNull bool
	IsInt  bool
	Int    int32
	Str    string
}
