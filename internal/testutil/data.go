package testutil

import (
	"fmt"

	"tinydb/internal/sql/types"
)

// SampleSchema returns a two-column schema (id INTEGER, name VARCHAR)
// as a stand-in table shape for tests.
func SampleSchema() []types.Column {
	return []types.Column{
		{Name: "id", Type: types.Integer, Nullable: false},
		{Name: "name", Type: types.Varchar, MaxLength: 64, Nullable: true},
	}
}

// GenerateRow builds the n-th row for SampleSchema: a deterministic id
// and a name derived from prefix, so callers can assert on values
// they generated themselves.
func GenerateRow(prefix string, n int) []types.Value {
	return []types.Value{
		types.NewInt(int32(n)),
		types.NewString(fmt.Sprintf("%s_%d", prefix, n)),
	}
}

// GenerateRows builds n rows for SampleSchema.
func GenerateRows(prefix string, n int) [][]types.Value {
	rows := make([][]types.Value, n)
	for i := 0; i < n; i++ {
		rows[i] = GenerateRow(prefix, i)
	}
	return rows
}
