package postgres

import (
	sq "github.com/Masterminds/squirrel"
)

// Builder returns a statement builder configured for PostgreSQL
// positional placeholders ($1, $2, ...).
func Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
