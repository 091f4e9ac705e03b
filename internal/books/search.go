package books

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var searchColumns = []string{"title", "author", "genre", "description"}

// Tokenize splits a free-text query on whitespace.
func Tokenize(q string) []string {
	return strings.Fields(q)
}

// likePattern lower-cases the token and escapes LIKE wildcards before wrapping it in %...%.
func likePattern(token string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(token)) + "%"
}

// tokenClause matches token against any searchable column.
func tokenClause(token string) (string, []any) {
	pattern := likePattern(token)
	parts := make([]string, 0, len(searchColumns))
	args := make([]any, 0, len(searchColumns))
	for _, col := range searchColumns {
		parts = append(parts, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
