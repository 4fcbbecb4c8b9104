package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains builds an ILIKE pattern matching s anywhere
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// startsWith builds an ILIKE pattern matching s as a prefix
func startsWith(s string) string {
	return likeEscaper.Replace(s) + "%"
}
