// Package sqllex holds vendor lexical rules shared by the statement builders.
package sqllex

import "strings"

// oracleReserved lists the Oracle reserved words that cannot appear unquoted as identifiers.
// See the Oracle Database SQL Language Reference, "Oracle SQL Reserved Words".
var oracleReserved = map[string]struct{}{
	"ACCESS": {}, "ADD": {}, "ALL": {}, "ALTER": {}, "AND": {}, "ANY": {}, "AS": {}, "ASC": {},
	"BEGIN": {}, "BETWEEN": {}, "BY": {}, "CASE": {}, "CHECK": {}, "COLUMN": {}, "COMMENT": {},
	"CONNECT": {}, "CREATE": {}, "CURRENT": {}, "DELETE": {}, "DESC": {}, "DISTINCT": {},
	"DROP": {}, "ELSE": {}, "EXCLUDE": {}, "EXISTS": {}, "FOR": {}, "FROM": {}, "GRANT": {},
	"GROUP": {}, "HAVING": {}, "IN": {}, "INDEX": {}, "INSERT": {}, "INTERSECT": {}, "INTO": {},
	"IS": {}, "LEVEL": {}, "LIKE": {}, "LOCK": {}, "MINUS": {}, "MODE": {}, "NOCOMPRESS": {},
	"NOT": {}, "NULL": {}, "NUMBER": {}, "OF": {}, "ON": {}, "OPTION": {}, "OR": {}, "ORDER": {},
	"ROW": {}, "ROWNUM": {}, "SELECT": {}, "SET": {}, "SHARE": {}, "SIZE": {}, "START": {},
	"TABLE": {}, "THEN": {}, "TO": {}, "TRIGGER": {}, "UNION": {}, "UNIQUE": {}, "UPDATE": {},
	"VALUES": {}, "VIEW": {}, "WHEN": {}, "WHERE": {}, "WITH": {},
}

// IsOracleReserved reports whether word is an Oracle reserved word, ignoring case.
func IsOracleReserved(word string) bool {
	_, ok := oracleReserved[strings.ToUpper(word)]
	return ok
}

// QuoteOracle returns ident double-quoted and upper-cased when it is a reserved word,
// and unchanged otherwise. Qualified names are handled per segment, so "t.number"
// becomes t."NUMBER". Already quoted segments are left alone.
func QuoteOracle(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if strings.HasPrefix(p, `"`) || !IsOracleReserved(p) {
			continue
		}
		parts[i] = `"` + strings.ToUpper(p) + `"`
	}
	return strings.Join(parts, ".")
}
