package lineage

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapcatalog/internal/schema"
)

// Resolver is the default StatementResolver. It tokenizes a statement
// and recognizes the clauses that move data: FROM/JOIN/USING reads and
// INSERT/UPDATE/DELETE/MERGE/TRUNCATE/CREATE TABLE/SELECT INTO writes.
// References are qualified against the procedure's default database and
// schema; when a schema catalog is supplied, names it does not know are
// left unresolved.
//
// CTE names introduced by WITH are not table references and are
// excluded. Statements the resolver cannot tokenize (for example an
// unterminated string literal) fail with an error; the caller counts
// the failure and continues with the remaining statements.
type Resolver struct {
	catalog *schema.Catalog
}

// NewResolver creates a resolver. The catalog may be nil, in which case
// qualification alone decides whether a reference is resolved.
func NewResolver(catalog *schema.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve implements StatementResolver.
func (r *Resolver) Resolve(stmt, defaultDB, defaultSchema string) ([]TableRef, error) {
	toks, err := tokenize(stmt)
	if err != nil {
		return nil, err
	}

	ctes := collectCTENames(toks)

	var refs []TableRef
	seen := make(map[string]struct{})
	add := func(raw string, role Role) {
		if raw == "" {
			return
		}
		// The catalog knows tables, not procedures; call targets are
		// qualified but not checked against it.
		ref := r.qualify(raw, defaultDB, defaultSchema, role != RoleCall)
		ref.Role = role
		if len(splitName(raw)) == 1 {
			if _, ok := ctes[strings.ToLower(raw)]; ok {
				return
			}
		}
		key := strings.ToLower(ref.FullName()) + "|" + role.String()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		refs = append(refs, ref)
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !t.ident {
			continue
		}
		switch strings.ToUpper(t.text) {
		case "INSERT":
			i++
			if kwAt(toks, i, "INTO") {
				i++
			}
			name, next := readName(toks, i)
			add(name, RoleWrite)
			i = next
		case "MERGE":
			i++
			if kwAt(toks, i, "INTO") {
				i++
			}
			name, next := readName(toks, i)
			add(name, RoleWrite)
			i = next
		case "UPDATE":
			if i > 0 && kwAt(toks, i-1, "FOR") {
				continue // SELECT ... FOR UPDATE locking clause
			}
			name, next := readName(toks, i+1)
			add(name, RoleWrite)
			i = next
		case "DELETE":
			i++
			if kwAt(toks, i, "FROM") {
				i++
			}
			name, next := readName(toks, i)
			add(name, RoleWrite)
			i = next
		case "TRUNCATE":
			i++
			if kwAt(toks, i, "TABLE") {
				i++
			}
			name, next := readName(toks, i)
			add(name, RoleWrite)
			i = next
		case "CREATE":
			// Skip modifiers up to TABLE or VIEW: OR REPLACE,
			// TEMP/TEMPORARY, MATERIALIZED, UNLOGGED.
			j := i + 1
			for j < len(toks) && j < i+5 && toks[j].ident &&
				!kwAt(toks, j, "TABLE") && !kwAt(toks, j, "VIEW") {
				j++
			}
			if !kwAt(toks, j, "TABLE") && !kwAt(toks, j, "VIEW") {
				continue
			}
			j++
			if kwAt(toks, j, "IF") { // IF NOT EXISTS
				j += 3
			}
			name, next := readName(toks, j)
			add(name, RoleWrite)
			i = next
		case "INTO":
			// Bare INTO after SELECT (T-SQL SELECT INTO).
			name, next := readName(toks, i+1)
			add(name, RoleWrite)
			i = next
		case "FROM":
			i = r.readFromList(toks, i+1, add)
		case "JOIN":
			j := i + 1
			if kwAt(toks, j, "LATERAL") {
				j++
			}
			if symAt(toks, j, "(") {
				continue // derived table; inner FROM handled on its own
			}
			name, next := readName(toks, j)
			add(name, RoleRead)
			i = next
		case "USING":
			if symAt(toks, i+1, "(") {
				continue // join USING (cols)
			}
			name, next := readName(toks, i+1)
			add(name, RoleRead)
			i = next
		case "CALL", "EXEC", "EXECUTE":
			name, next := readName(toks, i+1)
			add(name, RoleCall)
			i = next
		}
	}

	return refs, nil
}

// readFromList captures the comma-separated table list after FROM.
func (r *Resolver) readFromList(toks []token, i int, add func(string, Role)) int {
	for {
		if symAt(toks, i, "(") {
			// Derived table; its FROM clause is scanned separately.
			return i - 1
		}
		name, next := readName(toks, i)
		if name == "" {
			return i - 1
		}
		if symAt(toks, next+1, "(") {
			// Table function call, not a table reference.
			return next
		}
		add(name, RoleRead)
		i = next + 1
		// Skip an optional alias.
		if kwAt(toks, i, "AS") {
			i += 2
		} else if i < len(toks) && toks[i].ident && !reserved[strings.ToUpper(toks[i].text)] {
			i++
		}
		if !symAt(toks, i, ",") {
			return i - 1
		}
		i++
	}
}

// qualify turns a raw dotted name into a TableRef against the defaults.
func (r *Resolver) qualify(raw, defaultDB, defaultSchema string, checkCatalog bool) TableRef {
	parts := splitName(raw)
	ref := TableRef{Raw: raw}
	switch len(parts) {
	case 1:
		ref.DB, ref.Schema, ref.Name = defaultDB, defaultSchema, parts[0]
	case 2:
		ref.DB, ref.Schema, ref.Name = defaultDB, parts[0], parts[1]
	case 3:
		ref.DB, ref.Schema, ref.Name = parts[0], parts[1], parts[2]
	default:
		// server.db.schema.name: the server prefix is dropped.
		n := len(parts)
		ref.DB, ref.Schema, ref.Name = parts[n-3], parts[n-2], parts[n-1]
	}

	if ref.DB == "" || ref.Schema == "" || ref.Name == "" {
		return ref
	}
	if checkCatalog && r.catalog != nil && r.catalog.Len() > 0 {
		if _, ok := r.catalog.Lookup(ref.DB, ref.Schema, ref.Name); !ok {
			return ref
		}
	}
	ref.Resolved = true
	return ref
}

func splitName(raw string) []string {
	return strings.Split(raw, ".")
}

// reserved are keywords that terminate an implicit alias position.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true,
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"CROSS": true, "OUTER": true, "ON": true, "USING": true,
	"GROUP": true, "ORDER": true, "HAVING": true, "LIMIT": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "SET": true,
	"VALUES": true, "RETURNING": true, "AS": true, "WITH": true,
	"INTO": true, "WHEN": true, "MATCHED": true, "THEN": true,
	"AND": true, "OR": true, "NOT": true, "CASE": true, "END": true,
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
}

// collectCTENames finds names bound by WITH ... AS ( so that references
// to them are not mistaken for physical tables.
func collectCTENames(toks []token) map[string]struct{} {
	names := make(map[string]struct{})
	for i := 0; i < len(toks); i++ {
		if !toks[i].ident || reserved[strings.ToUpper(toks[i].text)] {
			continue
		}
		j := i + 1
		if symAt(toks, j, "(") { // optional column list
			j = skipBalanced(toks, j)
		}
		if kwAt(toks, j, "AS") && symAt(toks, j+1, "(") {
			names[strings.ToLower(toks[i].text)] = struct{}{}
		}
	}
	return names
}

// skipBalanced returns the index after the group opened at i.
func skipBalanced(toks []token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		switch toks[i].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// readName reads a dotted identifier starting at i. It returns the name
// and the index of its last token, or ("", i) when i is not an
// identifier. Reserved words are not names; this keeps clauses like
// "WHEN MATCHED THEN DELETE" from producing phantom references.
func readName(toks []token, i int) (string, int) {
	if i >= len(toks) || !toks[i].ident || reserved[strings.ToUpper(toks[i].text)] {
		return "", i
	}
	parts := []string{toks[i].text}
	for i+2 < len(toks) && symAt(toks, i+1, ".") && toks[i+2].ident {
		parts = append(parts, toks[i+2].text)
		i += 2
	}
	return strings.Join(parts, "."), i
}

func kwAt(toks []token, i int, kw string) bool {
	return i < len(toks) && toks[i].ident && strings.EqualFold(toks[i].text, kw)
}

func symAt(toks []token, i int, sym string) bool {
	return i < len(toks) && !toks[i].ident && toks[i].text == sym
}

// token is a lexed fragment of a statement. Quoting is stripped from
// identifiers; string literals and numbers are non-ident tokens.
type token struct {
	text  string
	ident bool
}

// tokenize lexes a statement. It fails on unterminated string literals
// and quoted identifiers; everything else is tolerated.
func tokenize(stmt string) ([]token, error) {
	var toks []token
	for i := 0; i < len(stmt); {
		c := stmt[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && i+1 < len(stmt) && stmt[i+1] == '-':
			for i < len(stmt) && stmt[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(stmt) && stmt[i+1] == '*':
			end := strings.Index(stmt[i+2:], "*/")
			if end < 0 {
				i = len(stmt)
				break
			}
			i += end + 4
		case c == '\'':
			end, err := scanQuoted(stmt, i, '\'')
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{text: stmt[i:end], ident: false})
			i = end
		case c == '"':
			end, err := scanQuoted(stmt, i, '"')
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{text: stmt[i+1 : end-1], ident: true})
			i = end
		case c == '`':
			end, err := scanQuoted(stmt, i, '`')
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{text: stmt[i+1 : end-1], ident: true})
			i = end
		case c == '[':
			end := strings.IndexByte(stmt[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated bracketed identifier at offset %d", i)
			}
			toks = append(toks, token{text: stmt[i+1 : i+end], ident: true})
			i += end + 1
		case isIdentStart(c):
			j := i + 1
			for j < len(stmt) && isIdentPart(stmt[j]) {
				j++
			}
			toks = append(toks, token{text: stmt[i:j], ident: true})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(stmt) && (isIdentPart(stmt[j]) || stmt[j] == '.') {
				j++
			}
			toks = append(toks, token{text: stmt[i:j], ident: false})
			i = j
		default:
			toks = append(toks, token{text: string(c), ident: false})
			i++
		}
	}
	return toks, nil
}

// scanQuoted returns the index just past the closing quote. Doubled
// quotes are escapes.
func scanQuoted(s string, start int, quote byte) (int, error) {
	for i := start + 1; i < len(s); i++ {
		if s[i] == quote {
			if i+1 < len(s) && s[i+1] == quote {
				i++
				continue
			}
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated %q at offset %d", string(quote), start)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '#' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '$' || (c >= '0' && c <= '9')
}
