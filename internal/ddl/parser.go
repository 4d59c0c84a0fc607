package ddl

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"ddl-pump/internal/schema"
)

// Severity classifies a parse diagnostic.
type Severity int

const (
	// Warning: a fragment was skipped but its table was kept.
	Warning Severity = iota
	// Anomaly: duplicate table names or references to unknown tables.
	Anomaly
	// Structural: a whole CREATE TABLE block was dropped.
	Structural
)

func (s Severity) String() string {
	switch s {
	case Anomaly:
		return "anomaly"
	case Structural:
		return "structural"
	default:
		return "warning"
	}
}

type Diagnostic struct {
	Severity Severity
	Table    string
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	if d.Table == "" {
		return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Message)
	}
	return fmt.Sprintf("line %d: %s: table %s: %s", d.Line, d.Severity, d.Table, d.Message)
}

// Parser turns DDL text into a schema.Schema. The zero value is ready to use.
type Parser struct {
	// Logger receives every diagnostic as it is raised. Nil discards.
	Logger *slog.Logger
}

// Parse parses text with a silent Parser.
func Parse(text string) (*schema.Schema, []Diagnostic) {
	return (&Parser{}).Parse(text)
}

// parse holds the state of one Parse call.
type parse struct {
	src    string
	tokens []Token
	logger *slog.Logger
	diags  []Diagnostic
	schema *schema.Schema
	// fkLines remembers where each edge was declared for late diagnostics.
	fkLines map[*schema.ForeignKey]int
}

// Parse never fails: a CREATE TABLE block is either fully structured or
// dropped with a Structural diagnostic, and a document without tables yields
// an empty schema. Recognized statements are CREATE TABLE, CREATE UNIQUE
// INDEX and ALTER TABLE ... ADD; everything else is skipped.
func (p *Parser) Parse(text string) (*schema.Schema, []Diagnostic) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ps := &parse{
		src:    text,
		tokens: Tokenize(text),
		logger: logger,
		schema: &schema.Schema{},

		fkLines: make(map[*schema.ForeignKey]int),
	}
	ps.run()
	ps.resolveReferences()
	return ps.schema, ps.diags
}

func (ps *parse) report(sev Severity, table string, line int, format string, args ...any) {
	d := Diagnostic{Severity: sev, Table: table, Line: line, Message: fmt.Sprintf(format, args...)}
	ps.diags = append(ps.diags, d)
	ps.logger.Warn(d.Message, "severity", sev.String(), "table", table, "line", line)
}

func (ps *parse) tok(i int) Token {
	if i < len(ps.tokens) {
		return ps.tokens[i]
	}
	return ps.tokens[len(ps.tokens)-1] // EOF
}

func (ps *parse) run() {
	for i := 0; i < len(ps.tokens); i++ {
		t := ps.tokens[i]
		switch {
		case t.Is("CREATE"):
			i = ps.createStatement(i)
		case t.Is("ALTER") && ps.tok(i+1).Is("TABLE"):
			i = ps.alterTable(i)
		}
	}
}

// createStatement dispatches CREATE TABLE / CREATE UNIQUE INDEX starting at
// index i and returns the index of the last consumed token.
func (ps *parse) createStatement(i int) int {
	j := i + 1
	if ps.tok(j).Is("OR") && ps.tok(j+1).Is("REPLACE") {
		j += 2
	}
	for ps.tok(j).Is("TEMP") || ps.tok(j).Is("TEMPORARY") || ps.tok(j).Is("UNLOGGED") ||
		ps.tok(j).Is("GLOBAL") || ps.tok(j).Is("LOCAL") {
		j++
	}
	switch {
	case ps.tok(j).Is("TABLE"):
		return ps.createTable(i, j+1)
	case ps.tok(j).Is("UNIQUE") && ps.tok(j+1).Is("INDEX"):
		return ps.createUniqueIndex(j + 2)
	}
	return i
}

func (ps *parse) skipIfNotExists(j int) int {
	if ps.tok(j).Is("IF") && ps.tok(j+1).Is("NOT") && ps.tok(j+2).Is("EXISTS") {
		return j + 3
	}
	return j
}

// qualifiedName reads name or schema.name at j.
func (ps *parse) qualifiedName(j int) (qualifier, name string, next int, ok bool) {
	if !ps.tok(j).IsName() {
		return "", "", j, false
	}
	name = ps.tok(j).Value
	j++
	for ps.tok(j).Type == Dot && ps.tok(j+1).IsName() {
		qualifier = name
		name = ps.tok(j + 1).Value
		j += 2
	}
	return qualifier, name, j, true
}

func (ps *parse) createTable(start, j int) int {
	line := ps.tok(start).Line
	j = ps.skipIfNotExists(j)

	qualifier, name, j, ok := ps.qualifiedName(j)
	if !ok {
		ps.report(Structural, "", line, "CREATE TABLE without a table name")
		return j
	}
	if ps.tok(j).Type != ParenOpen {
		ps.report(Structural, name, line, "CREATE TABLE without a column list")
		return j
	}

	closeIdx, stop, ok := bodyEnd(ps.tokens, j)
	if !ok {
		ps.report(Structural, name, line, "unmatched parenthesis, table dropped")
		return stop
	}

	table := ps.parseTableBody(qualifier, name, ps.tokens[j+1:closeIdx])
	if table != nil {
		table.Quoted = ps.tok(j-1).Type == Quoted
	}
	if table == nil {
		return closeIdx
	}
	if ps.schema.Table(name) != nil {
		ps.report(Anomaly, name, line, "duplicate CREATE TABLE ignored, first definition wins")
		return closeIdx
	}
	ps.schema.Tables = append(ps.schema.Tables, table)
	return closeIdx
}

// bodyEnd finds the parenthesis closing a CREATE TABLE column list. A ';'
// or a CREATE keyword met before it ends the broken statement: ok is false
// and stop is the last token to skip, so the next statement is still parsed.
func bodyEnd(tokens []Token, open int) (closeIdx, stop int, ok bool) {
	depth := 0
	for k := open; k < len(tokens); k++ {
		switch t := tokens[k]; {
		case t.Type == ParenOpen:
			depth++
		case t.Type == ParenClose:
			depth--
			if depth == 0 {
				return k, k, true
			}
		case t.Type == Semicolon:
			return 0, k, false
		case t.Is("CREATE"), t.Type == EOF:
			return 0, k - 1, false
		}
	}
	return 0, len(tokens) - 1, false
}

// matchParen returns the index of the parenthesis closing the one at open,
// counting depth over tokens so nested type parameters are skipped.
func matchParen(tokens []Token, open int) (int, bool) {
	depth := 0
	for k := open; k < len(tokens); k++ {
		switch tokens[k].Type {
		case ParenOpen:
			depth++
		case ParenClose:
			depth--
			if depth == 0 {
				return k, true
			}
		case EOF:
			return 0, false
		}
	}
	return 0, false
}

// splitTopLevel splits tokens on commas outside any parentheses, so the comma
// inside DECIMAL(10,2) does not end a column definition.
func splitTopLevel(tokens []Token) [][]Token {
	var parts [][]Token
	depth, startIdx := 0, 0
	for k, t := range tokens {
		switch t.Type {
		case ParenOpen:
			depth++
		case ParenClose:
			depth--
		case Comma:
			if depth == 0 {
				parts = append(parts, tokens[startIdx:k])
				startIdx = k + 1
			}
		}
	}
	return append(parts, tokens[startIdx:])
}

// text returns the source text spanned by tokens, as written.
func (ps *parse) text(tokens []Token) string {
	if len(tokens) == 0 {
		return ""
	}
	return ps.src[tokens[0].Pos:tokens[len(tokens)-1].End]
}

var tableConstraintKeywords = []string{"PRIMARY", "FOREIGN", "UNIQUE", "CHECK", "CONSTRAINT", "KEY", "INDEX", "EXCLUDE", "FULLTEXT", "SPATIAL"}

func isTableConstraint(frag []Token) bool {
	// A column that happens to be called key or index is followed by its type.
	if len(frag) > 1 && frag[1].Type == Word {
		if _, known := schema.LookupType(frag[1].Value); known {
			return false
		}
	}
	for _, kw := range tableConstraintKeywords {
		if frag[0].Is(kw) {
			return true
		}
	}
	return false
}

func (ps *parse) parseTableBody(qualifier, name string, body []Token) *schema.Table {
	table := &schema.Table{Name: name, SchemaName: qualifier}

	var constraints [][]Token
	for _, frag := range splitTopLevel(body) {
		if len(frag) == 0 {
			continue
		}
		if isTableConstraint(frag) {
			constraints = append(constraints, frag)
			continue
		}
		ps.addColumn(table, frag)
	}

	if len(table.Columns) == 0 {
		line := 0
		if len(body) > 0 {
			line = body[0].Line
		}
		ps.report(Structural, name, line, "no valid column definitions, table dropped")
		return nil
	}

	// Table-level constraints merge into the columns parsed above.
	for _, frag := range constraints {
		ps.applyConstraint(table, frag)
	}
	return table
}

func (ps *parse) addColumn(table *schema.Table, frag []Token) {
	col, fk, ok := ps.parseColumn(table.Name, frag)
	if !ok {
		return
	}
	if table.Column(col.Name) != nil {
		ps.report(Warning, table.Name, frag[0].Line, "duplicate column %q skipped", col.Name)
		return
	}
	table.Columns = append(table.Columns, col)
	if col.PrimaryKey {
		addName(&table.PrimaryKeys, col.Name)
	}
	if fk != nil {
		table.ForeignKeys = append(table.ForeignKeys, fk)
		ps.fkLines[fk] = frag[0].Line
	}
}

// Keywords that can never be a column's type.
var constraintWords = map[string]bool{
	"PRIMARY": true, "NOT": true, "NULL": true, "DEFAULT": true, "REFERENCES": true,
	"UNIQUE": true, "CHECK": true, "CONSTRAINT": true, "COLLATE": true, "GENERATED": true,
}

// parseColumn parses "<name> <type>[(params)] [clauses...]".
func (ps *parse) parseColumn(table string, frag []Token) (*schema.Column, *schema.ForeignKey, bool) {
	line := frag[0].Line
	if !frag[0].IsName() {
		ps.report(Warning, table, line, "column definition %q does not start with a name, skipped", ps.text(frag))
		return nil, nil, false
	}
	if len(frag) < 2 || frag[1].Type != Word || constraintWords[strings.ToUpper(frag[1].Value)] {
		ps.report(Warning, table, line, "column %q has no type, skipped", frag[0].Value)
		return nil, nil, false
	}

	col := &schema.Column{Name: frag[0].Value, Quoted: frag[0].Type == Quoted, Nullable: true}

	// Type words, including multi-word forms like DOUBLE PRECISION.
	words := []string{frag[1].Value}
	i := 2
	for i < len(frag) && frag[i].Type == Word {
		candidate := strings.Join(append(append([]string(nil), words...), frag[i].Value), " ")
		if _, known := schema.LookupType(candidate); !known && !schema.IsTypePrefix(candidate) {
			break
		}
		words = append(words, frag[i].Value)
		i++
	}

	var params []string
	if i < len(frag) && frag[i].Type == ParenOpen {
		closeIdx, ok := matchParen(frag, i)
		if !ok {
			ps.report(Warning, table, line, "column %q has unbalanced type parameters, skipped", col.Name)
			return nil, nil, false
		}
		for _, p := range splitTopLevel(frag[i+1 : closeIdx]) {
			params = append(params, ps.text(p))
		}
		i = closeIdx + 1
	}
	// TIMESTAMP(3) WITH TIME ZONE
	if i+2 < len(frag) && (frag[i].Is("WITH") || frag[i].Is("WITHOUT")) &&
		frag[i+1].Is("TIME") && frag[i+2].Is("ZONE") {
		words = append(words, frag[i].Value, "TIME", "ZONE")
		i += 3
	}
	// text[] array suffix lexes as an empty bracketed identifier.
	for i < len(frag) && frag[i].Type == Quoted && frag[i].Value == "" {
		i++
	}

	col.RawType = strings.Join(words, " ")
	col.Type, _ = schema.LookupType(col.RawType)
	col.AutoIncrement = col.Type.IsSerial()
	applyTypeParams(col, params)

	var fk *schema.ForeignKey
	for i < len(frag) {
		t := frag[i]
		switch {
		case t.Is("NOT") && i+1 < len(frag) && frag[i+1].Is("NULL"):
			col.Nullable = false
			i += 2
		case t.Is("NULL"):
			col.Nullable = true
			i++
		case t.Is("DEFAULT"):
			end := ps.expressionEnd(frag, i+1)
			col.Default = ps.text(frag[i+1 : end])
			col.HasDefault = end > i+1
			i = end
		case t.Is("PRIMARY") && i+1 < len(frag) && frag[i+1].Is("KEY"):
			col.PrimaryKey = true
			i += 2
		case t.Is("UNIQUE"):
			addName(&col.Constraints, "UNIQUE")
			i++
			if i < len(frag) && frag[i].Is("KEY") {
				i++
			}
		case t.Is("REFERENCES"):
			refTable, refCol, next, ok := ps.reference(frag, i+1)
			if !ok {
				ps.report(Warning, table, t.Line, "column %q has REFERENCES without a table", col.Name)
				i = next
				continue
			}
			col.ForeignKey, col.RefTable, col.RefColumn = true, refTable, refCol
			fk = &schema.ForeignKey{Column: col.Name, RefTable: refTable, RefColumn: refCol}
			i = next
		case t.Is("CHECK") && i+1 < len(frag) && frag[i+1].Type == ParenOpen:
			closeIdx, ok := matchParen(frag, i+1)
			if !ok {
				i = len(frag)
				continue
			}
			col.Constraints = append(col.Constraints, "CHECK("+ps.text(frag[i+2:closeIdx])+")")
			i = closeIdx + 1
		case t.Is("CONSTRAINT") || t.Is("COLLATE"):
			i += 2
		case t.Is("AUTO_INCREMENT") || t.Is("AUTOINCREMENT") || t.Is("IDENTITY"):
			col.AutoIncrement = true
			i++
		case t.Is("GENERATED"):
			i = ps.generatedClause(col, frag, i+1)
		case t.Is("ON") && i+1 < len(frag) && (frag[i+1].Is("DELETE") || frag[i+1].Is("UPDATE")):
			i += 2
			if i < len(frag) && (frag[i].Is("SET") || frag[i].Is("NO")) {
				i++
			}
			i++
		case t.Type == ParenOpen:
			closeIdx, ok := matchParen(frag, i)
			if !ok {
				i = len(frag)
				continue
			}
			i = closeIdx + 1
		default:
			i++
		}
	}
	return col, fk, true
}

// applyTypeParams maps (n) to a length for character types or a precision
// otherwise, and (p, s) to precision and scale. Non-numeric params such as
// VARCHAR(MAX) are ignored.
func applyTypeParams(col *schema.Column, params []string) {
	nums := make([]int, 0, len(params))
	for _, p := range params {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 1:
		if col.Type.HasLength() {
			col.Length = nums[0]
		} else {
			col.Precision = nums[0]
		}
	case 2:
		col.Precision, col.Scale = nums[0], nums[1]
	}
}

var expressionStops = map[string]bool{
	"NOT": true, "NULL": true, "PRIMARY": true, "UNIQUE": true, "REFERENCES": true,
	"CHECK": true, "CONSTRAINT": true, "COLLATE": true, "GENERATED": true,
	"AUTO_INCREMENT": true, "AUTOINCREMENT": true, "ON": true,
}

// expressionEnd returns the index just past a DEFAULT expression starting at
// i: a single term, an optional call or parenthesized group, and any ::casts.
func (ps *parse) expressionEnd(frag []Token, i int) int {
	if i >= len(frag) {
		return i
	}
	if frag[i].Type == ParenOpen {
		closeIdx, ok := matchParen(frag, i)
		if !ok {
			return len(frag)
		}
		i = closeIdx + 1
	} else {
		// DEFAULT NULL is an expression, not a nullability clause.
		if frag[i].Type == Word && expressionStops[strings.ToUpper(frag[i].Value)] && !frag[i].Is("NULL") {
			return i
		}
		i++
		if i < len(frag) && frag[i].Type == ParenOpen {
			closeIdx, ok := matchParen(frag, i)
			if !ok {
				return len(frag)
			}
			i = closeIdx + 1
		}
	}
	// Postgres casts: 'x'::character varying
	for i+2 < len(frag) && frag[i].Value == ":" && frag[i+1].Value == ":" && frag[i+2].Type == Word {
		i += 3
		for i < len(frag) && frag[i].Type == Word && schema.IsTypePrefix(ps.text(frag[i-1:i])) {
			i++
		}
	}
	return i
}

// generatedClause consumes GENERATED {ALWAYS|BY DEFAULT} AS IDENTITY [(opts)]
// or GENERATED ALWAYS AS (expr) STORED.
func (ps *parse) generatedClause(col *schema.Column, frag []Token, i int) int {
	for i < len(frag) {
		t := frag[i]
		switch {
		case t.Is("ALWAYS") || t.Is("BY") || t.Is("DEFAULT") || t.Is("AS") || t.Is("STORED") || t.Is("VIRTUAL"):
			i++
		case t.Is("IDENTITY"):
			col.AutoIncrement = true
			i++
		case t.Type == ParenOpen:
			closeIdx, ok := matchParen(frag, i)
			if !ok {
				return len(frag)
			}
			i = closeIdx + 1
		default:
			return i
		}
	}
	return i
}

// reference parses "table[(column)]" after REFERENCES. A missing column is
// left empty and resolved once every table is known.
func (ps *parse) reference(frag []Token, i int) (table, column string, next int, ok bool) {
	table, columns, next, ok := ps.referenceList(frag, i)
	if len(columns) > 0 {
		column = columns[0]
	}
	return table, column, next, ok
}

// referenceList is reference for composite FOREIGN KEY targets.
func (ps *parse) referenceList(frag []Token, i int) (table string, columns []string, next int, ok bool) {
	if i >= len(frag) || !frag[i].IsName() {
		return "", nil, i, false
	}
	table = frag[i].Value
	i++
	for i+1 < len(frag) && frag[i].Type == Dot && frag[i+1].IsName() {
		table = frag[i+1].Value
		i += 2
	}
	if i < len(frag) && frag[i].Type == ParenOpen {
		if closeIdx, found := matchParen(frag, i); found {
			columns = nameList(frag[i+1 : closeIdx])
			i = closeIdx + 1
		}
	}
	return table, columns, i, true
}

// nameList extracts plain column names from a parenthesized list, skipping
// expressions and ASC/DESC modifiers.
func nameList(tokens []Token) []string {
	var names []string
	for _, part := range splitTopLevel(tokens) {
		if len(part) == 0 || !part[0].IsName() {
			continue
		}
		if len(part) > 1 && part[1].Type == ParenOpen {
			continue // expression such as lower(email)
		}
		names = append(names, part[0].Value)
	}
	return names
}

// parenNames reads "(a, b)" at i.
func parenNames(frag []Token, i int) ([]string, int, bool) {
	if i >= len(frag) || frag[i].Type != ParenOpen {
		return nil, i, false
	}
	closeIdx, ok := matchParen(frag, i)
	if !ok {
		return nil, len(frag), false
	}
	return nameList(frag[i+1 : closeIdx]), closeIdx + 1, true
}

// applyConstraint merges a table-level constraint into the table.
func (ps *parse) applyConstraint(table *schema.Table, frag []Token) {
	line := frag[0].Line
	i := 0
	if frag[i].Is("CONSTRAINT") {
		i += 2
	}
	if i >= len(frag) {
		ps.report(Warning, table.Name, line, "empty CONSTRAINT clause skipped")
		return
	}

	switch t := frag[i]; {
	case t.Is("PRIMARY") && i+1 < len(frag) && frag[i+1].Is("KEY"):
		names, _, ok := parenNames(frag, i+2)
		if !ok {
			ps.report(Warning, table.Name, line, "PRIMARY KEY without a column list skipped")
			return
		}
		for _, n := range names {
			col := table.Column(n)
			if col == nil {
				ps.report(Warning, table.Name, line, "PRIMARY KEY names unknown column %q", n)
				continue
			}
			col.PrimaryKey = true
			addName(&table.PrimaryKeys, n)
		}

	case t.Is("FOREIGN") && i+1 < len(frag) && frag[i+1].Is("KEY"):
		locals, next, ok := parenNames(frag, i+2)
		if !ok || next >= len(frag) || !frag[next].Is("REFERENCES") {
			ps.report(Warning, table.Name, line, "FOREIGN KEY without REFERENCES skipped")
			return
		}
		refTable, refCols, _, ok := ps.referenceList(frag, next+1)
		if !ok {
			ps.report(Warning, table.Name, line, "FOREIGN KEY without a referenced table skipped")
			return
		}
		for k, local := range locals {
			refCol := ""
			if k < len(refCols) {
				refCol = refCols[k]
			}
			ps.addForeignKey(table, local, refTable, refCol, line)
		}

	case t.Is("UNIQUE"):
		j := i + 1
		for j < len(frag) && frag[j].Type != ParenOpen {
			j++ // UNIQUE KEY name (...) / UNIQUE INDEX name (...)
		}
		names, _, ok := parenNames(frag, j)
		if !ok || len(names) == 0 {
			ps.report(Warning, table.Name, line, "UNIQUE without a column list skipped")
			return
		}
		ps.addUnique(table, names, line)

	case t.Is("CHECK"):
		if closeIdx, ok := matchParen(frag, i+1); ok {
			table.Checks = append(table.Checks, ps.text(frag[i+2:closeIdx]))
		}

	case t.Is("KEY") || t.Is("INDEX") || t.Is("FULLTEXT") || t.Is("SPATIAL") || t.Is("EXCLUDE"):
		// non-unique indexes and exclusion constraints carry no row rule we check

	default:
		ps.report(Warning, table.Name, line, "unrecognized table constraint %q skipped", ps.text(frag))
	}
}

func (ps *parse) addUnique(table *schema.Table, names []string, line int) {
	for _, n := range names {
		if table.Column(n) == nil {
			ps.report(Warning, table.Name, line, "UNIQUE names unknown column %q", n)
			return
		}
	}
	if len(names) == 1 {
		addName(&table.Column(names[0]).Constraints, "UNIQUE")
		return
	}
	for _, existing := range table.UniqueKeys {
		if strings.Join(existing, ",") == strings.Join(names, ",") {
			return
		}
	}
	table.UniqueKeys = append(table.UniqueKeys, names)
}

// addForeignKey records a table-level edge. An identical inline edge is not
// duplicated; a disagreeing inline edge on the same column is replaced, the
// table-level declaration being the authoritative one.
func (ps *parse) addForeignKey(table *schema.Table, local, refTable, refCol string, line int) {
	col := table.Column(local)
	if col == nil {
		ps.report(Warning, table.Name, line, "FOREIGN KEY names unknown column %q", local)
		return
	}
	col.ForeignKey, col.RefTable, col.RefColumn = true, refTable, refCol

	for _, fk := range table.ForeignKeys {
		if fk.Column != local {
			continue
		}
		if fk.RefTable == refTable && (fk.RefColumn == refCol || refCol == "" || fk.RefColumn == "") {
			if fk.RefColumn == "" {
				fk.RefColumn = refCol
			}
			col.RefColumn = fk.RefColumn
			return
		}
		fk.RefTable, fk.RefColumn = refTable, refCol
		return
	}
	fk := &schema.ForeignKey{Column: local, RefTable: refTable, RefColumn: refCol}
	table.ForeignKeys = append(table.ForeignKeys, fk)
	ps.fkLines[fk] = line
}

// createUniqueIndex handles CREATE UNIQUE INDEX [CONCURRENTLY] [IF NOT EXISTS]
// name ON [ONLY] table [USING method] (cols).
func (ps *parse) createUniqueIndex(j int) int {
	line := ps.tok(j).Line
	if ps.tok(j).Is("CONCURRENTLY") {
		j++
	}
	j = ps.skipIfNotExists(j)
	if !ps.tok(j).Is("ON") {
		j++ // index name
	}
	if !ps.tok(j).Is("ON") {
		return j
	}
	j++
	if ps.tok(j).Is("ONLY") {
		j++
	}
	_, name, j, ok := ps.qualifiedName(j)
	if !ok {
		return j
	}
	if ps.tok(j).Is("USING") {
		j += 2
	}
	if ps.tok(j).Type != ParenOpen {
		return j
	}
	closeIdx, ok := matchParen(ps.tokens, j)
	if !ok {
		return len(ps.tokens) - 1
	}
	table := ps.schema.Table(name)
	if table == nil {
		ps.report(Anomaly, name, line, "unique index on unknown table ignored")
		return closeIdx
	}
	if names := nameList(ps.tokens[j+1 : closeIdx]); len(names) > 0 {
		ps.addUnique(table, names, line)
	}
	return closeIdx
}

// alterTable handles ALTER TABLE [ONLY] [IF EXISTS] name ADD ..., [ADD ...].
func (ps *parse) alterTable(i int) int {
	line := ps.tok(i).Line
	j := i + 2
	if ps.tok(j).Is("ONLY") {
		j++
	}
	if ps.tok(j).Is("IF") && ps.tok(j+1).Is("EXISTS") {
		j += 2
	}
	if ps.tok(j).Is("ONLY") {
		j++
	}
	_, name, j, ok := ps.qualifiedName(j)
	if !ok {
		return j
	}

	end := j
	for end < len(ps.tokens) && ps.tokens[end].Type != Semicolon && ps.tokens[end].Type != EOF {
		end++
	}
	table := ps.schema.Table(name)
	if table == nil {
		ps.report(Anomaly, name, line, "ALTER TABLE on unknown table ignored")
		return end
	}

	for _, action := range splitTopLevel(ps.tokens[j:end]) {
		if len(action) < 2 || !action[0].Is("ADD") {
			continue
		}
		rest := action[1:]
		switch {
		case rest[0].Is("COLUMN"):
			rest = rest[1:]
			if len(rest) > 3 && rest[0].Is("IF") && rest[1].Is("NOT") && rest[2].Is("EXISTS") {
				rest = rest[3:]
			}
			ps.addColumn(table, rest)
		case isTableConstraint(rest):
			ps.applyConstraint(table, rest)
		default:
			ps.addColumn(table, rest)
		}
	}
	return end
}

// resolveReferences normalizes FK targets to defined table names, fills in
// omitted referenced columns and reports targets outside the document.
func (ps *parse) resolveReferences() {
	for _, t := range ps.schema.Tables {
		for _, fk := range t.ForeignKeys {
			target := ps.schema.Table(fk.RefTable)
			if target == nil {
				for _, cand := range ps.schema.Tables {
					if strings.EqualFold(cand.Name, fk.RefTable) {
						target = cand
						break
					}
				}
			}
			if target == nil {
				ps.report(Anomaly, t.Name, ps.fkLines[fk], "foreign key %s references unknown table %q", fk.Column, fk.RefTable)
			} else {
				fk.RefTable = target.Name
			}
			if fk.RefColumn == "" {
				fk.RefColumn = "id"
				if target != nil && len(target.PrimaryKeys) > 0 {
					fk.RefColumn = target.PrimaryKeys[0]
				}
			}
			if col := t.Column(fk.Column); col != nil {
				col.RefTable, col.RefColumn = fk.RefTable, fk.RefColumn
			}
		}
	}
}

func addName(list *[]string, name string) {
	for _, n := range *list {
		if n == name {
			return
		}
	}
	*list = append(*list, name)
}
