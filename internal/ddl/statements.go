package ddl

// StatementKind tells how a statement relates to the tables it touches.
type StatementKind int

const (
	OtherStatement StatementKind = iota // CREATE TYPE, CREATE EXTENSION, SET ...
	CreateTableStatement
	TableChangeStatement // ALTER TABLE, CREATE INDEX
)

// Statement is one ';'-terminated statement of a DDL document, as written.
type Statement struct {
	Kind  StatementKind
	Table string // target table for CREATE TABLE, ALTER TABLE and CREATE INDEX
	Text  string
	Line  int
}

// Statements splits text on top-level ';' so the document can be executed
// statement by statement. Comments between statements are dropped and
// semicolons inside strings or parentheses do not split.
func Statements(text string) []Statement {
	tokens := Tokenize(text)

	var out []Statement
	start, depth := 0, 0
	flush := func(end int) {
		if end > start {
			out = append(out, classify(text, tokens[start:end]))
		}
		start = end + 1
	}
	for k, t := range tokens {
		switch t.Type {
		case ParenOpen:
			depth++
		case ParenClose:
			depth--
		case Semicolon:
			if depth <= 0 {
				flush(k)
				depth = 0
			}
		case EOF:
			flush(k)
		}
	}
	return out
}

func classify(src string, tokens []Token) Statement {
	st := Statement{
		Text: src[tokens[0].Pos:tokens[len(tokens)-1].End],
		Line: tokens[0].Line,
	}
	at := func(i int) Token {
		if i < len(tokens) {
			return tokens[i]
		}
		return Token{Type: EOF}
	}
	// nameAt reads name or schema.name at i and returns the last part.
	nameAt := func(i int) string {
		if !at(i).IsName() {
			return ""
		}
		name := at(i).Value
		for at(i+1).Type == Dot && at(i+2).IsName() {
			name = at(i + 2).Value
			i += 2
		}
		return name
	}

	switch {
	case at(0).Is("CREATE"):
		j := 1
		if at(j).Is("OR") && at(j+1).Is("REPLACE") {
			j += 2
		}
		for at(j).Is("TEMP") || at(j).Is("TEMPORARY") || at(j).Is("UNLOGGED") ||
			at(j).Is("GLOBAL") || at(j).Is("LOCAL") {
			j++
		}
		switch {
		case at(j).Is("TABLE"):
			j++
			if at(j).Is("IF") && at(j+1).Is("NOT") && at(j+2).Is("EXISTS") {
				j += 3
			}
			st.Kind, st.Table = CreateTableStatement, nameAt(j)
		case at(j).Is("INDEX") || (at(j).Is("UNIQUE") && at(j+1).Is("INDEX")):
			for k := j; k < len(tokens); k++ {
				if tokens[k].Is("ON") {
					if at(k + 1).Is("ONLY") {
						k++
					}
					st.Kind, st.Table = TableChangeStatement, nameAt(k+1)
					break
				}
			}
		}
	case at(0).Is("ALTER") && at(1).Is("TABLE"):
		j := 2
		for {
			switch {
			case at(j).Is("ONLY"):
				j++
				continue
			case at(j).Is("IF") && at(j+1).Is("EXISTS"):
				j += 2
				continue
			}
			break
		}
		st.Kind, st.Table = TableChangeStatement, nameAt(j)
	}
	if st.Kind != OtherStatement && st.Table == "" {
		st.Kind = OtherStatement
	}
	return st
}
