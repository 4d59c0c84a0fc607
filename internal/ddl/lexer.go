package ddl

import "strings"

type TokenType int

const (
	Word   TokenType = iota // keyword or unquoted identifier
	Quoted                  // "ident", `ident` or [ident]
	Number
	String
	ParenOpen
	ParenClose
	Comma
	Dot
	Semicolon
	Other
	EOF
)

type Token struct {
	Type  TokenType
	Value string
	Line  int
	Pos   int // byte offset of the first character
	End   int // byte offset just past the last character
}

// Is reports whether the token is the given keyword, compared case-insensitively.
// Quoted identifiers never match a keyword.
func (t Token) Is(keyword string) bool {
	return t.Type == Word && strings.EqualFold(t.Value, keyword)
}

// IsName reports whether the token can name a table or column.
func (t Token) IsName() bool {
	return t.Type == Word || t.Type == Quoted
}

type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
	line         int
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql, line: 1}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.ch == '\n' {
		lexer.line++
	}
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.sql) {
		return 0
	}
	return lexer.sql[lexer.readPosition]
}

func (lexer *Lexer) NextToken() Token {
	lexer.skipWhitespaceAndComments()

	token := lexer.scan()
	token.End = lexer.position
	if token.Type == EOF {
		token.End = len(lexer.sql)
	}
	return token
}

func (lexer *Lexer) scan() Token {
	line, pos := lexer.line, lexer.position
	var token Token

	switch lexer.ch {
	case 0:
		return Token{Type: EOF, Line: line, Pos: len(lexer.sql)}
	case '(':
		token = Token{Type: ParenOpen, Value: "("}
	case ')':
		token = Token{Type: ParenClose, Value: ")"}
	case ',':
		token = Token{Type: Comma, Value: ","}
	case '.':
		token = Token{Type: Dot, Value: "."}
	case ';':
		token = Token{Type: Semicolon, Value: ";"}
	case '\'':
		return Token{Type: String, Value: lexer.readString(), Line: line, Pos: pos}
	case '"':
		return Token{Type: Quoted, Value: lexer.readQuoted('"'), Line: line, Pos: pos}
	case '`':
		return Token{Type: Quoted, Value: lexer.readQuoted('`'), Line: line, Pos: pos}
	case '[':
		return Token{Type: Quoted, Value: lexer.readQuoted(']'), Line: line, Pos: pos}
	default:
		if isDigit(lexer.ch) || (lexer.ch == '-' && isDigit(lexer.peekChar())) {
			return Token{Type: Number, Value: lexer.readNumber(), Line: line, Pos: pos}
		}
		if isIdentStart(lexer.ch) {
			return Token{Type: Word, Value: lexer.readIdentifier(), Line: line, Pos: pos}
		}
		token = Token{Type: Other, Value: string(lexer.ch)}
	}

	token.Line, token.Pos = line, pos
	lexer.readChar()
	return token
}

// skipWhitespaceAndComments drops blanks, "-- line" and "/* block */" comments.
func (lexer *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r':
			lexer.readChar()
		case lexer.ch == '-' && lexer.peekChar() == '-':
			for lexer.ch != '\n' && lexer.ch != 0 {
				lexer.readChar()
			}
		case lexer.ch == '/' && lexer.peekChar() == '*':
			lexer.readChar()
			lexer.readChar()
			for !(lexer.ch == '*' && lexer.peekChar() == '/') && lexer.ch != 0 {
				lexer.readChar()
			}
			if lexer.ch != 0 {
				lexer.readChar()
				lexer.readChar()
			}
		default:
			return
		}
	}
}

func (lexer *Lexer) readIdentifier() string {
	position := lexer.position
	for isIdentPart(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

func (lexer *Lexer) readNumber() string {
	position := lexer.position
	if lexer.ch == '-' {
		lexer.readChar()
	}
	for isDigit(lexer.ch) || lexer.ch == '.' {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

// readString reads a single-quoted literal; '' is an escaped quote.
func (lexer *Lexer) readString() string {
	var sb strings.Builder
	lexer.readChar() // opening quote
	for lexer.ch != 0 {
		if lexer.ch == '\'' {
			if lexer.peekChar() == '\'' {
				sb.WriteByte('\'')
				lexer.readChar()
				lexer.readChar()
				continue
			}
			lexer.readChar() // closing quote
			break
		}
		sb.WriteByte(lexer.ch)
		lexer.readChar()
	}
	return sb.String()
}

func (lexer *Lexer) readQuoted(closing byte) string {
	lexer.readChar() // opening delimiter
	position := lexer.position
	for lexer.ch != closing && lexer.ch != 0 {
		lexer.readChar()
	}
	value := lexer.sql[position:lexer.position]
	if lexer.ch != 0 {
		lexer.readChar()
	}
	return value
}

func isIdentStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize lexes the whole input, always ending with an EOF token.
func Tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token
	for {
		token := lexer.NextToken()
		tokens = append(tokens, token)
		if token.Type == EOF {
			return tokens
		}
	}
}
