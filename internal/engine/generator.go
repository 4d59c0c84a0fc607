package engine

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"ddl-pump/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Generator produces candidate rows offline. It stands in for the external
// row-content generator: its output is untrusted and goes through Validate
// like any other batch.
type Generator struct {
	faker *gofakeit.Faker
	// FK 풀: 부모 테이블 -> 컬럼 -> 이미 생성된 값
	pool map[string]map[string][]any
	seq  map[string]int64
	live KeyRange
	// dates are drawn from this window so output does not depend on the clock
	from, to time.Time
}

// KeyRange reports the largest integer a live table stores under a key
// column. catalog.Snapshot implements it.
type KeyRange interface {
	MaxInt(table, column string) (int64, bool)
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		pool:  make(map[string]map[string][]any),
		seq:   make(map[string]int64),
		from:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		to:    time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
	}
}

// ContinueFrom makes sequential key columns start above the values already
// stored, so a second load into the same tables does not reuse keys.
func (g *Generator) ContinueFrom(live KeyRange) {
	g.live = live
}

// GenerateAll fills every table in order, parents first, so foreign keys can
// draw from rows generated for the referenced table.
func (g *Generator) GenerateAll(s *schema.Schema, order []string, count int) map[string]RowBatch {
	out := make(map[string]RowBatch, len(order))
	for _, name := range order {
		if t := s.Table(name); t != nil {
			out[name] = g.Generate(t, count)
		}
	}
	return out
}

// Generate returns up to count rows for t; see maxRows for the cap.
func (g *Generator) Generate(t *schema.Table, count int) RowBatch {
	batch := NewRowBatch(t)
	n := maxRows(t, count)
	for i := 0; i < n; i++ {
		row := make([]any, len(t.Columns))
		for c, col := range t.Columns {
			row[c] = g.value(t, col, i)
		}
		batch.Append(row)
	}
	g.remember(t, batch)
	return batch
}

// maxRows caps the row count by the range of small auto-increment columns.
func maxRows(t *schema.Table, requested int) int {
	limit := requested
	for _, c := range t.Columns {
		if !c.AutoIncrement {
			continue
		}
		if (c.Type == schema.SmallInt || c.Type == schema.SmallSerial) && limit > math.MaxInt16 {
			limit = math.MaxInt16
		}
	}
	return limit
}

// remember records generated values for children of this table.
func (g *Generator) remember(t *schema.Table, b RowBatch) {
	cols := make(map[string][]any, len(b.Columns))
	for c, name := range b.Columns {
		vals := make([]any, 0, b.Len())
		for _, row := range b.Rows {
			if row[c] != nil {
				vals = append(vals, row[c])
			}
		}
		cols[name] = vals
	}
	g.pool[t.Name] = cols
}

func (g *Generator) next(t *schema.Table, col *schema.Column) int64 {
	key := t.Name + "." + col.Name
	if _, started := g.seq[key]; !started && g.live != nil {
		if top, ok := g.live.MaxInt(t.Name, col.Name); ok && top > 0 {
			g.seq[key] = top
		}
	}
	g.seq[key]++
	return g.seq[key]
}

func (g *Generator) value(t *schema.Table, col *schema.Column, index int) any {
	f := g.faker

	if col.ForeignKey {
		if vals := g.pool[col.RefTable][col.RefColumn]; len(vals) > 0 {
			// UNIQUE FK (1:1) 는 순차 선택으로 중복 방지
			if col.IsUnique() || col.PrimaryKey {
				return vals[index%len(vals)]
			}
			return vals[f.Number(0, len(vals)-1)]
		}
		// 부모 데이터 없음 (순환 참조 등)
		if !col.Required() {
			return nil
		}
		return 1
	}

	if enum := enumValues(col); len(enum) > 0 {
		return enum[f.Number(0, len(enum)-1)]
	}

	if col.Type.IsInteger() && (col.AutoIncrement || (col.PrimaryKey && len(t.PrimaryKeys) == 1)) {
		return g.next(t, col)
	}

	return g.scalar(col)
}

// scalar generates a value from the column type, shaped by what its name means.
func (g *Generator) scalar(col *schema.Column) any {
	f := g.faker
	meaning := schema.AnalyzeMeaning(col.Name)
	isID := strings.HasSuffix(strings.ToLower(col.Name), "id")

	switch typ := col.Type; {
	case typ.IsText():
		if strings.Contains(strings.ToUpper(col.RawType), "TSVECTOR") {
			return g.englishText(5)
		}
		return truncate(g.text(col, meaning, isID), col.Length)

	case typ.IsDateLike() || typ == schema.Time:
		val := f.DateRange(g.from, g.to)
		switch typ {
		case schema.Date:
			return val.Format("2006-01-02")
		case schema.Time:
			return val.Format("15:04:05")
		}
		return val.Format("2006-01-02 15:04:05")

	case typ.IsInteger():
		if meaning == schema.MeaningYesNo {
			return f.Number(0, 1)
		}
		if meaning == schema.MeaningYear {
			return 2000 + f.Number(0, 25)
		}
		if typ == schema.SmallInt {
			return f.Number(1, 30000)
		}
		maxVal := 50000
		// 정밀도가 작은 경우 (예: NUMBER(3)) 자릿수 제한
		if col.Precision > 0 && col.Precision < 5 {
			maxVal = int(math.Pow10(col.Precision)) - 1
		}
		return f.Number(1, maxVal)

	case typ == schema.Decimal || typ == schema.Numeric:
		return g.decimalValue(col, meaning)

	case typ.IsNumeric():
		return f.Float64Range(0, 1000)

	case typ.IsBoolean():
		return f.Bool()

	case typ.IsUUID():
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(f.LetterN(16))).String()

	case typ.IsJSON():
		return fmt.Sprintf(`{"tag": %q, "score": %d}`, g.englishText(1), f.Number(1, 100))

	case typ == schema.Inet:
		return f.IPv4Address()
	case typ == schema.CIDR:
		return f.IPv4Address() + "/32"
	case typ == schema.MacAddr:
		return f.MacAddress()
	case typ == schema.Bytea:
		return []byte(f.LetterN(8))
	case typ == schema.Interval:
		return fmt.Sprintf("%d days", f.Number(1, 365))
	}
	return nil
}

// decimalValue honors precision and scale: DECIMAL(5,2) stays below 1000.00.
func (g *Generator) decimalValue(col *schema.Column, meaning schema.Meaning) decimal.Decimal {
	upper := 99.99
	if meaning == schema.MeaningPrice {
		upper = 999.99
	}
	if col.Precision > 0 && col.Precision > col.Scale {
		if limit := math.Pow10(col.Precision-col.Scale) - 1; limit < upper {
			upper = limit
		}
	}
	lower := math.Min(0.99, upper)
	return decimal.NewFromFloat(g.faker.Float64Range(lower, upper)).Round(int32(col.Scale))
}

func (g *Generator) text(col *schema.Column, meaning schema.Meaning, isID bool) string {
	f := g.faker

	switch meaning {
	case schema.MeaningISBN:
		return isbn13(f)
	case schema.MeaningYear:
		return fmt.Sprintf("%d", 2000+f.Number(0, 25))
	case schema.MeaningZipcode:
		return fmt.Sprintf("%05d", f.Number(0, 99999))
	case schema.MeaningYesNo:
		if f.Bool() {
			return "Y"
		}
		return "N"
	}

	if !isID {
		switch meaning {
		case schema.MeaningEmail:
			return strings.ToLower(f.Username()) + "@" + EmailDomains[f.Number(0, len(EmailDomains)-1)]
		case schema.MeaningUsername:
			return strings.ToLower(f.Username())
		case schema.MeaningPhone:
			return g.koreanPhone()
		case schema.MeaningName:
			if col.Length > 0 && col.Length < 3 {
				return LastNames[f.Number(0, len(LastNames)-1)] // 짧은 이름 (성만)
			}
			return g.koreanName()
		case schema.MeaningAddress:
			if strings.Contains(col.Name, "2") {
				return fmt.Sprintf("%d층 %d호", f.Number(1, 20), f.Number(1, 10))
			}
			return g.koreanAddress()
		case schema.MeaningCity:
			return Cities[f.Number(0, len(Cities)-1)]
		case schema.MeaningCountry:
			return "대한민국"
		case schema.MeaningURL:
			return f.URL()
		case schema.MeaningTitle:
			return g.koreanText(2)
		case schema.MeaningText:
			return g.koreanText(10)
		case schema.MeaningCode:
			return strings.ToUpper(f.Lexify("???")) + "-" + f.Numerify("####")
		}
	}

	if col.Length > 0 && col.Length < 20 {
		return g.koreanText(1)
	}
	return g.koreanText(5)
}

var (
	inList = regexp.MustCompile(`(?i)\bIN\s*\(([^)]*)\)`)
	quoted = regexp.MustCompile(`'((?:[^']|'')*)'`)
)

// enumValues extracts the literals of a CHECK (col IN ('a', 'b')) tag.
func enumValues(col *schema.Column) []string {
	for _, c := range col.Constraints {
		if !strings.HasPrefix(strings.ToUpper(c), "CHECK") {
			continue
		}
		m := inList.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		var vals []string
		for _, q := range quoted.FindAllStringSubmatch(m[1], -1) {
			vals = append(vals, strings.ReplaceAll(q[1], "''", "'"))
		}
		if len(vals) > 0 {
			return vals
		}
	}
	return nil
}

func (g *Generator) englishText(wordCount int) string {
	words := make([]string, wordCount)
	for i := range words {
		words[i] = wordPairs[g.faker.Number(0, len(wordPairs)-1)][0]
	}
	return strings.Join(words, " ")
}

// koreanText picks English words and translates them word by word.
func (g *Generator) koreanText(wordCount int) string {
	words := strings.Fields(g.englishText(wordCount))
	for i, w := range words {
		if kor, ok := engToKor[w]; ok {
			words[i] = kor
		}
	}
	return strings.Join(words, " ")
}

func (g *Generator) koreanName() string {
	f := g.faker
	return LastNames[f.Number(0, len(LastNames)-1)] + FirstNames[f.Number(0, len(FirstNames)-1)]
}

func (g *Generator) koreanAddress() string {
	f := g.faker
	return fmt.Sprintf("%s %s %s %d번길",
		Cities[f.Number(0, len(Cities)-1)],
		Districts[f.Number(0, len(Districts)-1)],
		Streets[f.Number(0, len(Streets)-1)],
		f.Number(1, 100))
}

func (g *Generator) koreanPhone() string {
	return fmt.Sprintf("010-%04d-%04d", g.faker.Number(0, 9999), g.faker.Number(0, 9999))
}
