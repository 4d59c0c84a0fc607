package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"ddl-pump/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

const (
	DefaultMaxAttempts = 8
	DefaultMaxPasses   = 4

	// integerScan bounds the walk for a free integer key.
	integerScan = 1 << 16
)

// Repairer fixes violations in place of a cloned batch. All randomness comes
// from its seeded faker, so the same seed and input give the same output.
type Repairer struct {
	faker       *gofakeit.Faker
	maxAttempts int
	maxPasses   int
}

type Option func(*Repairer)

// WithMaxAttempts bounds how many replacement values are tried per cell.
func WithMaxAttempts(n int) Option {
	return func(r *Repairer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithMaxPasses bounds the validate/repair rounds run by Fix.
func WithMaxPasses(n int) Option {
	return func(r *Repairer) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

func NewRepairer(seed int64, opts ...Option) *Repairer {
	r := &Repairer{
		faker:       gofakeit.New(seed),
		maxAttempts: DefaultMaxAttempts,
		maxPasses:   DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report summarizes a Fix run.
type Report struct {
	Found        []Violation // first validation pass
	Unrepairable []Violation // left after the last pass
	Passes       int
}

// Fix validates and repairs until the batch is clean or the pass budget is
// spent. A clean batch comes back unchanged.
func (r *Repairer) Fix(table *schema.Table, batch RowBatch, live Introspection) (RowBatch, Report) {
	var rep Report
	var last []Violation
	out := batch.Clone()
	for {
		found := Validate(table, out, live)
		if rep.Passes == 0 {
			rep.Found = found
		}
		if len(found) == 0 {
			return out, rep
		}
		if rep.Passes == r.maxPasses {
			rep.Unrepairable = leftover(found, last)
			return out, rep
		}
		out, last = r.Repair(table, out, found, live)
		rep.Passes++
	}
}

// leftover prefers the per-cell failures of the last repair round over the
// group violations still found, keeping any non-key violation as is.
func leftover(found, failed []Violation) []Violation {
	if len(failed) == 0 {
		return found
	}
	out := append([]Violation(nil), failed...)
	for _, v := range found {
		if !v.IsDuplicate() {
			out = append(out, v)
		}
	}
	return out
}

// Repair applies one round of fixes to a copy of batch. Row count and column
// order never change. The returned violations are the cells that could not
// be given a collision-free value; they keep their original value.
func (r *Repairer) Repair(table *schema.Table, batch RowBatch, violations []Violation, live Introspection) (RowBatch, []Violation) {
	if table == nil {
		panic("engine: Repair called with a nil table")
	}
	if live == nil {
		live = NoIntrospection{}
	}
	out := batch.Clone()

	// Cell fixes first so duplicate checks see the final shape of each value.
	for _, v := range violations {
		if v.IsDuplicate() {
			continue
		}
		col := table.Column(v.Column)
		if col == nil || v.Row >= out.Len() {
			continue
		}
		switch v.Kind {
		case NullNotAllowed:
			out.Set(v.Row, col.Name, defaultValue(col))
		case LengthExceeded:
			if s, ok := out.Get(v.Row, col.Name).(string); ok {
				out.Set(v.Row, col.Name, truncate(s, col.Length))
			}
		case InvalidDate:
			out.Set(v.Row, col.Name, repairDate(col, out.Get(v.Row, col.Name)))
		}
	}

	var unrepairable []Violation
	done := make(map[string]bool)
	for _, v := range violations {
		if !v.IsDuplicate() {
			continue
		}
		col := regenerateColumn(table, v.Columns)
		if col == nil {
			continue
		}
		// The first row of a group keeps its value unless the live table
		// holds it too, which is reported as its own violation.
		rows := v.Rows
		if v.Kind != ExistingKey {
			if len(rows) < 2 {
				continue
			}
			rows = rows[1:]
		}
		for _, row := range rows {
			cell := fmt.Sprintf("%d\x1f%s", row, keyID(v.Columns))
			if done[cell] || row >= out.Len() {
				continue
			}
			done[cell] = true
			if !r.regenerate(table, out, col, v.Columns, row, live) {
				failed := v
				failed.Row, failed.Rows = row, []int{row}
				failed.Value = out.Get(row, col.Name)
				tries := r.maxAttempts
				if col.Type.IsInteger() {
					tries = integerScan
				}
				failed.Detail = fmt.Sprintf("no free value for %s after %d attempts", col.Name, tries)
				unrepairable = append(unrepairable, failed)
			}
		}
	}
	return out, unrepairable
}

// regenerateColumn picks the key column to rewrite: the last one that is not
// a foreign key, so references stay intact, else the last one.
func regenerateColumn(table *schema.Table, key []string) *schema.Column {
	for i := len(key) - 1; i >= 0; i-- {
		if col := table.Column(key[i]); col != nil && !col.ForeignKey {
			return col
		}
	}
	if len(key) == 0 {
		return nil
	}
	return table.Column(key[len(key)-1])
}

// regenerate replaces one cell of row with a value that makes its key unique
// in the batch and absent from the live table.
func (r *Repairer) regenerate(table *schema.Table, b RowBatch, col *schema.Column, key []string, row int, live Introspection) bool {
	idx, ok := columnIndexes(b, key)
	if !ok {
		return false
	}
	ci := b.Index(col.Name)
	original := b.Rows[row][ci]

	taken := make(map[string]bool, b.Len())
	for i, other := range b.Rows {
		if i == row {
			continue
		}
		if k, ok := rowKey(other, idx); ok {
			taken[k] = true
		}
	}

	free := func() bool {
		k, ok := rowKey(b.Rows[row], idx)
		if !ok || taken[k] {
			return false
		}
		values := make([]any, len(idx))
		for n, i := range idx {
			values[n] = b.Rows[row][i]
		}
		return !live.Contains(table.Name, key, values)
	}

	next := maxInt(b, ci) + 1
	if col.Type.IsInteger() {
		// Walk up from the batch maximum; the live table may already hold a
		// run of values above it.
		for n := int64(0); n < integerScan; n++ {
			b.Rows[row][ci] = next + n
			if free() {
				return true
			}
		}
		b.Rows[row][ci] = original
		return false
	}

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		b.Rows[row][ci] = r.candidate(col, original, attempt, next)
		if free() {
			return true
		}
	}
	b.Rows[row][ci] = original
	return false
}

// candidate produces the attempt-th replacement for a colliding value.
func (r *Repairer) candidate(col *schema.Column, current any, attempt int, next int64) any {
	f := r.faker
	switch {
	case col.Type.IsNumeric():
		return next + int64(attempt*f.Number(0, 1000))
	case col.Type.IsUUID():
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(f.LetterN(16))).String()
	case col.Type.IsBoolean():
		if b, ok := current.(bool); ok {
			return !b
		}
		return f.Bool()
	case col.Type.IsDateLike():
		base := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
		if s, ok := current.(string); ok {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
					base = t
					break
				}
			}
		}
		shifted := base.AddDate(0, 0, attempt+1+f.Number(0, 365))
		if col.Type == schema.Date {
			return shifted.Format("2006-01-02")
		}
		return shifted.Format("2006-01-02 15:04:05")
	}

	base := ""
	if current != nil {
		base = cellKey(current)
	}
	switch schema.AnalyzeMeaning(col.Name) {
	case schema.MeaningISBN:
		if col.Length == 0 || col.Length >= 13 {
			return isbn13(f)
		}
	case schema.MeaningEmail:
		if at := strings.LastIndex(base, "@"); at > 0 {
			domain := base[at:]
			return fitSuffix(base[:at], f.DigitN(4)+domain, col.Length)
		}
		return fitSuffix(base, f.DigitN(4), col.Length)
	case schema.MeaningUsername:
		if base == "" {
			base = "user"
		}
		return fitSuffix(base, f.DigitN(4), col.Length)
	}
	return fitSuffix(base, "_"+f.Password(true, false, true, false, false, 4), col.Length)
}

// fitSuffix appends suffix, trimming base so the result fits limit runes.
func fitSuffix(base, suffix string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(base)+utf8.RuneCountInString(suffix) <= limit {
		return base + suffix
	}
	room := limit - utf8.RuneCountInString(suffix)
	if room <= 0 {
		return truncate(strings.TrimPrefix(suffix, "_"), limit)
	}
	return truncate(base, room) + suffix
}

// isbn13 mints a 978-prefixed ISBN-13 with a valid check digit.
func isbn13(f *gofakeit.Faker) string {
	digits := "978" + f.DigitN(9)
	sum := 0
	for i, d := range digits {
		n := int(d - '0')
		if i%2 == 1 {
			n *= 3
		}
		sum += n
	}
	return digits + strconv.Itoa((10-sum%10)%10)
}

// maxInt returns the largest integer held in column ci, or 0.
func maxInt(b RowBatch, ci int) int64 {
	var top int64
	for _, row := range b.Rows {
		if ci >= len(row) {
			continue
		}
		if n, ok := toInt64(row[ci]); ok && n > top {
			top = n
		}
	}
	return top
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		return int64(math.Ceil(n)), true
	case float32:
		return int64(math.Ceil(float64(n))), true
	case nil:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cellKey(v)), 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Ceil(f)), true
}

// defaultValue is the type-appropriate stand-in for a forbidden NULL.
func defaultValue(col *schema.Column) any {
	switch t := col.Type; {
	case t.IsNumeric():
		return 0
	case t.IsBoolean():
		return false
	case t == schema.Date || t == schema.Timestamp || t == schema.TimestampTZ:
		return placeholderFor(t)
	case t == schema.Time:
		return "00:00:00"
	case t.IsUUID():
		return uuid.Nil.String()
	case t.IsJSON():
		return "{}"
	case t == schema.Inet:
		return "0.0.0.0"
	case t == schema.CIDR:
		return "0.0.0.0/0"
	case t == schema.MacAddr:
		return "00:00:00:00:00:00"
	case t == schema.Bytea:
		return []byte{}
	case t == schema.Interval:
		return "0"
	}
	return ""
}

func repairDate(col *schema.Column, v any) any {
	s, ok := v.(string)
	if ok && checkDate(s) == dateFeb29 {
		return fixFeb29(s)
	}
	return placeholderFor(col.Type)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
