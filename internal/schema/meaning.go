package schema

import "strings"

var abbreviations = map[string]string{
	// Common Nouns
	"nm": "name", "dt": "date", "no": "number", "cd": "code",
	"desc": "description", "amt": "amount", "cnt": "count", "qty": "quantity",
	"addr": "address", "tel": "phone", "hp": "phone", "ph": "phone",
	"pwd": "password", "passwd": "password", "pw": "password",
	"img": "image", "url": "url", "ip": "ip", "zip": "zipcode", "post": "zipcode",
	"msg": "message", "txt": "text", "tit": "title", "subj": "subject",
	"usr": "user", "uname": "username", "login": "username", "handle": "username",
	"emp": "employee", "dept": "department", "grp": "group", "cat": "category",
	"loc": "location", "lat": "latitude", "lng": "longitude", "lon": "longitude",
	"bal": "balance", "avg": "average", "uid": "id", "pid": "id",
	"mail": "email",

	// Verbs / Status
	"reg": "registered", "mod": "modified", "del": "deleted", "cre": "created",
	"upd": "updated", "yn": "yesno", "stat": "status", "sts": "status",
	"typ": "type", "val": "value", "seq": "sequence", "idx": "index",
	"is": "yesno", "flg": "flag",
}

// Meaning is a coarse shape classification of a column, derived from its
// name. The generator and the repairer pick value formats from it.
type Meaning string

const (
	MeaningNone     Meaning = ""
	MeaningISBN     Meaning = "isbn"
	MeaningEmail    Meaning = "email"
	MeaningUsername Meaning = "username"
	MeaningPhone    Meaning = "phone"
	MeaningName     Meaning = "name"
	MeaningAddress  Meaning = "address"
	MeaningCity     Meaning = "city"
	MeaningCountry  Meaning = "country"
	MeaningZipcode  Meaning = "zipcode"
	MeaningURL      Meaning = "url"
	MeaningTitle    Meaning = "title"
	MeaningText     Meaning = "description"
	MeaningPrice    Meaning = "price"
	MeaningCount    Meaning = "count"
	MeaningYear     Meaning = "year"
	MeaningYesNo    Meaning = "yesno"
	MeaningCode     Meaning = "code"
)

// ExpandName decodes abbreviations in a snake_case column name, e.g.
// "usr_nm" -> "user name".
func ExpandName(colName string) string {
	parts := strings.FieldsFunc(strings.ToLower(colName), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	decoded := make([]string, 0, len(parts))
	for _, part := range parts {
		if full, ok := abbreviations[part]; ok {
			decoded = append(decoded, full)
		} else {
			decoded = append(decoded, part)
		}
	}
	return strings.Join(decoded, " ")
}

// AnalyzeMeaning classifies a column by its (expanded) name.
func AnalyzeMeaning(colName string) Meaning {
	n := ExpandName(colName)
	raw := strings.ToLower(colName)

	switch {
	case strings.Contains(raw, "isbn"):
		return MeaningISBN
	case strings.Contains(n, "email"):
		return MeaningEmail
	case strings.Contains(n, "username") || strings.Contains(n, "user name") ||
		strings.Contains(n, "nickname") || strings.Contains(n, "screen name"):
		return MeaningUsername
	case strings.Contains(n, "phone") || strings.Contains(n, "mobile") || strings.Contains(n, "fax"):
		return MeaningPhone
	case strings.Contains(n, "zipcode") || strings.Contains(n, "postal"):
		return MeaningZipcode
	case strings.Contains(n, "address") || strings.Contains(n, "street"):
		return MeaningAddress
	case strings.Contains(n, "city"):
		return MeaningCity
	case strings.Contains(n, "country"):
		return MeaningCountry
	case strings.Contains(n, "url") || strings.Contains(n, "website") || strings.Contains(n, "link"):
		return MeaningURL
	case strings.Contains(n, "year"):
		return MeaningYear
	case strings.Contains(n, "price") || strings.Contains(n, "amount") || strings.Contains(n, "cost") ||
		strings.Contains(n, "balance") || strings.Contains(n, "salary") || strings.Contains(n, "total"):
		return MeaningPrice
	case strings.Contains(n, "count") || strings.Contains(n, "quantity") || strings.Contains(n, "stock"):
		return MeaningCount
	case strings.Contains(n, "yesno") || strings.Contains(n, "flag") || strings.HasPrefix(n, "active") ||
		strings.Contains(n, "enabled"):
		return MeaningYesNo
	case strings.Contains(n, "title") || strings.Contains(n, "subject"):
		return MeaningTitle
	case strings.Contains(n, "description") || strings.Contains(n, "comment") ||
		strings.Contains(n, "message") || strings.Contains(n, "text") ||
		strings.Contains(n, "content") || strings.Contains(n, "note") || strings.Contains(n, "bio"):
		return MeaningText
	case strings.Contains(n, "name") || strings.Contains(n, "first") || strings.Contains(n, "last"):
		return MeaningName
	case strings.Contains(n, "code") || strings.Contains(n, "sku"):
		return MeaningCode
	}
	return MeaningNone
}
