package schema

import "strings"

// DataType is the closed set of scalar SQL types understood by the parser.
type DataType int

const (
	Text DataType = iota // fallback for unrecognized type tokens
	Integer
	BigInt
	SmallInt
	Serial
	BigSerial
	SmallSerial
	Decimal
	Numeric
	Real
	DoublePrecision
	Varchar
	Char
	Boolean
	Date
	Time
	Timestamp
	TimestampTZ
	UUID
	JSON
	JSONB
	Inet
	CIDR
	MacAddr
	Bytea
	Interval
)

var typeNames = map[DataType]string{
	Text:            "TEXT",
	Integer:         "INTEGER",
	BigInt:          "BIGINT",
	SmallInt:        "SMALLINT",
	Serial:          "SERIAL",
	BigSerial:       "BIGSERIAL",
	SmallSerial:     "SMALLSERIAL",
	Decimal:         "DECIMAL",
	Numeric:         "NUMERIC",
	Real:            "REAL",
	DoublePrecision: "DOUBLE PRECISION",
	Varchar:         "VARCHAR",
	Char:            "CHAR",
	Boolean:         "BOOLEAN",
	Date:            "DATE",
	Time:            "TIME",
	Timestamp:       "TIMESTAMP",
	TimestampTZ:     "TIMESTAMPTZ",
	UUID:            "UUID",
	JSON:            "JSON",
	JSONB:           "JSONB",
	Inet:            "INET",
	CIDR:            "CIDR",
	MacAddr:         "MACADDR",
	Bytea:           "BYTEA",
	Interval:        "INTERVAL",
}

func (t DataType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "TEXT"
}

// typeTable maps upper-cased type keywords (multi-word forms joined by a
// single space) to a DataType.
var typeTable = map[string]DataType{
	"INT":                         Integer,
	"INTEGER":                     Integer,
	"INT4":                        Integer,
	"MEDIUMINT":                   Integer,
	"BIGINT":                      BigInt,
	"INT8":                        BigInt,
	"SMALLINT":                    SmallInt,
	"INT2":                        SmallInt,
	"TINYINT":                     SmallInt,
	"SERIAL":                      Serial,
	"SERIAL4":                     Serial,
	"BIGSERIAL":                   BigSerial,
	"SERIAL8":                     BigSerial,
	"SMALLSERIAL":                 SmallSerial,
	"SERIAL2":                     SmallSerial,
	"DECIMAL":                     Decimal,
	"DEC":                         Decimal,
	"MONEY":                       Decimal,
	"NUMERIC":                     Numeric,
	"NUMBER":                      Numeric,
	"REAL":                        Real,
	"FLOAT4":                      Real,
	"FLOAT":                       DoublePrecision,
	"FLOAT8":                      DoublePrecision,
	"DOUBLE":                      DoublePrecision,
	"DOUBLE PRECISION":            DoublePrecision,
	"DOUBLE_PRECISION":            DoublePrecision,
	"VARCHAR":                     Varchar,
	"VARCHAR2":                    Varchar,
	"NVARCHAR":                    Varchar,
	"NVARCHAR2":                   Varchar,
	"CHARACTER VARYING":           Varchar,
	"CHAR VARYING":                Varchar,
	"CHAR":                        Char,
	"CHARACTER":                   Char,
	"NCHAR":                       Char,
	"BPCHAR":                      Char,
	"TEXT":                        Text,
	"CLOB":                        Text,
	"BOOLEAN":                     Boolean,
	"BOOL":                        Boolean,
	"BIT":                         Boolean,
	"DATE":                        Date,
	"TIME":                        Time,
	"TIME WITHOUT TIME ZONE":      Time,
	"TIME WITH TIME ZONE":         Time,
	"TIMETZ":                      Time,
	"TIMESTAMP":                   Timestamp,
	"DATETIME":                    Timestamp,
	"DATETIME2":                   Timestamp,
	"SMALLDATETIME":               Timestamp,
	"TIMESTAMP WITHOUT TIME ZONE": Timestamp,
	"TIMESTAMPTZ":                 TimestampTZ,
	"TIMESTAMP WITH TIME ZONE":    TimestampTZ,
	"DATETIMEOFFSET":              TimestampTZ,
	"UUID":                        UUID,
	"UNIQUEIDENTIFIER":            UUID,
	"JSON":                        JSON,
	"JSONB":                       JSONB,
	"INET":                        Inet,
	"CIDR":                        CIDR,
	"MACADDR":                     MacAddr,
	"MACADDR8":                    MacAddr,
	"BYTEA":                       Bytea,
	"BLOB":                        Bytea,
	"BINARY":                      Bytea,
	"VARBINARY":                   Bytea,
	"INTERVAL":                    Interval,
}

// LookupType maps a type keyword to a DataType. Unknown keywords map to Text;
// the second result reports whether the keyword was recognized.
func LookupType(token string) (DataType, bool) {
	key := strings.Join(strings.Fields(strings.ToUpper(token)), " ")
	if t, ok := typeTable[key]; ok {
		return t, true
	}
	return Text, false
}

// IsTypePrefix reports whether words form the start of a known multi-word
// type, so the parser knows to keep consuming words.
func IsTypePrefix(words string) bool {
	key := strings.Join(strings.Fields(strings.ToUpper(words)), " ") + " "
	for name := range typeTable {
		if strings.HasPrefix(name, key) {
			return true
		}
	}
	return false
}

func (t DataType) IsInteger() bool {
	switch t {
	case Integer, BigInt, SmallInt, Serial, BigSerial, SmallSerial:
		return true
	}
	return false
}

func (t DataType) IsSerial() bool {
	return t == Serial || t == BigSerial || t == SmallSerial
}

func (t DataType) IsNumeric() bool {
	switch t {
	case Decimal, Numeric, Real, DoublePrecision:
		return true
	}
	return t.IsInteger()
}

// IsText reports whether the type stores free character data.
func (t DataType) IsText() bool {
	return t == Text || t == Varchar || t == Char
}

// HasLength reports whether a (n) parameter is a character length.
func (t DataType) HasLength() bool {
	return t == Varchar || t == Char
}

func (t DataType) IsBoolean() bool {
	return t == Boolean
}

// IsDateLike covers the calendar-bearing types checked for date validity.
func (t DataType) IsDateLike() bool {
	return t == Date || t == Timestamp || t == TimestampTZ
}

func (t DataType) IsUUID() bool {
	return t == UUID
}

func (t DataType) IsJSON() bool {
	return t == JSON || t == JSONB
}
