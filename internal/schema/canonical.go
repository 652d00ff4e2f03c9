package schema

import "fmt"

// CanonicalType is one of the fixed set of base column types the diff
// engine compares against. Concrete column types resolve to exactly one
// canonical type; two columns are type-equal only when those match.
type CanonicalType string

const (
	TypeAuto       CanonicalType = "auto"
	TypeChar       CanonicalType = "char"
	TypeText       CanonicalType = "text"
	TypeInt        CanonicalType = "int"
	TypeBigInt     CanonicalType = "bigint"
	TypeSmallInt   CanonicalType = "smallint"
	TypeFloat      CanonicalType = "float"
	TypeDouble     CanonicalType = "double"
	TypeDecimal    CanonicalType = "decimal"
	TypeBool       CanonicalType = "bool"
	TypeDate       CanonicalType = "date"
	TypeTime       CanonicalType = "time"
	TypeDateTime   CanonicalType = "datetime"
	TypeTimestamp  CanonicalType = "timestamp"
	TypeBlob       CanonicalType = "blob"
	TypeUUID       CanonicalType = "uuid"
	TypeForeignKey CanonicalType = "foreign_key"
	TypeArray      CanonicalType = "array"
	TypeJSON       CanonicalType = "json"
	TypeBinaryJSON CanonicalType = "binary_json"
	TypeHStore     CanonicalType = "hstore"
	TypeInterval   CanonicalType = "interval"
	TypeTSVector   CanonicalType = "tsvector"
)

// ConfigurationError reports a column type the registry does not know.
type ConfigurationError struct {
	Type string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported column type %q", e.Type)
}

var canonical = map[CanonicalType]struct{}{
	TypeAuto: {}, TypeChar: {}, TypeText: {}, TypeInt: {}, TypeBigInt: {},
	TypeSmallInt: {}, TypeFloat: {}, TypeDouble: {}, TypeDecimal: {},
	TypeBool: {}, TypeDate: {}, TypeTime: {}, TypeDateTime: {},
	TypeTimestamp: {}, TypeBlob: {}, TypeUUID: {}, TypeForeignKey: {},
	TypeArray: {}, TypeJSON: {}, TypeBinaryJSON: {}, TypeHStore: {},
	TypeInterval: {}, TypeTSVector: {},
}

// ancestors links each known specialization to its parent type. Built once
// at process start and read-only afterwards; Resolve walks it from the
// most specific name upwards until a canonical type shows up.
var ancestors = map[string]string{
	"big_auto":    "auto",
	"identity":    "auto",
	"fixed_char":  "char",
	"ip":          "bigint",
	"bit":         "bigint",
	"password":    "blob",
	"binary_uuid": "uuid",
	"datetime_tz": "datetime",
}

// Resolve maps a concrete column type name to its canonical type. A name
// that is itself canonical resolves to itself; otherwise the ancestor
// chain is walked. Unknown names are a ConfigurationError, never a silent
// default.
func Resolve(concrete string) (CanonicalType, error) {
	name := concrete
	for depth := 0; depth < len(ancestors)+1; depth++ {
		if _, ok := canonical[CanonicalType(name)]; ok {
			return CanonicalType(name), nil
		}
		parent, ok := ancestors[name]
		if !ok {
			break
		}
		name = parent
	}
	return "", &ConfigurationError{Type: concrete}
}

// extension marks the types that render under the extension module prefix.
var extension = map[CanonicalType]struct{}{
	TypeArray: {}, TypeBinaryJSON: {}, TypeHStore: {},
	TypeInterval: {}, TypeJSON: {}, TypeTSVector: {},
}

// Module returns the module qualifier used when rendering a column of
// this type.
func (t CanonicalType) Module() string {
	if _, ok := extension[t]; ok {
		return "ext"
	}
	return "sch"
}

var fieldNames = map[CanonicalType]string{
	TypeAuto:       "Auto",
	TypeChar:       "Char",
	TypeText:       "Text",
	TypeInt:        "Int",
	TypeBigInt:     "BigInt",
	TypeSmallInt:   "SmallInt",
	TypeFloat:      "Float",
	TypeDouble:     "Double",
	TypeDecimal:    "Decimal",
	TypeBool:       "Bool",
	TypeDate:       "Date",
	TypeTime:       "Time",
	TypeDateTime:   "DateTime",
	TypeTimestamp:  "Timestamp",
	TypeBlob:       "Blob",
	TypeUUID:       "UUID",
	TypeForeignKey: "ForeignKey",
	TypeArray:      "Array",
	TypeJSON:       "JSON",
	TypeBinaryJSON: "BinaryJSON",
	TypeHStore:     "HStore",
	TypeInterval:   "Interval",
	TypeTSVector:   "TSVector",
}

// FieldName returns the declaration name for this type. Missing mappings
// are a ConfigurationError at render time.
func (t CanonicalType) FieldName() (string, error) {
	name, ok := fieldNames[t]
	if !ok {
		return "", &ConfigurationError{Type: string(t)}
	}
	return name, nil
}
