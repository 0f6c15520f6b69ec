package predicate

// Field names as they appear in triples.
const (
	FieldStatus       = "status"
	FieldVisitingDate = "visitingDate"
	FieldVisitType    = "visitType"
	FieldCompany      = "company"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindTimestamp
)

type fieldSpec struct {
	column string // Mongo document key
	kind   fieldKind
}

var fields = map[string]fieldSpec{
	FieldStatus:       {column: "status", kind: kindString},
	FieldVisitingDate: {column: "visiting_date", kind: kindTimestamp},
	FieldVisitType:    {column: "visit_type", kind: kindString},
	FieldCompany:      {column: "company", kind: kindString},
}

var mongoOps = map[string]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
}
