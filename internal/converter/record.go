package converter

// RecordKind tells which schema a loosely typed record follows.
type RecordKind int

const (
	// KindInternal records already use the tracker field names (id, task, date...).
	KindInternal RecordKind = iota
	// KindExternal records come from the spreadsheet import schema (ID, Task, End Date...).
	KindExternal
)

func (k RecordKind) String() string {
	if k == KindExternal {
		return "external"
	}
	return "internal"
}

// Record is a raw row tagged with the schema it was detected as.
type Record struct {
	Kind   RecordKind
	Fields map[string]any
}

// externalMarkers are the capitalized schema keys only the import schema uses.
var externalMarkers = []string{"ID", "Task", "PIC", "End Date", "Start Date"}

// IsExternal reports whether the fields follow the spreadsheet import schema.
func IsExternal(fields map[string]any) bool {
	for _, k := range externalMarkers {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

// Classify tags a raw row.
func Classify(fields map[string]any) Record {
	if IsExternal(fields) {
		return Record{Kind: KindExternal, Fields: fields}
	}
	return Record{Kind: KindInternal, Fields: fields}
}
