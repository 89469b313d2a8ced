package schema

import "strings"

// Kind names the input widget and value shape of a field.
type Kind string

const (
	KindText        Kind = "text"
	KindEmail       Kind = "email"
	KindTel         Kind = "tel"
	KindNumber      Kind = "number"
	KindTextarea    Kind = "textarea"
	KindDate        Kind = "date"
	KindDatetime    Kind = "datetime"
	KindSelect      Kind = "select"
	KindMultiselect Kind = "multiselect"
	KindButtons     Kind = "buttons"
	KindFile        Kind = "file"
	KindGroup       Kind = "group"
)

// kindAliases maps alternative spellings accepted by the loader.
var kindAliases = map[string]Kind{
	"card":           KindGroup,
	"datetime-local": KindDatetime,
}

// Kinds lists every built-in kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindText, KindEmail, KindTel, KindNumber, KindTextarea, KindDate,
		KindDatetime, KindSelect, KindMultiselect, KindButtons, KindFile, KindGroup,
	}
}

// ParseKind normalises raw into a Kind. Unknown kinds are returned as-is with
// ok=false so callers can decide whether that is fatal.
func ParseKind(raw string) (Kind, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := kindAliases[trimmed]; ok {
		return alias, true
	}
	kind := Kind(trimmed)
	return kind, kind.Known()
}

// Known reports whether k is a built-in kind.
func (k Kind) Known() bool {
	for _, candidate := range Kinds() {
		if k == candidate {
			return true
		}
	}
	return false
}

// IsGroup reports whether k nests child fields.
func (k Kind) IsGroup() bool {
	return k == KindGroup
}

// HasOptions reports whether k picks from a fixed option list.
func (k Kind) HasOptions() bool {
	switch k {
	case KindSelect, KindMultiselect, KindButtons:
		return true
	default:
		return false
	}
}

// IsMultiValued reports whether k stores a list of option ids.
func (k Kind) IsMultiValued() bool {
	return k == KindMultiselect
}

// IsNumeric reports whether bounds compare numerically.
func (k Kind) IsNumeric() bool {
	return k == KindNumber
}

// IsTemporal reports whether bounds compare chronologically.
func (k Kind) IsTemporal() bool {
	return k == KindDate || k == KindDatetime
}

// IsScalar reports whether k stores a single string-like value that patterns
// can apply to.
func (k Kind) IsScalar() bool {
	return !k.IsGroup() && !k.IsMultiValued()
}

func (k Kind) String() string {
	return string(k)
}
