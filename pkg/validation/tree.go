package validation

import (
	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// ValidateTree checks every leaf of fields against tree in declaration order.
// parentPath prefixes the paths of fields; pass "" for a root schema. Groups
// are descended into and never reported themselves.
func ValidateTree(fields []schema.Field, tree state.Node, parentPath string) Result {
	result := Result{Valid: true, Errors: ErrorMap{}}
	validateInto(fields, tree, parentPath, &result)
	return result
}

func validateInto(fields []schema.Field, tree state.Node, parentPath string, result *Result) {
	for _, field := range fields {
		path := fieldpath.Join(parentPath, field.Name)
		if field.Kind.IsGroup() {
			validateInto(field.Children, tree, path, result)
			continue
		}

		value, _ := state.Resolve(tree, path)
		issue := ValidateField(field, value)
		if issue == nil {
			continue
		}
		issue.Path = path
		result.Valid = false
		result.Errors[path] = issue.Message
		result.Issues = append(result.Issues, *issue)
	}
}

// UploadFailed builds the issue recorded when a file transport fails.
func UploadFailed(path string) Issue {
	return Issue{Path: path, Code: CodeUploadFailed, Message: UploadFailedMessage}
}

// UnsupportedKind builds the issue a renderer reports for an unknown kind.
func UnsupportedKind(path string, kind schema.Kind) Issue {
	return Issue{
		Path:    path,
		Code:    CodeUnsupportedFieldKind,
		Message: "Unsupported field type: " + kind.String(),
		Params:  map[string]any{"kind": kind.String()},
	}
}
