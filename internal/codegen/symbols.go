package codegen

import (
	"strings"

	"github.com/matthewbaird/zkgen/internal/naming"
)

// WorkspaceConst names a workspace constant: ("Acme CRM", "ID") -> AcmeCRMWorkspaceID.
func WorkspaceConst(workspace, kind string) (string, error) {
	ws, err := naming.TypeCase(workspace)
	if err != nil {
		return "", err
	}
	return ws + "Workspace" + kind, nil
}

// ListType names the accessor type of a list: "Tasks" -> TasksList.
func ListType(list string) (string, error) {
	l, err := naming.TypeCase(list)
	if err != nil {
		return "", err
	}
	return l + "List", nil
}

// ListConst names a list constant: ("Tasks", "UUID") -> TasksListUUID.
func ListConst(list, kind string) (string, error) {
	t, err := ListType(list)
	if err != nil {
		return "", err
	}
	return t + kind, nil
}

// FieldConst names a field constant: ("Task", "Title", "ID") -> TaskTitleFieldID.
func FieldConst(item, field, kind string) (string, error) {
	prefix, err := itemField(item, field)
	if err != nil {
		return "", err
	}
	return prefix + "Field" + kind, nil
}

// LabelConst names the id constant of a label:
// ("Task", "Priority", "High") -> TaskPriorityHighLabelID.
func LabelConst(item, field, label string) (string, error) {
	prefix, err := itemField(item, field)
	if err != nil {
		return "", err
	}
	l, err := naming.TypeCase(label)
	if err != nil {
		return "", err
	}
	return prefix + l + "LabelID", nil
}

// LabelTableVar names the sorted label table of a field:
// ("Task", "Priority") -> taskPriorityLabels.
func LabelTableVar(item, field string) (string, error) {
	i, err := naming.LowerCamel(item)
	if err != nil {
		return "", err
	}
	f, err := naming.TypeCase(field)
	if err != nil {
		return "", err
	}
	return i + f + "Labels", nil
}

// LabelLookupFunc names the label lookup function of a field:
// ("Task", "Priority") -> TaskLabelIDForPriority.
func LabelLookupFunc(item, field string) (string, error) {
	i, err := naming.TypeCase(item)
	if err != nil {
		return "", err
	}
	f, err := naming.TypeCase(field)
	if err != nil {
		return "", err
	}
	return i + "LabelIDFor" + f, nil
}

// Comment flattens s to one line so it is safe inside a // comment.
func Comment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func itemField(item, field string) (string, error) {
	i, err := naming.TypeCase(item)
	if err != nil {
		return "", err
	}
	f, err := naming.TypeCase(field)
	if err != nil {
		return "", err
	}
	return i + f, nil
}
