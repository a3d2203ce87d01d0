package redmine

import "google.golang.org/protobuf/types/known/structpb"

// Fields maps custom field names to their raw values for one issue.
// Lookups never fail: an absent field reads as "" or an empty list.
type Fields map[string]*structpb.Value

// CustomFields flattens the custom field collection of an issue.
// A nil issue or an issue without custom fields yields an empty mapping.
func CustomFields(issue *Issue) Fields {
	fields := Fields{}
	if issue == nil {
		return fields
	}
	for _, cf := range issue.CustomFields {
		if cf.Name == "" {
			continue
		}
		fields[cf.Name] = cf.Value
	}
	return fields
}

// IDs maps custom field names to their Redmine ids.
func IDs(issue *Issue) map[string]int {
	ids := map[string]int{}
	if issue == nil {
		return ids
	}
	for _, cf := range issue.CustomFields {
		ids[cf.Name] = cf.ID
	}
	return ids
}

// Has reports whether the issue carries the field at all, even with an empty value.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// String returns the string value of a single-value field.
func (f Fields) String(name string) string {
	return f[name].GetStringValue()
}

// List returns the values of a multiple-value field, skipping empty entries.
// A non-empty single value is returned as a one-element list.
func (f Fields) List(name string) []string {
	v := f[name]
	if lv := v.GetListValue(); lv != nil {
		var out []string
		for _, item := range lv.GetValues() {
			if s := item.GetStringValue(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := v.GetStringValue(); s != "" {
		return []string{s}
	}
	return nil
}
