package redmine

import (
	"maps"
	"net/url"
)

// DefaultFieldMap maps the simple filter names used by the checks to the
// query parameters of the VEuPathDB Redmine instance.
var DefaultFieldMap = map[string]string{
	"status":          "status_id",
	"build":           "fixed_version_id",
	"assignee":        "assigned_to_id",
	"team":            "cf_17",
	"datatype":        "cf_94",
	"component":       "cf_92",
	"organism_abbrev": "cf_110",
}

// Filter is a set of key/value constraints for an issue search.
// Keys are looked up in the field map first so callers can use simple names.
type Filter struct {
	fieldMap map[string]string
	fields   map[string]string
}

// NewFilter returns an empty filter using fieldMap (DefaultFieldMap when nil).
func NewFilter(fieldMap map[string]string) *Filter {
	if fieldMap == nil {
		fieldMap = DefaultFieldMap
	}
	return &Filter{fieldMap: fieldMap, fields: map[string]string{}}
}

func (f *Filter) key(name string) string {
	if k, ok := f.fieldMap[name]; ok {
		return k
	}
	return name
}

// Set adds or replaces a constraint.
func (f *Filter) Set(name, value string) {
	f.fields[f.key(name)] = value
}

// Unset removes a constraint; unknown names are ignored.
func (f *Filter) Unset(name string) {
	delete(f.fields, f.key(name))
}

// Get returns the current value of a constraint.
func (f *Filter) Get(name string) (string, bool) {
	v, ok := f.fields[f.key(name)]
	return v, ok
}

// Clone returns an independent copy of the filter.
func (f *Filter) Clone() *Filter {
	return &Filter{fieldMap: f.fieldMap, fields: maps.Clone(f.fields)}
}

// Values returns the constraints as query parameters.
func (f *Filter) Values() url.Values {
	v := url.Values{}
	for k, val := range f.fields {
		v.Set(k, val)
	}
	return v
}
