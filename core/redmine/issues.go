package redmine

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Ref is a named reference to another Redmine object (status, tracker, version, user).
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Issue is the subset of a Redmine issue used by the VEuPathDB checks.
type Issue struct {
	ID           int           `json:"id"`
	Subject      string        `json:"subject"`
	Status       Ref           `json:"status"`
	Tracker      Ref           `json:"tracker"`
	FixedVersion *Ref          `json:"fixed_version,omitempty"`
	AssignedTo   *Ref          `json:"assigned_to,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// FixedVersionName returns the name of the target version, or "" if none is set.
func (i *Issue) FixedVersionName() string {
	if i == nil || i.FixedVersion == nil {
		return ""
	}
	return i.FixedVersion.Name
}

// AssigneeName returns the name of the assignee, or "" if unassigned.
func (i *Issue) AssigneeName() string {
	if i == nil || i.AssignedTo == nil {
		return ""
	}
	return i.AssignedTo.Name
}

// CustomField is one custom field entry of an issue.
// Value is nil when Redmine sent no value at all; otherwise it holds a string,
// a list of strings (multiple fields) or a JSON null.
type CustomField struct {
	ID       int
	Name     string
	Multiple bool
	Value    *structpb.Value
}

type customFieldJSON struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Multiple bool            `json:"multiple,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

func (f *CustomField) UnmarshalJSON(data []byte) error {
	var aux customFieldJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.ID = aux.ID
	f.Name = aux.Name
	f.Multiple = aux.Multiple
	f.Value = nil
	if len(aux.Value) == 0 {
		return nil
	}
	v := &structpb.Value{}
	if err := protojson.Unmarshal(aux.Value, v); err != nil {
		return fmt.Errorf("failed to parse value of custom field %q: %w", aux.Name, err)
	}
	f.Value = v
	return nil
}

func (f CustomField) MarshalJSON() ([]byte, error) {
	aux := customFieldJSON{ID: f.ID, Name: f.Name, Multiple: f.Multiple}
	if f.Value != nil {
		raw, err := protojson.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value of custom field %q: %w", f.Name, err)
		}
		aux.Value = raw
	}
	return json.Marshal(aux)
}

// StringField builds a single-value custom field.
func StringField(id int, name, value string) CustomField {
	return CustomField{ID: id, Name: name, Value: structpb.NewStringValue(value)}
}

// ListField builds a multiple-value custom field.
func ListField(id int, name string, values ...string) CustomField {
	items := make([]*structpb.Value, 0, len(values))
	for _, v := range values {
		items = append(items, structpb.NewStringValue(v))
	}
	return CustomField{
		ID:       id,
		Name:     name,
		Multiple: true,
		Value:    structpb.NewListValue(&structpb.ListValue{Values: items}),
	}
}
