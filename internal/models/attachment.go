package models

import (
	"encoding/json"
	"fmt"
)

// Attachment is an uploaded file held by the storage collaborator. Filename
// and Reference are the only fields the engine reads; every other key from the
// stored JSON object is kept in Extra and written back unchanged.
type Attachment struct {
	Filename  string
	Reference string
	Extra     map[string]any
}

// legacyReferenceKey is the key older rows used for the Drive file ID.
const legacyReferenceKey = "drive_file_id"

// MarshalJSON flattens Extra next to the typed fields.
func (a Attachment) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+2)
	for k, v := range a.Extra {
		out[k] = v
	}
	out["filename"] = a.Filename
	out["reference"] = a.Reference
	return json.Marshal(out)
}

// UnmarshalJSON reads filename and reference and keeps the rest in Extra.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("attachment: %w", err)
	}
	var err error
	if a.Filename, err = takeString(raw, "filename"); err != nil {
		return err
	}
	if a.Reference, err = takeString(raw, "reference"); err != nil {
		return err
	}
	if a.Reference == "" {
		if legacy, ok := raw[legacyReferenceKey].(string); ok {
			a.Reference = legacy
		}
	}
	a.Extra = nil
	if len(raw) > 0 {
		a.Extra = raw
	}
	return nil
}

// takeString removes key from m and returns it as a string.
func takeString(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		delete(m, key)
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("attachment: %s must be a string, got %T", key, v)
	}
	delete(m, key)
	return s, nil
}
