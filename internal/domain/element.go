package domain

import "encoding/json"

// Element is one drawable unit in a shared document. The server treats its
// drawing attributes as an opaque payload and only inspects the identifier
// and the two optional ordering fields used for conflict resolution.
type Element struct {
	ID        string
	Version   *int64
	UpdatedAt *float64

	// Raw holds the element exactly as the client sent it, so unknown
	// attributes survive the merge-and-rebroadcast round trip untouched.
	Raw json.RawMessage
}

type elementFields struct {
	ID        string   `json:"id"`
	Version   *int64   `json:"version,omitempty"`
	UpdatedAt *float64 `json:"updatedAt,omitempty"`
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var fields elementFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	e.ID = fields.ID
	e.Version = fields.Version
	e.UpdatedAt = fields.UpdatedAt
	e.Raw = append(json.RawMessage(nil), data...)

	return nil
}

func (e Element) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}

	// Elements built in-process (tests, tooling) have no raw bytes yet.
	return json.Marshal(elementFields{
		ID:        e.ID,
		Version:   e.Version,
		UpdatedAt: e.UpdatedAt,
	})
}
