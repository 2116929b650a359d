package model

import "encoding/json"

// Field is a tri-state update field: absent from the payload (leave the
// stored value alone), explicitly null (clear it), or a concrete value
// (replace it). The zero Field means absent.
type Field[T any] struct {
	present bool
	null    bool
	value   T
	err     error
}

// FieldValue returns a Field carrying v.
func FieldValue[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// FieldClear returns a Field that clears the stored value.
func FieldClear[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Present reports whether the key appeared in the payload at all.
func (f Field[T]) Present() bool { return f.present }

// Null reports whether the key was explicitly set to null.
func (f Field[T]) Null() bool { return f.null }

// Value returns the decoded value. Only meaningful when Present and not
// Null and Err is nil.
func (f Field[T]) Value() T { return f.value }

// Err returns the decode error when the payload held the wrong type.
func (f Field[T]) Err() error { return f.err }

// UnmarshalJSON is only invoked for keys present in the payload. A type
// mismatch is recorded rather than returned so the caller decides when,
// and whether, it becomes a request error.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.present = true
	if string(b) == "null" {
		f.null = true
		return nil
	}
	if err := json.Unmarshal(b, &f.value); err != nil {
		f.err = err
	}
	return nil
}

// NotePatch describes a partial update to a note. Title and Content are
// replace-or-keep (nil keeps the stored value); the rest are tri-state.
type NotePatch struct {
	Title     *string
	Content   *string
	Location  Field[string]
	Tags      Field[string]
	EventDate Field[Date]
	EventTime Field[TimeOfDay]
}

// Apply overlays the patch onto n in place.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Location.Present() {
		if p.Location.Null() {
			n.Location = nil
		} else {
			v := p.Location.Value()
			n.Location = &v
		}
	}
	if p.Tags.Present() {
		if p.Tags.Null() {
			n.Tags = nil
		} else {
			v := p.Tags.Value()
			n.Tags = &v
		}
	}
	if p.EventDate.Present() {
		if p.EventDate.Null() {
			n.EventDate = nil
		} else {
			v := p.EventDate.Value()
			n.EventDate = &v
		}
	}
	if p.EventTime.Present() {
		if p.EventTime.Null() {
			n.EventTime = nil
		} else {
			v := p.EventTime.Value()
			n.EventTime = &v
		}
	}
}
