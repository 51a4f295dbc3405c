package document

import "time"

// Fields holds the versioned part of a prompt document. Every Version
// snapshots exactly these fields; revert restores exactly these fields.
type Fields struct {
	Title       string   `json:"title" bson:"title"`
	Content     string   `json:"content" bson:"content"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Category    string   `json:"category,omitempty" bson:"category,omitempty"`
}

// Attachment is non-versioned metadata; the binary lives elsewhere.
type Attachment struct {
	Name        string `json:"name" bson:"name"`
	URL         string `json:"url" bson:"url"`
	ContentType string `json:"contentType,omitempty" bson:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty" bson:"size,omitempty"`
}

// Document is the current, mutable row of a shared prompt.
// Version only changes through a version save or a revert.
type Document struct {
	ID          string       `json:"id" bson:"id"`
	OwnerID     string       `json:"ownerId" bson:"ownerId"`
	IsPublic    bool         `json:"isPublic" bson:"isPublic"`
	Fields      `bson:",inline"`
	Attachments []Attachment `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Version     int          `json:"version" bson:"version"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Fields = d.Fields.Clone()
	if d.Attachments != nil {
		out.Attachments = append([]Attachment(nil), d.Attachments...)
	}
	return &out
}

// Clone returns a copy of the fields with its own tag slice.
func (f Fields) Clone() Fields {
	if f.Tags != nil {
		f.Tags = append([]string(nil), f.Tags...)
	}
	return f
}

// ReadableBy reports whether actor may read the document: owners always,
// anyone (including anonymous callers) when it is public.
func (d *Document) ReadableBy(actor string) bool {
	return d.IsPublic || (actor != "" && actor == d.OwnerID)
}
