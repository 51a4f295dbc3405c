package versions

import (
	"time"

	"github.com/promptshare/promptshare/backend/go-services/internal/document"
)

// Kind tells why a version row exists.
type Kind string

const (
	KindSave         Kind = "save"
	KindRevertBackup Kind = "revert-backup"
)

// ChangesSummary is the positional line diff against the previous version.
type ChangesSummary struct {
	Added            int `json:"added" bson:"added"`
	Removed          int `json:"removed" bson:"removed"`
	Modified         int `json:"modified" bson:"modified"`
	TotalChanges     int `json:"totalChanges" bson:"totalChanges"`
	ChangePercentage int `json:"changePercentage" bson:"changePercentage"`
}

// Version is an immutable snapshot of a document's versioned fields.
// (DocumentID, VersionNumber) is unique.
type Version struct {
	ID             string          `json:"id" bson:"id"`
	DocumentID     string          `json:"documentId" bson:"documentId"`
	VersionNumber  int             `json:"versionNumber" bson:"versionNumber"`
	Snapshot       document.Fields `json:"snapshot" bson:"snapshot"`
	AuthorID       string          `json:"authorId" bson:"authorId"`
	AuthorName     string          `json:"authorName" bson:"authorName"`
	Message        string          `json:"message,omitempty" bson:"message,omitempty"`
	ChangesSummary ChangesSummary  `json:"changesSummary" bson:"changesSummary"`
	Kind           Kind            `json:"kind" bson:"kind"`
	RevertedFrom   int             `json:"revertedFrom,omitempty" bson:"revertedFrom,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
}

func (v *Version) clone() *Version {
	out := *v
	out.Snapshot = v.Snapshot.Clone()
	return &out
}

// RevertResult is returned by Revert.
type RevertResult struct {
	Document            *document.Document `json:"document"`
	Backup              *Version           `json:"backup"`
	PreviousVersion     int                `json:"previousVersion"`
	NewVersion          int                `json:"newVersion"`
	RevertedFromVersion int                `json:"revertedFromVersion"`
}
