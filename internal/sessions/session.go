package sessions

import "time"

// Session is the live collaboration context of one document. At most one
// active session exists per document.
type Session struct {
	ID           string    `bson:"id" json:"id"`
	DocumentID   string    `bson:"documentId" json:"documentId"`
	CreatedBy    string    `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	LastActivity time.Time `bson:"lastActivity" json:"lastActivity"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
}

// Participant is one user attached to a session, keyed by (SessionID, UserID).
type Participant struct {
	ID        string    `bson:"id" json:"id"`
	SessionID string    `bson:"sessionId" json:"sessionId"`
	UserID    string    `bson:"userId" json:"userId"`
	JoinedAt  time.Time `bson:"joinedAt" json:"joinedAt"`
	LastSeen  time.Time `bson:"lastSeen" json:"lastSeen"`
	Cursor    *int      `bson:"cursor,omitempty" json:"cursor,omitempty"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
}

func (p *Participant) clone() *Participant {
	out := *p
	if p.Cursor != nil {
		c := *p.Cursor
		out.Cursor = &c
	}
	return &out
}

// Collaborator is a participant labelled for clients.
type Collaborator struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	LastSeen time.Time `json:"lastSeen"`
	Cursor   *int      `json:"cursor,omitempty"`
	IsActive bool      `json:"isActive"`
}

// JoinResult is returned by Join.
type JoinResult struct {
	Session       *Session       `json:"session"`
	Collaborators []Collaborator `json:"collaborators"`
	Created       bool           `json:"-"`
}
