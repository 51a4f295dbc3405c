// Package locks records advisory range locks. A lock never blocks a write;
// it only tells other editors that someone is working on a range.
package locks

import "time"

// DefaultTTL is how long a lock stays visible after it was taken.
const DefaultTTL = 10 * time.Minute

// Lock covers the half-open range [Start, End) of a document's content.
type Lock struct {
	ID         string    `bson:"id" json:"id"`
	SessionID  string    `bson:"sessionId" json:"sessionId"`
	DocumentID string    `bson:"documentId" json:"documentId"`
	Start      int       `bson:"start" json:"start"`
	End        int       `bson:"end" json:"end"`
	OwnerID    string    `bson:"ownerId" json:"ownerId"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	IsActive   bool      `bson:"isActive" json:"isActive"`
}

// Expired reports whether the lock is older than ttl at now.
func (l *Lock) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(l.CreatedAt) > ttl
}
