package store

import "time"

// MatchRecord is the persisted outcome of a finished match.
type MatchRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WinnerID    string    `gorm:"index" json:"winnerId"`
	LoserID     string    `gorm:"index" json:"loserId"`
	WinnerScore int       `json:"winnerScore"`
	LoserScore  int       `json:"loserScore"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Friendship is stored once per direction by the account service; the
// lookup here checks either direction.
type Friendship struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	FriendID  string `gorm:"index"`
	CreatedAt time.Time
}

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// FriendInvite is a pending challenge from one user to another, used
// to gate friend-mode matchmaking.
type FriendInvite struct {
	ID        uint         `gorm:"primaryKey"`
	InviterID string       `gorm:"index"`
	InviteeID string       `gorm:"index"`
	Status    InviteStatus `gorm:"default:pending"`
	CreatedAt time.Time
}
