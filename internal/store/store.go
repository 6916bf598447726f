package store

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// MatchRecorder persists finished match outcomes.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, winnerID, loserID string, winnerScore, loserScore int) (*MatchRecord, error)
}

// FriendshipLookup answers the relationship questions friend-mode
// matchmaking needs. Account and friendship CRUD live elsewhere.
type FriendshipLookup interface {
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	PendingInvite(ctx context.Context, inviterID, inviteeID string) (*FriendInvite, error)
}

type Store interface {
	MatchRecorder
	FriendshipLookup
}

// GormStore backs the collaborator interfaces with a SQL database.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&MatchRecord{}, &Friendship{}, &FriendInvite{}); err != nil {
		return nil, err
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) RecordMatch(ctx context.Context, winnerID, loserID string, winnerScore, loserScore int) (*MatchRecord, error) {
	rec := &MatchRecord{
		WinnerID:    winnerID,
		LoserID:     loserID,
		WinnerScore: winnerScore,
		LoserScore:  loserScore,
	}
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *GormStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&Friendship{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", userA, userB, userB, userA).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *GormStore) PendingInvite(ctx context.Context, inviterID, inviteeID string) (*FriendInvite, error) {
	var inv FriendInvite
	err := s.DB.WithContext(ctx).
		Where("inviter_id = ? AND invitee_id = ? AND status = ?", inviterID, inviteeID, InvitePending).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// MemoryStore is the in-process fallback used when no database is
// configured, and in tests. Friendships are symmetric.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  uint
	records []MatchRecord
	friends map[[2]string]struct{}
	invites []FriendInvite
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{friends: make(map[[2]string]struct{})}
}

func friendKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (s *MemoryStore) AddFriendship(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends[friendKey(a, b)] = struct{}{}
}

func (s *MemoryStore) AddInvite(inviterID, inviteeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.invites = append(s.invites, FriendInvite{ID: s.nextID, InviterID: inviterID, InviteeID: inviteeID, Status: InvitePending})
}

func (s *MemoryStore) RecordMatch(_ context.Context, winnerID, loserID string, winnerScore, loserScore int) (*MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec := MatchRecord{
		ID:          s.nextID,
		WinnerID:    winnerID,
		LoserID:     loserID,
		WinnerScore: winnerScore,
		LoserScore:  loserScore,
	}
	s.records = append(s.records, rec)
	return &rec, nil
}

func (s *MemoryStore) AreFriends(_ context.Context, userA, userB string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.friends[friendKey(userA, userB)]
	return ok, nil
}

func (s *MemoryStore) PendingInvite(_ context.Context, inviterID, inviteeID string) (*FriendInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invites {
		inv := s.invites[i]
		if inv.InviterID == inviterID && inv.InviteeID == inviteeID && inv.Status == InvitePending {
			return &inv, nil
		}
	}
	return nil, nil
}

// Records returns a copy of the recorded matches.
func (s *MemoryStore) Records() []MatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MatchRecord, len(s.records))
	copy(out, s.records)
	return out
}
