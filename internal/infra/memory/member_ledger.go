package memory

import (
	"context"
	"sync"

	"battle-quiz-service/internal/domain"
)

// MemberLedger is an in-memory account store.
type MemberLedger struct {
	mu      sync.RWMutex
	members map[int64]domain.Member
}

func NewMemberLedger(members ...domain.Member) *MemberLedger {
	l := &MemberLedger{members: make(map[int64]domain.Member)}
	for _, m := range members {
		l.members[m.MemberID] = m
	}
	return l
}

func (l *MemberLedger) FindByID(_ context.Context, memberID int64) (domain.Member, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	member, ok := l.members[memberID]
	if !ok {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	return member, nil
}

func (l *MemberLedger) CreditPoints(_ context.Context, memberID int64, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	member, ok := l.members[memberID]
	if !ok {
		return domain.ErrMemberNotFound
	}
	member.Point += amount
	l.members[memberID] = member
	return nil
}
