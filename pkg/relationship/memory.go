package relationship

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrymomot/streamhub/pkg/stream"
)

type set map[string]struct{}

func (s set) add(id string) { s[id] = struct{}{} }

func (s set) has(id string) bool {
	_, ok := s[id]
	return ok
}

type pairs map[string]set

func (p pairs) add(owner, target string) {
	if p[owner] == nil {
		p[owner] = make(set)
	}
	p[owner].add(target)
}

func (p pairs) remove(owner, target string) {
	delete(p[owner], target)
	if len(p[owner]) == 0 {
		delete(p, owner)
	}
}

func (p pairs) has(owner, target string) bool {
	return p[owner].has(target)
}

type list struct {
	owner   string
	members set
}

// Memory is an in-process RelationshipSource. It serves tests and single-node
// development setups without a database.
type Memory struct {
	mu      sync.RWMutex
	follows pairs
	blocks  pairs
	mutes   pairs
	lists   map[string]*list
}

var _ stream.RelationshipSource = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		follows: make(pairs),
		blocks:  make(pairs),
		mutes:   make(pairs),
		lists:   make(map[string]*list),
	}
}

func (m *Memory) Follow(accountID, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.follows.add(accountID, targetID)
}

func (m *Memory) Unfollow(accountID, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.follows.remove(accountID, targetID)
}

func (m *Memory) Block(accountID, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks.add(accountID, targetID)
}

func (m *Memory) Unblock(accountID, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks.remove(accountID, targetID)
}

func (m *Memory) Mute(accountID, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutes.add(accountID, targetID)
}

func (m *Memory) Unmute(accountID, targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutes.remove(accountID, targetID)
}

// CreateList registers a list owned by ownerID.
func (m *Memory) CreateList(listID, ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[listID] = &list{owner: ownerID, members: make(set)}
}

// AddToList adds accountID to an existing list. Unknown lists are ignored.
func (m *Memory) AddToList(listID, accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lists[listID]; ok {
		l.members.add(accountID)
	}
}

func (m *Memory) RemoveFromList(listID, accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lists[listID]; ok {
		delete(l.members, accountID)
	}
}

func (m *Memory) Relationship(_ context.Context, ownerID, targetID string) (stream.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stream.Relationship{
		Following: m.follows.has(ownerID, targetID),
		Blocking:  m.blocks.has(ownerID, targetID),
		BlockedBy: m.blocks.has(targetID, ownerID),
		Muting:    m.mutes.has(ownerID, targetID),
	}, nil
}

func (m *Memory) Followers(_ context.Context, accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for follower, targets := range m.follows {
		if targets.has(accountID) {
			out = append(out, follower)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *Memory) ListsContaining(_ context.Context, accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for id, l := range m.lists {
		if l.members.has(accountID) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *Memory) ListOwner(_ context.Context, listID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.lists[listID]
	if !ok {
		return "", ErrListNotFound
	}
	return l.owner, nil
}
