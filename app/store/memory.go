package store

import (
	"context"
	"sync"
	"time"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

// Memory is an in-process Store for tests and running without Postgres.
// WithinTx holds the store lock for the whole callback and commits by
// swapping in the callback's copy of the data.
type Memory struct {
	mu   sync.Mutex
	data *memoryData
	now  func() time.Time
}

type memoryData struct {
	users     map[string]models.User
	subs      map[string]models.Subscription // by external subscription id
	nextSubID int64
	content   []models.GeneratedContent // insertion order
	events    map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		data: &memoryData{
			users:  make(map[string]models.User),
			subs:   make(map[string]models.Subscription),
			events: make(map[string]struct{}),
		},
		now: time.Now,
	}
}

func (d *memoryData) clone() *memoryData {
	out := &memoryData{
		users:     make(map[string]models.User, len(d.users)),
		subs:      make(map[string]models.Subscription, len(d.subs)),
		nextSubID: d.nextSubID,
		content:   append([]models.GeneratedContent(nil), d.content...),
		events:    make(map[string]struct{}, len(d.events)),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.subs {
		out.subs[k] = v
	}
	for k := range d.events {
		out.events[k] = struct{}{}
	}
	return out
}

func (m *Memory) WithinTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := &Memory{data: m.data.clone(), now: m.now}
	if err := fn(view); err != nil {
		return err
	}
	m.data = view.data
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.data.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (m *Memory) UpsertUser(_ context.Context, u models.User, initialPoints int) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.data.users[u.ID]; ok {
		existing.Email = u.Email
		existing.Name = u.Name
		m.data.users[u.ID] = existing
		return existing, false, nil
	}

	u.Points = initialPoints
	u.StripeCustomerID = ""
	u.CreatedAt = m.now()
	m.data.users[u.ID] = u
	return u, true, nil
}

func (m *Memory) SetStripeCustomer(_ context.Context, userID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.data.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.StripeCustomerID = customerID
	m.data.users[userID] = u
	return nil
}

func (m *Memory) AddPoints(_ context.Context, userID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.data.users[userID]
	if !ok {
		return 0, models.ErrNotFound
	}
	u.Points += delta
	m.data.users[userID] = u
	return u.Points, nil
}

func (m *Memory) SpendPoints(_ context.Context, userID string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.data.users[userID]
	if !ok {
		return 0, models.ErrNotFound
	}
	if u.Points < amount {
		return 0, models.ErrInsufficientPoints
	}
	u.Points -= amount
	m.data.users[userID] = u
	return u.Points, nil
}

func (m *Memory) GetSubscriptionByUser(_ context.Context, userID string) (models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		latest models.Subscription
		found  bool
	)
	for _, s := range m.data.subs {
		if s.UserID != userID {
			continue
		}
		if !found || s.UpdatedAt.After(latest.UpdatedAt) || (s.UpdatedAt.Equal(latest.UpdatedAt) && s.ID > latest.ID) {
			latest = s
			found = true
		}
	}
	if !found {
		return models.Subscription{}, models.ErrNotFound
	}
	return latest, nil
}

func (m *Memory) GetSubscriptionByExternalID(_ context.Context, externalID string) (models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.data.subs[externalID]
	if !ok {
		return models.Subscription{}, models.ErrNotFound
	}
	return s, nil
}

func (m *Memory) UpsertSubscription(_ context.Context, s models.Subscription) (models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.users[s.UserID]; !ok {
		return models.Subscription{}, models.ErrNotFound
	}

	now := m.now()
	if existing, ok := m.data.subs[s.ExternalSubscriptionID]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
		if s.ExternalCustomerID == "" {
			s.ExternalCustomerID = existing.ExternalCustomerID
		}
	} else {
		m.data.nextSubID++
		s.ID = m.data.nextSubID
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.data.subs[s.ExternalSubscriptionID] = s
	return s, nil
}

func (m *Memory) SaveContent(_ context.Context, c models.GeneratedContent) (models.GeneratedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data.users[c.UserID]; !ok {
		return models.GeneratedContent{}, models.ErrNotFound
	}
	if c.RequestID != "" {
		if existing, ok := m.findByRequestLocked(c.UserID, c.RequestID); ok {
			return existing, models.ErrDuplicate
		}
	}
	c.CreatedAt = m.now()
	m.data.content = append(m.data.content, c)
	return c, nil
}

func (m *Memory) FindContentByRequest(_ context.Context, userID, requestID string) (models.GeneratedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if requestID == "" {
		return models.GeneratedContent{}, models.ErrNotFound
	}
	c, ok := m.findByRequestLocked(userID, requestID)
	if !ok {
		return models.GeneratedContent{}, models.ErrNotFound
	}
	return c, nil
}

func (m *Memory) findByRequestLocked(userID, requestID string) (models.GeneratedContent, bool) {
	for _, c := range m.data.content {
		if c.UserID == userID && c.RequestID == requestID {
			return c, true
		}
	}
	return models.GeneratedContent{}, false
}

func (m *Memory) ListContent(_ context.Context, userID string, limit int) ([]models.GeneratedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.GeneratedContent{}
	for i := len(m.data.content) - 1; i >= 0 && len(out) < limit; i-- {
		if m.data.content[i].UserID == userID {
			out = append(out, m.data.content[i])
		}
	}
	return out, nil
}

func (m *Memory) MarkEventProcessed(_ context.Context, provider, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := provider + "/" + eventID
	if _, ok := m.data.events[key]; ok {
		return models.ErrDuplicate
	}
	m.data.events[key] = struct{}{}
	return nil
}
