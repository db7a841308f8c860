package filestore

import (
	"github.com/BearBump/FleetWatch/internal/models"
)

func (s *Store) loadSubscriptionsLocked() []models.PushSubscription {
	var subs []models.PushSubscription
	if _, err := s.readJSON(s.files.Subscriptions, &subs); err != nil {
		logReadFailure(s.files.Subscriptions, err)
		return []models.PushSubscription{}
	}
	if subs == nil {
		subs = []models.PushSubscription{}
	}
	return subs
}

// ListSubscriptions returns a copy safe to iterate while others mutate the store.
func (s *Store) ListSubscriptions() ([]models.PushSubscription, error) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return s.loadSubscriptionsLocked(), nil
}

// AddSubscription appends sub unless its endpoint is already stored.
func (s *Store) AddSubscription(sub models.PushSubscription) (bool, error) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	subs := s.loadSubscriptionsLocked()
	for _, existing := range subs {
		if existing.Endpoint == sub.Endpoint {
			return false, nil
		}
	}
	subs = append(subs, sub)
	if err := s.writeJSON(s.files.Subscriptions, subs); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveSubscription drops every entry with the endpoint and persists before returning.
func (s *Store) RemoveSubscription(endpoint string) (bool, error) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	subs := s.loadSubscriptionsLocked()
	kept := subs[:0]
	removed := false
	for _, sub := range subs {
		if sub.Endpoint == endpoint {
			removed = true
			continue
		}
		kept = append(kept, sub)
	}
	if !removed {
		return false, nil
	}
	if err := s.writeJSON(s.files.Subscriptions, kept); err != nil {
		return false, err
	}
	return true, nil
}
