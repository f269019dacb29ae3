// Package collab implements the synchronization core: the per-element merge
// policy, rooms that own a document's authoritative state, and the registry
// that owns the rooms.
package collab

import "github.com/sketchrelay/server/internal/domain"

// Merge combines two element collections into one, resolving per-identifier
// conflicts by recency. The policy is last-writer-wins per element, not a
// CRDT: when neither updatedAt nor version is comparable on both sides the
// incoming element is assumed newer and wins.
//
// The result keeps surviving elements of current in their current order and
// appends newly inserted elements in incoming order. Callers must not depend
// on ordering beyond "one entry per surviving identifier".
func Merge(current, incoming []domain.Element) []domain.Element {
	if len(incoming) == 0 {
		return current
	}
	if len(current) == 0 {
		return incoming
	}

	order := make([]string, 0, len(current)+len(incoming))
	byID := make(map[string]domain.Element, len(current)+len(incoming))

	for _, el := range current {
		if el.ID == "" {
			continue
		}
		if _, seen := byID[el.ID]; !seen {
			order = append(order, el.ID)
		}
		byID[el.ID] = el
	}

	for _, in := range incoming {
		if in.ID == "" {
			// Unidentified elements cannot be merged safely.
			continue
		}

		existing, ok := byID[in.ID]
		if !ok {
			order = append(order, in.ID)
			byID[in.ID] = in
			continue
		}

		if replaces(existing, in) {
			byID[in.ID] = in
		}
	}

	merged := make([]domain.Element, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}

// replaces reports whether incoming should displace existing. Timestamps are
// consulted first, then versions; with neither comparable the incoming side
// is assumed newer.
func replaces(existing, incoming domain.Element) bool {
	if existing.UpdatedAt != nil && incoming.UpdatedAt != nil {
		return *incoming.UpdatedAt > *existing.UpdatedAt
	}
	if existing.Version != nil && incoming.Version != nil {
		return *incoming.Version > *existing.Version
	}
	return true
}
