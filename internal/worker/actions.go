package worker

import "github.com/ReNothingg/giftsniper/pkg/types"

// OfferKey builds the action key for a per-listing offer (§4.7).
func OfferKey(nftID, ruleName string) string {
	return "offer:" + nftID + ":" + ruleName
}

// OrderKey builds the action key for a collection-wide order (§4.7).
func OrderKey(ruleName, selectorFingerprint string) string {
	return "order:" + ruleName + ":" + selectorFingerprint
}

// ListingKey builds the action key for a tracked sell listing (§4.7).
func ListingKey(nftID, ruleName string) string {
	return "listing:" + nftID + ":" + ruleName
}

// actionTable tracks every live ManagedAction for one worker, keyed by its
// action key. It has a single owner (the worker goroutine) and needs no
// locking, per the concurrency model.
type actionTable struct {
	byKey map[string]types.ManagedAction
}

func newActionTable() *actionTable {
	return &actionTable{byKey: make(map[string]types.ManagedAction)}
}

func (t *actionTable) Get(key string) (types.ManagedAction, bool) {
	a, ok := t.byKey[key]
	return a, ok
}

// Put creates or overwrites the action under its own key. It does not skip
// an existing key itself: callers check Get first when an existing action
// must not be disturbed.
func (t *actionTable) Put(a types.ManagedAction) {
	t.byKey[a.Key] = a
}

func (t *actionTable) Delete(key string) {
	delete(t.byKey, key)
}

// ByKind returns a copy of all actions of a given kind, for iteration
// during outbid sync and expiry sweeps.
func (t *actionTable) ByKind(kind types.ActionKind) []types.ManagedAction {
	out := make([]types.ManagedAction, 0, len(t.byKey))
	for _, a := range t.byKey {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Expired returns all actions whose ExpiresTS is at or before nowUnix.
func (t *actionTable) Expired(nowUnix int64) []types.ManagedAction {
	out := make([]types.ManagedAction, 0)
	for _, a := range t.byKey {
		if a.ExpiresTS != nil && *a.ExpiresTS <= nowUnix {
			out = append(out, a)
		}
	}
	return out
}

func (t *actionTable) Len() int { return len(t.byKey) }
