package scheduling

import "context"

type OverlapChecker struct {
	store Store
}

func NewOverlapChecker(store Store) *OverlapChecker {
	return &OverlapChecker{store: store}
}

// CheckConflict reports whether owner already has an appointment overlapping
// candidate. The appointment with excludeID, if any, is ignored so that an
// appointment never conflicts with itself.
func (o *OverlapChecker) CheckConflict(ctx context.Context, owner string, candidate TimeRange, excludeID string) (bool, error) {
	found, err := o.store.FindOverlapping(ctx, owner, candidate, excludeID)
	if err != nil {
		return false, &PersistenceError{Op: "find overlapping", Err: err}
	}
	return found != nil, nil
}
