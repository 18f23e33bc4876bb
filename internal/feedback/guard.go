package feedback

import "github.com/google/uuid"

// requireCaller rejects absent caller identities before any storage work.
func requireCaller(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return invalidf("caller identity is required")
	}
	return nil
}

// requireOwner is the single ownership check applied to every mutating
// operation on votes, ratings and comments. A mismatch is always
// KindForbidden, never a validation error or a silent no-op.
func requireOwner(ownerID, callerID uuid.UUID, record string) error {
	if ownerID != callerID {
		return forbiddenf("caller does not own this %s", record)
	}
	return nil
}
