package memberkit

import "context"

// Checker provides access checks for a specific user.
// It is typically created by middleware and stored in context for use in
// handlers.
type Checker struct {
	userID    string
	evaluator *Evaluator
}

// NewChecker creates a Checker binding a user to an evaluator.
func NewChecker(userID string, evaluator *Evaluator) *Checker {
	return &Checker{
		userID:    userID,
		evaluator: evaluator,
	}
}

// UserID returns the user ID this checker is for.
func (c *Checker) UserID() string {
	return c.userID
}

// Can reports whether the user holds at least the required level on path.
//
// Example:
//
//	if checker.Can(ctx, memberkit.LevelWrite, chatPath) {
//	    // user may post to the chat
//	}
func (c *Checker) Can(ctx context.Context, required Level, path string) bool {
	return c.evaluator.HasAccess(ctx, path, c.userID, required)
}

// CanAny reports whether the user satisfies the requirement on any of
// the given paths.
func (c *Checker) CanAny(ctx context.Context, required Level, paths ...string) bool {
	for _, path := range paths {
		if c.Can(ctx, required, path) {
			return true
		}
	}
	return false
}

// CanAll reports whether the user satisfies the requirement on all of
// the given paths.
func (c *Checker) CanAll(ctx context.Context, required Level, paths ...string) bool {
	for _, path := range paths {
		if !c.Can(ctx, required, path) {
			return false
		}
	}
	return true
}

// LevelFor returns the user's effective level on path, and false when
// the user has no grant on the path or any ancestor.
func (c *Checker) LevelFor(ctx context.Context, path string) (Level, bool) {
	return c.evaluator.UserAccessLevel(ctx, path, c.userID)
}

// IsAdmin reports whether the user holds LevelAdmin on path.
func (c *Checker) IsAdmin(ctx context.Context, path string) bool {
	return c.Can(ctx, LevelAdmin, path)
}
