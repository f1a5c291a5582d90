// Package memberkit provides hierarchical, path-scoped membership and
// access control over a document store.
//
// MemberKit maps nested resource paths (organizations, teams, projects,
// chats, ...) onto per-path member records and answers "does user U have
// at-least-level L access to path P?" by walking the path's ancestor
// chain.
//
// # Core Concepts
//
// Path: a slash-separated string of alternating collection and identifier
// segments, e.g. "organizations/org1/teams/team1/chats/chat1". Every
// even-length leading cut of a path ("organizations/org1", then
// "organizations/org1/teams/team1", ...) names an ancestor resource.
//
// Level: the total order read < write < admin. A member holding a level
// satisfies any requirement of equal or lower rank.
//
// Member: a {userId, level, addedBy, addedAt, updatedAt} record stored in
// the "members" collection of a path. Records are keyed by user id, so a
// rewrite overwrites instead of duplicating.
//
// # Access Semantics
//
// Access is the union of grants across the ancestor chain: a grant on
// "organizations/org1" extends to every path beneath it, and a
// lower-level record at a deeper path never revokes what a shallower
// record grants. Checks walk root-first and stop at the first sufficient
// record.
//
// Read failures always deny (fail-closed): HasAccess returns false,
// UserAccessLevel reports no level, GetMembers returns an empty list.
// Write failures propagate to the caller.
//
// # Basic Usage
//
//	// 1. Pick a store: MemoryStore, mongostore.Store or bunstore.Store
//	store := memberkit.NewMemoryStore()
//
//	// 2. Create the manager and evaluator
//	manager := memberkit.NewManager(store)
//	evaluator := memberkit.NewEvaluator(store)
//
//	// 3. Create a chat owned by an admin
//	manager.InitializeChat(ctx, "organizations/org1/chats/chat1", "admin1")
//
//	// 4. Grant access
//	manager.AddMember(ctx, "organizations/org1", "user1", memberkit.LevelRead, "admin1")
//
//	// 5. Check access: the org grant covers the chat beneath it
//	if evaluator.HasAccess(ctx, "organizations/org1/chats/chat1", "user1", memberkit.LevelRead) {
//	    // user1 may read the chat
//	}
//
// # Bulk Grants
//
// GrantOrgAccess copies an organization's roster onto a chat at read
// level in one atomic batch, so either every member is granted or none are:
//
//	manager.GrantOrgAccess(ctx, "organizations/org1", "chats/c1", "admin1")
//
// # Middleware Usage
//
//	mw := memberkit.NewMiddleware(evaluator)
//
//	router.With(mw.RequireLevel(memberkit.LevelAdmin,
//	    memberkit.PathFromParams("organizations", "orgID"))).
//	    Post("/orgs/{orgID}/members", addMemberHandler)
//
// # Audit Log
//
// Membership mutations are logged, best effort, to a dedicated audit
// collection: actor, target user, path, level before and after, request
// metadata (IP, user agent, request ID) when present in the context.
// Audit failures never fail the mutation that produced them.
//
// # Stores
//
// The DocumentStore contract is injected, never constructed by this
// package, so one client can back many evaluators and tests can use
// doubles. MemoryStore ships in-package; the mongostore and bunstore
// subpackages adapt MongoDB and PostgreSQL.
package memberkit
