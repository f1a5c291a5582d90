package memberkit

import "strings"

const (
	// membersCollection is the sub-collection holding member records
	// under every resource path.
	membersCollection = "members"

	// memberDocPrefix prefixes the per-user member document id, so the
	// id is derived from the user id and writes overwrite in place.
	memberDocPrefix = "member_"
)

// SplitPath breaks a slash-separated path into its non-empty segments.
// Leading, trailing and doubled slashes are tolerated.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// AncestorPrefixes returns every even-length leading cut of path,
// shallowest first: "a/1/b/2" yields ["a/1", "a/1/b/2"]. A trailing odd
// segment is dropped rather than rejected, so a collection path like
// "a/1/b" resolves against "a/1". Paths with fewer than two segments
// yield nothing.
func AncestorPrefixes(path string) []string {
	segments := SplitPath(path)
	if len(segments) < 2 {
		return nil
	}

	prefixes := make([]string, 0, len(segments)/2)
	for i := 2; i <= len(segments); i += 2 {
		prefixes = append(prefixes, strings.Join(segments[:i], "/"))
	}
	return prefixes
}

// ValidPath reports whether path names a resource: at least one
// collection/identifier pair, with no trailing odd segment.
func ValidPath(path string) bool {
	n := len(SplitPath(path))
	return n >= 2 && n%2 == 0
}

// MemberDocID returns the member document id for a user.
func MemberDocID(userID string) string {
	return memberDocPrefix + userID
}

// MembersPath returns the members collection path under a resource.
func MembersPath(path string) string {
	return path + "/" + membersCollection
}

// MemberDocPath returns the full document path of a user's member
// record at a resource.
func MemberDocPath(path, userID string) string {
	return MembersPath(path) + "/" + MemberDocID(userID)
}
