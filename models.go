package memberkit

import (
	"time"
)

// Member represents a user's access grant on a resource path.
// At most one current member record exists per (path, userID) pair;
// the record is keyed by userID, so a rewrite overwrites instead of
// duplicating.
type Member struct {
	UserID    string
	Level     Level
	AddedBy   string
	AddedAt   time.Time
	UpdatedAt time.Time // zero until the record is updated in place
}

// toData converts a Member into the document layout stored under a
// members collection: {userId, level, addedBy?, addedAt, updatedAt?}.
func (m Member) toData() map[string]any {
	data := map[string]any{
		"userId":  m.UserID,
		"level":   m.Level.String(),
		"addedAt": m.AddedAt,
	}
	if m.AddedBy != "" {
		data["addedBy"] = m.AddedBy
	}
	if !m.UpdatedAt.IsZero() {
		data["updatedAt"] = m.UpdatedAt
	}
	return data
}

// memberFromData decodes and validates a member document.
// Records without a userId or with an unknown level are rejected.
func memberFromData(data map[string]any) (Member, error) {
	userID, _ := data["userId"].(string)
	if userID == "" {
		return Member{}, NewError(ErrInvalidMember, "missing userId")
	}

	levelStr, _ := data["level"].(string)
	level, err := ParseLevel(levelStr)
	if err != nil {
		return Member{}, err
	}

	m := Member{
		UserID: userID,
		Level:  level,
	}
	if by, ok := data["addedBy"].(string); ok {
		m.AddedBy = by
	}
	if at, ok := parseTime(data["addedAt"]); ok {
		m.AddedAt = at
	}
	if at, ok := parseTime(data["updatedAt"]); ok {
		m.UpdatedAt = at
	}
	return m, nil
}

// Resource represents the document stored at a resource path itself.
type Resource struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	IsPublic  bool
}

// toData converts a Resource into its document layout:
// {createdAt, updatedAt, createdBy, isPublic?}.
func (r Resource) toData() map[string]any {
	data := map[string]any{
		"createdAt": r.CreatedAt,
		"updatedAt": r.UpdatedAt,
		"createdBy": r.CreatedBy,
	}
	if r.IsPublic {
		data["isPublic"] = true
	}
	return data
}

// resourceFromData decodes a resource document.
func resourceFromData(data map[string]any) Resource {
	var r Resource
	if by, ok := data["createdBy"].(string); ok {
		r.CreatedBy = by
	}
	if at, ok := parseTime(data["createdAt"]); ok {
		r.CreatedAt = at
	}
	if at, ok := parseTime(data["updatedAt"]); ok {
		r.UpdatedAt = at
	}
	if pub, ok := data["isPublic"].(bool); ok {
		r.IsPublic = pub
	}
	return r
}

// parseTime accepts the timestamp encodings stores hand back: native
// time.Time (memory, mongo) or RFC 3339 strings (JSONB round-trips).
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
