package memberkit

// Level is a hierarchical access level. Levels are totally ordered:
// read < write < admin, and a higher level satisfies any requirement a
// lower one does.
type Level string

// The three access levels, lowest to highest.
const (
	LevelRead  Level = "read"
	LevelWrite Level = "write"
	LevelAdmin Level = "admin"
)

// levelRanks orders the levels. Unknown levels rank 0, below every
// valid level.
var levelRanks = map[Level]int{
	LevelRead:  1,
	LevelWrite: 2,
	LevelAdmin: 3,
}

// Rank returns the level's position in the ordering, 0 for unknown levels.
func (l Level) Rank() int {
	return levelRanks[l]
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// Satisfies reports whether holding l meets a requirement of required.
// Unknown levels never satisfy anything and are never satisfied.
func (l Level) Satisfies(required Level) bool {
	if !l.Valid() || !required.Valid() {
		return false
	}
	return l.Rank() >= required.Rank()
}

// String returns the wire representation of the level.
func (l Level) String() string {
	return string(l)
}

// ParseLevel converts a wire string into a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(s)
	if !level.Valid() {
		return "", NewError(ErrInvalidLevel, s)
	}
	return level, nil
}

// MaxLevel returns the higher of two levels.
func MaxLevel(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
