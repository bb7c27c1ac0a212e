package shared

import "fmt"

// Transitions is a closed table of allowed source to target moves.
type Transitions[S ~string] map[S][]S

// Allows reports whether from -> to is listed.
func (t Transitions[S]) Allows(from, to S) bool {
	for _, target := range t[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Check returns ErrInvalidStatus wrapped with the attempted move.
func (t Transitions[S]) Check(from, to S) error {
	if t.Allows(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, from, to)
}

// Terminal reports whether no move leaves s.
func (t Transitions[S]) Terminal(s S) bool {
	return len(t[s]) == 0
}
