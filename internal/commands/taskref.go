package commands

import (
	"errors"
	"fmt"
	"strconv"
)

// TaskRef is a task reference typed on the command line.
type TaskRef struct {
	Letter    rune // list letter, 0 when absent
	TaskNum   int  // 1-based position in display order
	HasLetter bool
}

// ErrTaskRefRequired is returned when args hold no reference.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef reads a reference from the front of args. The forms are
// "3", "b3" and "b 3".
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	head := args[0]
	invalid := fmt.Errorf("invalid task reference: %s", head)

	if n, ok := number(head); ok {
		return TaskRef{TaskNum: n}, nil
	}
	if head == "" || !isLetter(rune(head[0])) {
		return TaskRef{}, invalid
	}

	letter, rest := rune(head[0]), head[1:]
	if rest != "" {
		n, ok := number(rest)
		if !ok {
			return TaskRef{}, invalid
		}
		return TaskRef{Letter: letter, TaskNum: n, HasLetter: true}, nil
	}

	// Letter on its own: the number is the next argument.
	if len(args) < 2 {
		return TaskRef{}, ErrTaskRefRequired
	}
	n, ok := number(args[1])
	if !ok {
		return TaskRef{}, invalid
	}
	return TaskRef{Letter: letter, TaskNum: n, HasLetter: true}, nil
}

// Consumed returns how many leading args the reference was read from.
func (r TaskRef) Consumed(args []string) int {
	if r.HasLetter && len(args) > 1 && len(args[0]) == 1 {
		return 2
	}
	return 1
}

// number parses s when it is a non-empty run of ASCII digits.
func number(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// Letter returns the letter of the list at index i, or 0 past z.
func Letter(i int) rune {
	if i < 0 || i >= 26 {
		return 0
	}
	return 'a' + rune(i)
}
