package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"tasksync/internal/service"
	"tasksync/internal/store"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Letter    rune // 0 if no letter, 'a'-'z' otherwise
	TaskNum   int  // 1-based task number
	HasLetter bool // true if a list letter was provided
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args. Accepted forms:
//
//	3      task 3 of the default list
//	a3     task 3 of the list lettered a
//	a 3    same, separated
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	first := args[0]
	if isAllDigits(first) {
		num, err := strconv.Atoi(first)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		return TaskRef{TaskNum: num}, nil
	}

	if len(first) > 0 && isLetter(rune(first[0])) {
		letter := rune(first[0])

		if len(first) > 1 && isAllDigits(first[1:]) {
			num, err := strconv.Atoi(first[1:])
			if err != nil {
				return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
			}
			return TaskRef{Letter: letter, TaskNum: num, HasLetter: true}, nil
		}

		if len(first) == 1 {
			if len(args) < 2 {
				return TaskRef{}, ErrTaskRefRequired
			}
			if isAllDigits(args[1]) {
				num, err := strconv.Atoi(args[1])
				if err != nil {
					return TaskRef{}, fmt.Errorf("invalid task reference: %s", args[1])
				}
				return TaskRef{Letter: letter, TaskNum: num, HasLetter: true}, nil
			}
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isLetter returns true if r is a lowercase letter a-z.
func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// section is one block of the listing output.
type section struct {
	Letter rune // 0 for the default list
	List   service.TaskList
	Tasks  []service.Task
}

// ErrTooManyLists is returned when more lists have tasks than there are letters.
var ErrTooManyLists = errors.New("too many lists (max 26)")

// sections groups an account's tasks the way the listing prints them: the
// default list first without a letter, then every other list that has
// matching tasks, lettered a-z in load order.
func sections(tasks *store.Tasks, accountID string, keep func(service.Task) bool) ([]section, error) {
	var result []section
	letter := 'a'
	for _, list := range tasks.ListsByAccount(accountID) {
		matched := filterTasks(tasks.ByList(list.ID), keep)
		if list.IsDefault {
			result = append([]section{{List: list, Tasks: matched}}, result...)
			continue
		}
		if len(matched) == 0 {
			continue
		}
		if letter > 'z' {
			return nil, ErrTooManyLists
		}
		result = append(result, section{Letter: letter, List: list, Tasks: matched})
		letter++
	}
	return result, nil
}

func filterTasks(tasks []service.Task, keep func(service.Task) bool) []service.Task {
	var out []service.Task
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
