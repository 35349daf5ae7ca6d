package commands

import (
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// taskFromArgs parses a task reference from args and resolves it against
// the account's listing. With listName set, the number counts within that
// list instead.
func taskFromArgs(sess *session.Session, accountID, listName string, args []string, keep func(service.Task) bool) (service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, service.Validation("%v", err)
	}
	if listName != "" && ref.HasLetter {
		return service.Task{}, service.Validation("cannot use both --list and list letter")
	}
	if ref.TaskNum < 1 {
		return service.Task{}, service.Validation("task number out of range: %d", ref.TaskNum)
	}

	var tasks []service.Task
	if listName != "" {
		list, err := resolveList(sess, accountID, listName)
		if err != nil {
			return service.Task{}, err
		}
		tasks = filterTasks(sess.Tasks.ByList(list.ID), keep)
	} else {
		secs, err := sections(sess.Tasks, accountID, keep)
		if err != nil {
			return service.Task{}, service.Validation("%v", err)
		}
		found := false
		for _, s := range secs {
			if s.Letter == ref.Letter {
				tasks = s.Tasks
				found = true
				break
			}
		}
		if !found {
			if ref.HasLetter {
				return service.Task{}, service.Validation("list letter not found: %c", ref.Letter)
			}
			return service.Task{}, service.Validation("no default list")
		}
	}

	if ref.TaskNum > len(tasks) {
		return service.Task{}, service.Validation("task number out of range: %d", ref.TaskNum)
	}
	return tasks[ref.TaskNum-1], nil
}
