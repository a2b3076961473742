package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskctl/internal/board"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

// TaskRef represents a parsed task reference: a 1-based position in list
// order, or a raw task id.
type TaskRef struct {
	Num int    // 1-based position, 0 when ID is set
	ID  string // raw task id
}

// idPrefix forces a reference to be read as an id, for numeric ids.
const idPrefix = "id:"

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
//  1. No args, or an empty first arg → ErrTaskRefRequired
//  2. All digits → position (must be >= 1)
//  3. "id:<id>" → id
//  4. Anything else → id
//  5. More than one arg → error: unexpected argument
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %d", num)
		}
		return TaskRef{Num: num}, nil
	}

	if id, ok := strings.CutPrefix(arg, idPrefix); ok {
		if id == "" {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{ID: id}, nil
	}
	return TaskRef{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// resolveTaskRef loads the board under filter and finds the referenced task.
// An id that is not listed resolves to a bare Task with only ID set unless
// mustExist is true, leaving the server to decide.
func resolveTaskRef(ctx context.Context, b *board.Controller, ref TaskRef, filter service.Filter, mustExist bool) (service.Task, error) {
	if ref.ID != "" {
		filter = service.FilterAll
	}
	if err := b.SetFilter(ctx, filter); err != nil {
		return service.Task{}, err
	}

	if ref.ID != "" {
		if task, ok := b.Lookup(ref.ID); ok {
			return task, nil
		}
		if mustExist {
			return service.Task{}, &service.ValidationError{Message: "task not found: " + ref.ID}
		}
		return service.Task{ID: ref.ID}, nil
	}

	tasks := b.Snapshot().Tasks
	if ref.Num > len(tasks) {
		return service.Task{}, &service.ValidationError{Message: fmt.Sprintf("task number out of range: %d", ref.Num)}
	}
	return tasks[ref.Num-1], nil
}

// parseRefArgs parses the task reference and filter shared by done, rm and edit.
func parseRefArgs(env *Env, args []string, filterName string) (TaskRef, service.Filter, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return TaskRef{}, "", env.failf("%v", err)
	}
	filter, err := service.ParseFilter(filterName)
	if err != nil {
		return TaskRef{}, "", env.failf("%v", err)
	}
	return ref, filter, exitcode.Success
}
