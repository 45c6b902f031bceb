package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/LevdanskyVitaliy/todo-sync/internal/reconcile"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// session is one command's controller, loaded from the store
type session struct {
	ctrl *reconcile.Controller
}

func openSession(ctx context.Context, mode reconcile.Mode) (*session, error) {
	ctrl := reconcile.New(newStore(cfg), reconcile.Options{
		Timeout: cfg.Remote.Timeout,
		Search:  cfg.Search,
	})

	var req *reconcile.Request
	var err error
	if mode == reconcile.ModeOpenOnly {
		req, err = ctrl.SetMode(ctx, mode)
	} else {
		req, err = ctrl.Load(ctx)
	}
	if err == nil {
		err = req.Wait(ctx)
	}
	if err != nil {
		ctrl.Close()
		return nil, fmt.Errorf("load tasks from %s: %w", cfg.Remote.BaseURL, err)
	}

	ctrl.DismissNotices()
	return &session{ctrl: ctrl}, nil
}

func (s *session) Close() {
	s.ctrl.Close()
}

// settle waits for req and reports notices left by its follow-up calls
func (s *session) settle(ctx context.Context, w io.Writer, req *reconcile.Request) error {
	err := req.Wait(ctx)
	for _, n := range s.ctrl.DismissNotices() {
		if err != nil && n.RequestID == req.ID && errors.Is(err, n.Err) {
			continue
		}
		fmt.Fprintf(w, "warning: %s\n", n)
	}
	return err
}

// resolve maps an id or unique id prefix to a task id
func (s *session) resolve(arg string) (task.Task, error) {
	var matches []task.Task
	for _, t := range s.ctrl.View().All {
		if t.ID == arg {
			return t, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %s", reconcile.ErrNotFound, arg)
	case 1:
		return matches[0], nil
	}
	return task.Task{}, fmt.Errorf("ambiguous id %q matches %d tasks", arg, len(matches))
}
