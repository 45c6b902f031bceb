package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/LevdanskyVitaliy/todo-sync/internal/reconcile"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

// promptConfirmer asks on out and reads a y/N answer from in.
// Anything but y or yes declines, and so does end of input.
func promptConfirmer(in io.Reader, out io.Writer) reconcile.Confirmer {
	return reconcile.ConfirmFunc(func(ctx context.Context, t task.Task) (bool, error) {
		fmt.Fprintf(out, "Delete %q? [y/N] ", t.Name)

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		if err != nil && strings.TrimSpace(line) == "" {
			fmt.Fprintln(out)
			return false, reconcile.ErrConfirmationDeclined
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func autoConfirm(context.Context, task.Task) (bool, error) {
	return true, nil
}
