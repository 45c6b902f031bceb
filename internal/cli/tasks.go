package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LevdanskyVitaliy/todo-sync/internal/reconcile"
)

func listCmd() *cobra.Command {
	var openOnly bool
	var query string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, open first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := reconcile.ModeAll
			if openOnly {
				mode = reconcile.ModeOpenOnly
			}

			s, err := openSession(cmd.Context(), mode)
			if err != nil {
				return err
			}
			defer s.Close()

			s.ctrl.SetQuery(query)
			renderList(cmd.OutOrStdout(), s.ctrl.View())
			return nil
		},
	}

	cmd.Flags().BoolVar(&openOnly, "open", false, "Only fetch tasks that are not done")
	cmd.Flags().StringVarP(&query, "search", "s", "", "Fuzzy search task names")

	return cmd
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME DESCRIPTION",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), reconcile.ModeAll)
			if err != nil {
				return err
			}
			defer s.Close()

			req, err := s.ctrl.Create(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := s.settle(cmd.Context(), cmd.ErrOrStderr(), req); err != nil {
				return fmt.Errorf("create task: %w", err)
			}

			created := req.Task()
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", shortID(created.ID), created.Name)
			renderCount(cmd.OutOrStdout(), s.ctrl.View().OpenCount)
			return nil
		},
	}
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), reconcile.ModeAll)
			if err != nil {
				return err
			}
			defer s.Close()

			t, err := s.resolve(args[0])
			if err != nil {
				return err
			}

			req, err := s.ctrl.Rename(cmd.Context(), t.ID, args[1])
			if err != nil {
				return err
			}
			if err := s.settle(cmd.Context(), cmd.ErrOrStderr(), req); err != nil {
				return fmt.Errorf("rename %s: %w", shortID(t.ID), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s %q -> %q\n", shortID(t.ID), t.Name, req.Task().Name)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle ID",
		Aliases: []string{"done"},
		Short:   "Mark a task done, or open again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), reconcile.ModeAll)
			if err != nil {
				return err
			}
			defer s.Close()

			t, err := s.resolve(args[0])
			if err != nil {
				return err
			}

			req, err := s.ctrl.Toggle(cmd.Context(), t.ID)
			if err != nil {
				return err
			}
			if err := s.settle(cmd.Context(), cmd.ErrOrStderr(), req); err != nil {
				return fmt.Errorf("toggle %s: %w", shortID(t.ID), err)
			}

			state := "open"
			if req.Task().Done {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s as %s\n", shortID(t.ID), t.Name, state)
			renderCount(cmd.OutOrStdout(), s.ctrl.View().OpenCount)
			return nil
		},
	}
}

func rmCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), reconcile.ModeAll)
			if err != nil {
				return err
			}
			defer s.Close()

			t, err := s.resolve(args[0])
			if err != nil {
				return err
			}

			var confirm reconcile.Confirmer = promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = reconcile.ConfirmFunc(autoConfirm)
			}

			req, err := s.ctrl.Delete(cmd.Context(), t.ID, confirm)
			if err != nil {
				return err
			}
			if err := s.settle(cmd.Context(), cmd.ErrOrStderr(), req); err != nil {
				return fmt.Errorf("delete %s: %w", shortID(t.ID), err)
			}

			if req.Outcome() == reconcile.OutcomeDeclined {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", shortID(t.ID), t.Name)
			renderCount(cmd.OutOrStdout(), s.ctrl.View().OpenCount)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")

	return cmd
}
