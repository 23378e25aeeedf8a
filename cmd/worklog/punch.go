package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"worklog/backend/internal/model"
	"worklog/backend/internal/workstate"
)

var checkInCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Start working",
	Args:  cobra.NoArgs,
	RunE: transition("Checked in", func(cmd *cobra.Command, m *workstate.Machine) (model.WorkState, error) {
		return m.CheckIn(commandContext(cmd))
	}),
}

var checkOutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Stop working",
	Args:  cobra.NoArgs,
	RunE: transition("Checked out", func(cmd *cobra.Command, m *workstate.Machine) (model.WorkState, error) {
		return m.CheckOut(commandContext(cmd))
	}),
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Start or end a break",
}

var breakStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a break",
	Args:  cobra.NoArgs,
	RunE: transition("Break started", func(cmd *cobra.Command, m *workstate.Machine) (model.WorkState, error) {
		return m.StartBreak(commandContext(cmd))
	}),
}

var breakEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the running break",
	Args:  cobra.NoArgs,
	RunE: transition("Break ended", func(cmd *cobra.Command, m *workstate.Machine) (model.WorkState, error) {
		return m.EndBreak(commandContext(cmd))
	}),
}

func init() {
	breakCmd.AddCommand(breakStartCmd)
	breakCmd.AddCommand(breakEndCmd)
}

func transition(done string, op func(*cobra.Command, *workstate.Machine) (model.WorkState, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		state, err := op(cmd, a.machine())
		var mismatch *workstate.MismatchError
		if errors.As(err, &mismatch) {
			return fmt.Errorf("cannot %s while %s", mismatch.Op, describeState(mismatch.Got))
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s at %s, now %s\n", done, a.clock.Now().In(a.loc).Format("15:04"), describeState(state))
		return nil
	}
}

func describeState(state model.WorkState) string {
	switch state {
	case model.AtWork:
		return "at work"
	case model.AtBreak:
		return "on a break"
	default:
		return "off work"
	}
}
