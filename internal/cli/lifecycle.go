package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	resolveCmd.Flags().BoolVar(&resolveInFavor, "in-favor", false, "Resolve in the worker's favor (pay the reward)")
	rootCmd.AddCommand(completeCmd, verifyCmd, releaseCmd, disputeCmd, resolveCmd, cancelCmd, refundCmd)
}

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Submit a task's work (assignee only)",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("/complete", "submitted"),
}

var verifyCmd = &cobra.Command{
	Use:   "verify <task-id>",
	Short: "Mark submitted work as verified (creator only)",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("/verify", "verified"),
}

var releaseCmd = &cobra.Command{
	Use:   "release <task-id>",
	Short: "Pay the escrowed reward to the worker (creator only)",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("/release", "released"),
}

var disputeCmd = &cobra.Command{
	Use:   "dispute <task-id>",
	Short: "Open a dispute on an assigned task (creator only)",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("/dispute", "disputed"),
}

var refundCmd = &cobra.Command{
	Use:   "refund <task-id>",
	Short: "Reclaim escrow before work is submitted (creator only)",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("/refund", "refunded"),
}

// transitionRunner builds a RunE for a body-less task transition.
func transitionRunner(op, past string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		var task domain.Task
		if err := c.post("/api/tasks/"+args[0]+op, nil, &task); err != nil {
			return err
		}
		fmt.Printf("Task %s %s (state %s)\n", task.ID, past, task.State)
		return nil
	}
}

var resolveInFavor bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <task-id>",
	Short: "Settle a dispute and drain the escrow one way",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var task domain.Task
	req := map[string]bool{"resolved": resolveInFavor}
	if err := c.post("/api/tasks/"+args[0]+"/resolve", req, &task); err != nil {
		return err
	}

	if resolveInFavor {
		fmt.Printf("Dispute on %s resolved: reward paid to worker\n", task.ID)
	} else {
		fmt.Printf("Dispute on %s resolved: escrow refunded to creator\n", task.ID)
	}
	return nil
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel an unassigned task and reclaim its escrow",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	if err := c.post("/api/tasks/"+args[0]+"/cancel", nil, nil); err != nil {
		return err
	}
	fmt.Printf("Task %s cancelled, escrow refunded\n", args[0])
	return nil
}
