package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(reassignCmd)
}

var assignCmd = &cobra.Command{
	Use:   "assign <task-id> <worker>",
	Short: "Assign an open task to a worker",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssign("/assign", args)
	},
}

var reassignCmd = &cobra.Command{
	Use:   "reassign <task-id> <worker>",
	Short: "Hand a task past its deadline to a new worker",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssign("/reassign", args)
	},
}

func runAssign(op string, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var task domain.Task
	req := map[string]string{"assignee": args[1]}
	if err := c.post("/api/tasks/"+args[0]+op, req, &task); err != nil {
		return err
	}

	fmt.Printf("Task %s assigned to %s\n", task.ID, task.Assignee)
	return nil
}
