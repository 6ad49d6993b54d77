package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task and its escrow balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var resp struct {
		Task   domain.Task `json:"task"`
		Escrow int64       `json:"escrow"`
	}
	if err := c.get("/api/tasks/"+args[0], &resp); err != nil {
		return err
	}

	t := resp.Task
	fmt.Printf("Task:        %s\n", t.ID)
	fmt.Printf("State:       %s\n", t.State)
	fmt.Printf("Description: %s\n", t.Description)
	fmt.Printf("Creator:     %s\n", t.Creator)
	if t.Assigned() {
		fmt.Printf("Assignee:    %s\n", t.Assignee)
	}
	fmt.Printf("Reward:      %d\n", t.Reward)
	fmt.Printf("Escrow:      %d\n", resp.Escrow)
	if !t.Deadline.IsZero() {
		fmt.Printf("Deadline:    %s\n", t.Deadline.Format(time.RFC3339))
	}
	fmt.Printf("Created:     %s\n", t.CreatedAt.Format(time.RFC3339))
	return nil
}
