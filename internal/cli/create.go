package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	createCmd.Flags().Int64Var(&createReward, "reward", 0, "Reward paid to the worker on release")
	createCmd.Flags().Int64Var(&createFunding, "funding", 0, "Funding attached (defaults to the reward)")
	createCmd.Flags().StringVar(&createDeadline, "deadline", "", "Completion deadline, RFC 3339 or duration like 72h")
	createCmd.MarkFlagRequired("reward")
	rootCmd.AddCommand(createCmd)
}

var (
	createReward   int64
	createFunding  int64
	createDeadline string
)

var createCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Post a task with its reward locked in escrow",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	funding := createFunding
	if funding == 0 {
		funding = createReward
	}

	req := map[string]interface{}{
		"description": args[0],
		"reward":      createReward,
		"funding":     funding,
	}
	if createDeadline != "" {
		deadline, err := parseDeadline(createDeadline)
		if err != nil {
			return err
		}
		req["deadline"] = deadline.Format(time.RFC3339)
	}

	var task domain.Task
	if err := c.post("/api/tasks", req, &task); err != nil {
		return err
	}

	fmt.Printf("Created task %s (reward %d held in escrow)\n", task.ID, task.Reward)
	return nil
}

// parseDeadline accepts an absolute RFC 3339 time or a relative duration.
func parseDeadline(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline %q: want RFC 3339 time or duration", s)
	}
	return time.Now().Add(d), nil
}
