package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	tasksCmd.Flags().BoolVar(&tasksAvailable, "available", false, "Only show claimable tasks with live escrow")
	rootCmd.AddCommand(tasksCmd)
}

var tasksAvailable bool

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"ls"},
	Short:   "List tasks on the marketplace",
	RunE:    runTasks,
}

func runTasks(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	path := "/api/tasks"
	if tasksAvailable {
		path += "?available=true"
	}

	var resp struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if err := c.get(path, &resp); err != nil {
		return err
	}

	if len(resp.Tasks) == 0 {
		fmt.Println("No tasks. Run 'paydirt create' to post one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tREWARD\tCREATOR\tASSIGNEE\tDESCRIPTION")
	for _, t := range resp.Tasks {
		assignee := string(t.Assignee)
		if assignee == "" {
			assignee = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			t.ID,
			t.State,
			t.Reward,
			t.Creator,
			assignee,
			truncate(t.Description, 40),
		)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
