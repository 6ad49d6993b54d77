package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(ratingsCmd)
}

var rateCmd = &cobra.Command{
	Use:   "rate <task-id> <score>",
	Short: "Rate the other party on a task (0-10)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRate,
}

func runRate(cmd *cobra.Command, args []string) error {
	score, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("score %q: not a number", args[1])
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	var r domain.Rating
	if err := c.post("/api/tasks/"+args[0]+"/ratings", map[string]int{"score": score}, &r); err != nil {
		return err
	}

	fmt.Printf("Rated %s: %d/10\n", r.Ratee, r.Score)
	return nil
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings <principal>",
	Short: "Show a principal's ratings and average score",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatings,
}

func runRatings(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var resp struct {
		Average float64         `json:"average"`
		Ratings []domain.Rating `json:"ratings"`
	}
	if err := c.get("/api/accounts/"+args[0]+"/ratings", &resp); err != nil {
		return err
	}

	if len(resp.Ratings) == 0 {
		fmt.Printf("%s has no ratings yet.\n", args[0])
		return nil
	}

	fmt.Printf("%s: average %.1f over %d rating(s)\n\n", args[0], resp.Average, len(resp.Ratings))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tRATER\tSCORE\tWHEN")
	for _, r := range resp.Ratings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			r.TaskID,
			r.Rater,
			r.Score,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
