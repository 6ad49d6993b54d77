package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	trainingCreateCmd.Flags().Int64Var(&trainingReward, "reward", 0, "Reward paid to whoever completes the training")
	trainingCreateCmd.Flags().Int64Var(&trainingFunding, "funding", 0, "Funding attached (defaults to the reward)")
	trainingCreateCmd.MarkFlagRequired("reward")

	trainingCmd.AddCommand(trainingCreateCmd, trainingListCmd, trainingCompleteCmd, trainingCertifyCmd)
	rootCmd.AddCommand(trainingCmd)
}

var (
	trainingReward  int64
	trainingFunding int64
)

var trainingCmd = &cobra.Command{
	Use:   "training",
	Short: "Manage funded training sessions",
}

var trainingCreateCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Post a training with its reward in escrow",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrainingCreate,
}

func runTrainingCreate(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	funding := trainingFunding
	if funding == 0 {
		funding = trainingReward
	}

	var tr domain.Training
	req := map[string]interface{}{
		"description": args[0],
		"reward":      trainingReward,
		"funding":     funding,
	}
	if err := c.post("/api/trainings", req, &tr); err != nil {
		return err
	}

	fmt.Printf("Created training %s (reward %d held in escrow)\n", tr.ID, tr.Reward)
	return nil
}

var trainingListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List trainings",
	RunE:    runTrainingList,
}

func runTrainingList(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var resp struct {
		Trainings []domain.Training `json:"trainings"`
	}
	if err := c.get("/api/trainings", &resp); err != nil {
		return err
	}

	if len(resp.Trainings) == 0 {
		fmt.Println("No trainings.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREWARD\tCOMPLETED\tCERTIFIED\tDESCRIPTION")
	for _, tr := range resp.Trainings {
		certified := "-"
		if len(tr.Certified) > 0 {
			names := make([]string, len(tr.Certified))
			for i, p := range tr.Certified {
				names[i] = string(p)
			}
			certified = strings.Join(names, ",")
		}
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\t%s\n",
			tr.ID,
			tr.Reward,
			tr.Completed,
			certified,
			truncate(tr.Description, 40),
		)
	}
	return w.Flush()
}

var trainingCompleteCmd = &cobra.Command{
	Use:   "complete <training-id>",
	Short: "Complete a training and collect its reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrainingComplete,
}

func runTrainingComplete(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var tr domain.Training
	if err := c.post("/api/trainings/"+args[0]+"/complete", nil, &tr); err != nil {
		return err
	}
	fmt.Printf("Training %s completed, reward paid\n", tr.ID)
	return nil
}

var trainingCertifyCmd = &cobra.Command{
	Use:   "certify <training-id> <user>",
	Short: "Certify a user on a training (creator only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrainingCertify,
}

func runTrainingCertify(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var tr domain.Training
	req := map[string]string{"user": args[1]}
	if err := c.post("/api/trainings/"+args[0]+"/certify", req, &tr); err != nil {
		return err
	}
	fmt.Printf("Certified %s on training %s\n", args[1], tr.ID)
	return nil
}
