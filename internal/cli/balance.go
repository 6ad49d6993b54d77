package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydirt-network/paydirt/internal/domain"
)

func init() {
	depositCmd.Flags().Int64Var(&depositAmount, "amount", 0, "Amount to credit (0 uses the configured grant)")
	rootCmd.AddCommand(balanceCmd, depositCmd, ledgerCmd)
}

var balanceCmd = &cobra.Command{
	Use:   "balance [principal]",
	Short: "Show an account balance (defaults to the acting principal)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	account := c.principal
	if len(args) == 1 {
		account = args[0]
	}

	var resp struct {
		Account string `json:"account"`
		Balance int64  `json:"balance"`
	}
	if err := c.get("/api/accounts/"+account, &resp); err != nil {
		return err
	}

	fmt.Printf("%s: %d\n", resp.Account, resp.Balance)
	return nil
}

var depositAmount int64

var depositCmd = &cobra.Command{
	Use:   "deposit [principal]",
	Short: "Credit an account from the local faucet",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeposit,
}

func runDeposit(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	account := c.principal
	if len(args) == 1 {
		account = args[0]
	}

	var resp struct {
		Account string `json:"account"`
		Balance int64  `json:"balance"`
	}
	req := map[string]int64{"amount": depositAmount}
	if err := c.post("/api/accounts/"+account+"/deposit", req, &resp); err != nil {
		return err
	}

	fmt.Printf("%s: %d\n", resp.Account, resp.Balance)
	return nil
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger [principal]",
	Short: "Show an account's recent ledger entries",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLedger,
}

func runLedger(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	account := c.principal
	if len(args) == 1 {
		account = args[0]
	}

	var resp struct {
		Account string               `json:"account"`
		Entries []domain.LedgerEntry `json:"entries"`
	}
	if err := c.get("/api/accounts/"+account+"/ledger", &resp); err != nil {
		return err
	}

	if len(resp.Entries) == 0 {
		fmt.Printf("%s has no ledger entries.\n", account)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTYPE\tENTRY\tAMOUNT\tBALANCE\tREF")
	for _, e := range resp.Entries {
		ref := e.RefID
		if ref == "" {
			ref = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Type,
			e.EntryType,
			e.Amount,
			e.Balance,
			ref,
		)
	}
	return w.Flush()
}
