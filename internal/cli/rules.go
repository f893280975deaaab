package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"replybot/internal/responder"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List a sender's trained rules",
		Run:   runRules,
	}

	cmd.Flags().StringP("identity", "i", "", "Sender identity (required)")
	cmd.MarkFlagRequired("identity")

	RootCmd.AddCommand(cmd)
}

func runRules(cmd *cobra.Command, args []string) {
	identity, _ := cmd.Flags().GetString("identity")

	s, cfg := openStore()
	defer s.Close()

	svc := responder.New(s, cfg.DefaultReply)
	rules, err := svc.Rules(cmd.Context(), identity)
	if err != nil {
		exitErr("rules", err)
	}
	if len(rules) == 0 {
		fmt.Println("no rules")
		return
	}
	printJSON(rules)
}
