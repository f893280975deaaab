package cli

import (
	"github.com/spf13/cobra"

	"replybot/internal/responder"
)

func init() {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a trigger→response rule for a sender",
		Run:   runTrain,
	}

	cmd.Flags().StringP("identity", "i", "", "Sender identity, e.g. a phone number (required)")
	cmd.Flags().StringP("trigger", "t", "", "Trigger text (required)")
	cmd.Flags().StringP("response", "r", "", "Response text (required)")

	cmd.MarkFlagRequired("identity")
	cmd.MarkFlagRequired("trigger")
	cmd.MarkFlagRequired("response")

	RootCmd.AddCommand(cmd)
}

func runTrain(cmd *cobra.Command, args []string) {
	identity, _ := cmd.Flags().GetString("identity")
	trigger, _ := cmd.Flags().GetString("trigger")
	response, _ := cmd.Flags().GetString("response")

	s, cfg := openStore()
	defer s.Close()

	svc := responder.New(s, cfg.DefaultReply)
	rules, err := svc.Train(cmd.Context(), identity, trigger, response)
	if err != nil {
		exitErr("train", err)
	}
	printJSON(rules)
}
