package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"replybot/internal/responder"
)

func init() {
	cmd := &cobra.Command{
		Use:   "crm",
		Short: "Read a sender's CRM fields",
		Long:  "Read a sender's CRM fields: one value with --field, the full map otherwise.",
		Run:   runCRM,
	}

	cmd.Flags().StringP("identity", "i", "", "Sender identity (required)")
	cmd.Flags().StringP("field", "f", "", "CRM field name (omit for the full map)")
	cmd.MarkFlagRequired("identity")

	RootCmd.AddCommand(cmd)
}

func runCRM(cmd *cobra.Command, args []string) {
	identity, _ := cmd.Flags().GetString("identity")
	field, _ := cmd.Flags().GetString("field")

	s, cfg := openStore()
	defer s.Close()

	svc := responder.New(s, cfg.DefaultReply)
	if field != "" {
		v, ok, err := svc.CRMField(cmd.Context(), identity, field)
		if err != nil {
			exitErr("crm", err)
		}
		if !ok {
			fmt.Println("not found")
			return
		}
		fmt.Println(v)
		return
	}

	m, err := svc.CRMFieldMap(cmd.Context(), identity)
	if err != nil {
		exitErr("crm", err)
	}
	if len(m) == 0 {
		fmt.Println("no crm data")
		return
	}
	printJSON(m)
}
