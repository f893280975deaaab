package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"replybot/internal/responder"
)

func init() {
	cmd := &cobra.Command{
		Use:   "msg [identity] [text...]",
		Short: "Process one message through the pipeline",
		Long:  "Process one message through the pipeline exactly as the webhook would, printing the reply.",
		Args:  cobra.MinimumNArgs(2),
		Run:   runMsg,
	}

	RootCmd.AddCommand(cmd)
}

func runMsg(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	svc := responder.New(s, cfg.DefaultReply)
	reply, err := svc.HandleMessage(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		exitErr("handle message", err)
	}
	fmt.Println(reply)
}
