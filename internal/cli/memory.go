package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"replybot/internal/responder"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Read a sender's memory entries",
		Long:  "Read a sender's memory entries: one value with --key, the full map otherwise.",
		Run:   runMemory,
	}

	cmd.Flags().StringP("identity", "i", "", "Sender identity (required)")
	cmd.Flags().StringP("key", "k", "", "Memory key (omit for the full map)")
	cmd.MarkFlagRequired("identity")

	RootCmd.AddCommand(cmd)
}

func runMemory(cmd *cobra.Command, args []string) {
	identity, _ := cmd.Flags().GetString("identity")
	key, _ := cmd.Flags().GetString("key")

	s, cfg := openStore()
	defer s.Close()

	svc := responder.New(s, cfg.DefaultReply)
	if key != "" {
		v, ok, err := svc.Memory(cmd.Context(), identity, key)
		if err != nil {
			exitErr("memory", err)
		}
		if !ok {
			fmt.Println("not found")
			return
		}
		fmt.Println(v)
		return
	}

	m, err := svc.MemoryMap(cmd.Context(), identity)
	if err != nil {
		exitErr("memory", err)
	}
	if len(m) == 0 {
		fmt.Println("no memory")
		return
	}
	printJSON(m)
}
