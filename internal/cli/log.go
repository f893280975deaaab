package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"replybot/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the interaction log",
		Run:   runLog,
	}

	cmd.Flags().StringP("identity", "i", "", "Filter by sender identity")
	cmd.Flags().StringP("query", "q", "", "Substring search over messages and responses")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runLog(cmd *cobra.Command, args []string) {
	identity, _ := cmd.Flags().GetString("identity")
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")

	s, _ := openStore()
	defer s.Close()

	interactions, err := s.Interactions(cmd.Context(), store.InteractionParams{
		Identity: identity,
		Query:    query,
		Limit:    limit,
	})
	if err != nil {
		exitErr("log", err)
	}
	if len(interactions) == 0 {
		fmt.Println("no interactions")
		return
	}
	printJSON(interactions)
}
