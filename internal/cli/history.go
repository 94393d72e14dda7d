package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const archiveTimeout = 30 * time.Second

var (
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the local conversation archive",
	Long: `Browse conversations archived to the local SurrealDB instance.

Chats are archived with 'agentchat chat --archive' or the /archive
command in the interactive view.

Examples:
  agentchat history
  agentchat history show 0f8e2c
  agentchat history search "quarterly budget"
  agentchat history delete 0f8e2c`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived conversations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search archived messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 50, "max results")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	records, err := client.ListConversations(ctx, historyLimit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No archived conversations.")
		return nil
	}

	for _, rec := range records {
		pin := " "
		if rec.IsPinned {
			pin = "*"
		}
		fmt.Printf("%s %-36v  %-50s  %s\n", pin, rec.ID.ID, rec.Title, rec.Updated.Format("2006-01-02 15:04"))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	conv, err := client.GetConversation(ctx, args[0])
	if err != nil {
		return err
	}
	if conv == nil {
		return fmt.Errorf("conversation %q not found in archive", args[0])
	}

	fmt.Printf("%s\n%s\n\n", conv.Title, strings.Repeat("=", len(conv.Title)))
	for _, msg := range conv.Messages {
		fmt.Printf("[%s] %s\n%s\n\n", msg.Timestamp.Format("15:04"), msg.Role, msg.Content)
	}
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	hits, err := client.SearchMessages(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for _, hit := range hits {
		excerpt := hit.Content
		if len(excerpt) > 120 {
			excerpt = excerpt[:120] + "..."
		}
		fmt.Printf("%-36v  %s: %s\n", hit.Conversation.ID, hit.Role, excerpt)
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	count, err := client.DeleteConversation(ctx, args[0])
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Printf("Nothing to delete for %s\n", args[0])
		return nil
	}
	fmt.Printf("Deleted %s from archive\n", args[0])
	return nil
}
