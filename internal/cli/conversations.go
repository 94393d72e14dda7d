package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentchat/agentchat-go/internal/api"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage conversations on the portal",
	Long: `Manage conversations stored on the portal server.

Examples:
  agentchat conversations list
  agentchat conversations rename 0f8e2c "Budget review"
  agentchat conversations pin 0f8e2c
  agentchat conversations delete 0f8e2c`,
	RunE: runConversationsList,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	RunE:  runConversationsList,
}

var conversationsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE:  runConversationsRename,
}

var conversationsPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsPin,
}

var conversationsUnpinCmd = &cobra.Command{
	Use:   "unpin <id>",
	Short: "Unpin a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsUnpin,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsRenameCmd)
	conversationsCmd.AddCommand(conversationsPinCmd)
	conversationsCmd.AddCommand(conversationsUnpinCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	convs, err := apiClient.ListConversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if len(convs) == 0 {
		fmt.Println("No conversations.")
		return nil
	}

	for _, conv := range convs {
		pin := " "
		if conv.IsPinned {
			pin = "*"
		}
		fmt.Printf("%s %-36s  %-50s  %s\n", pin, conv.ID, conv.Title, conv.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runConversationsRename(cmd *cobra.Command, args []string) error {
	title := args[1]
	conv, err := apiClient.UpdateConversation(cmd.Context(), args[0], api.ConversationUpdate{Title: &title})
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	fmt.Printf("Renamed %s to %q\n", conv.ID, conv.Title)
	return nil
}

func runConversationsPin(cmd *cobra.Command, args []string) error {
	return setPinned(cmd, args[0], true)
}

func runConversationsUnpin(cmd *cobra.Command, args []string) error {
	return setPinned(cmd, args[0], false)
}

func setPinned(cmd *cobra.Command, id string, pinned bool) error {
	conv, err := apiClient.UpdateConversation(cmd.Context(), id, api.ConversationUpdate{IsPinned: &pinned})
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if pinned {
		fmt.Printf("Pinned %s\n", conv.ID)
	} else {
		fmt.Printf("Unpinned %s\n", conv.ID)
	}
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	if err := apiClient.DeleteConversation(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
