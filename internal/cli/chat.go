package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/agentchat/agentchat-go/internal/config"
	"github.com/agentchat/agentchat-go/internal/history"
	"github.com/agentchat/agentchat-go/internal/models"
	"github.com/agentchat/agentchat-go/internal/session"
	"github.com/agentchat/agentchat-go/internal/store"
)

var (
	chatModelFlag    string
	chatProvider     string
	chatConversation string
	chatTransport    string
	chatArchive      bool
	chatPlain        bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the agent",
	Long: `Chat with the agent through the portal.

Without arguments and on a terminal, opens an interactive session with a
live view of the assistant's thinking steps and tool activity. With a
message argument (or piped stdin), sends a single message and prints the
reply to stdout.

Examples:
  agentchat chat
  agentchat chat "Summarize the onboarding doc"
  cat report.txt | agentchat chat
  agentchat chat --conversation 0f8e2c "And what about Q3?"
  agentchat chat --transport ws --archive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModelFlag, "model", "m", "", "model to request (default from config)")
	chatCmd.Flags().StringVar(&chatProvider, "provider", "", "provider ID override")
	chatCmd.Flags().StringVarP(&chatConversation, "conversation", "c", "", "resume an existing conversation by ID")
	chatCmd.Flags().StringVar(&chatTransport, "transport", "", "stream transport: sse or ws (default from config)")
	chatCmd.Flags().BoolVar(&chatArchive, "archive", false, "archive the conversation locally when the session ends")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "disable the interactive view")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st := store.New(logger)
	ctl := session.NewController(apiClient, streamOpener(chatTransportValue()), st, logger, sessionOptions())

	if chatConversation != "" {
		conv, err := apiClient.GetConversation(ctx, chatConversation)
		if err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		st.Adopt(conv)
	}

	message := ""
	if len(args) > 0 {
		message = args[0]
	}

	interactive := message == "" && term.IsTerminal(int(os.Stdin.Fd())) && !chatPlain
	if !interactive && message == "" {
		// Piped input: the whole of stdin is the message
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		message = strings.TrimSpace(string(data))
		if message == "" {
			return fmt.Errorf("empty message")
		}
	}

	var runErr error
	if interactive {
		runErr = runChatView(ctx, st, ctl)
	} else {
		runErr = runChatOnce(ctx, st, ctl, message)
	}

	if chatArchive {
		if err := archiveCurrent(st); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: archive failed: %v\n", err)
		}
	}

	return runErr
}

// runChatOnce sends one message and prints the reply to stdout.
func runChatOnce(ctx context.Context, st *store.Store, ctl *session.Controller, message string) error {
	ctl.SetNotify(func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	})

	// Ctrl+C aborts the stream; whatever arrived so far is still printed.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	go func() {
		<-sigCtx.Done()
		ctl.Abort()
	}()

	if err := ctl.Send(ctx, message); err != nil {
		return err
	}

	msgs := st.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant {
			fmt.Println(msgs[i].Content)
			break
		}
	}

	if ctl.State() == session.StateAborted {
		fmt.Fprintln(os.Stderr, "(aborted)")
	}
	return nil
}

// archiveCurrent saves the current conversation to the local archive.
func archiveCurrent(st *store.Store) error {
	conv := st.CurrentConversation()
	if conv == nil || len(conv.Messages) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	client, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	return client.SaveConversation(ctx, conv)
}

func chatTransportValue() config.Transport {
	switch chatTransport {
	case "ws":
		return config.TransportWebSocket
	case "sse":
		return config.TransportSSE
	default:
		return cfg.Transport
	}
}

func sessionOptions() session.Options {
	opts := session.Options{Model: cfg.Model}
	if chatModelFlag != "" {
		opts.Model = chatModelFlag
	}
	provider := cfg.ProviderID
	if chatProvider != "" {
		provider = chatProvider
	}
	if provider != "" {
		opts.ProviderID = &provider
	}
	return opts
}

// openArchive connects to the local SurrealDB archive.
func openArchive(ctx context.Context) (*history.Client, error) {
	client, err := history.NewClient(ctx, history.Config{
		URL:       cfg.HistoryURL,
		Namespace: cfg.HistoryNamespace,
		Database:  cfg.HistoryDatabase,
		Username:  cfg.HistoryUser,
		Password:  cfg.HistoryPass,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to archive: %w", err)
	}
	if err := client.InitSchema(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}
	return client, nil
}
