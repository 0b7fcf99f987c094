package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"

	"github.com/spf13/cobra"
)

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "send <message>",
		Short:   "Send a message and print the reply",
		Args:    cobra.MinimumNArgs(1),
		Example: `  mindctl send "I can't sleep lately"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()

			resp, err := opts.client.SendMessage(ctx, &v1.SendMessageRequest{Content: strings.Join(args, " ")})
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(resp.Messages) > 1 {
				printMessage(out, resp.Messages[len(resp.Messages)-1])
			}
			if resp.CrisisDetected {
				fmt.Fprintf(out, "(crisis support shown, severity %s)\n", resp.Severity)
			} else if resp.AIError {
				fmt.Fprintln(out, "(assistant unavailable, fallback reply)")
			}
			return nil
		},
	}
}

func newMessagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Print the active conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()

			resp, err := opts.client.GetMessages(ctx, &v1.GetMessagesRequest{})
			if err != nil {
				return fmt.Errorf("get messages: %w", err)
			}
			if len(resp.Messages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active conversation.")
				return nil
			}
			for _, m := range resp.Messages {
				printMessage(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func newEndCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the active conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()

			resp, err := opts.client.EndChat(ctx, &v1.EndChatRequest{})
			if err != nil {
				return fmt.Errorf("end chat: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ended conversation %s (%d messages).\n", resp.Conversation.ID, len(resp.Conversation.Messages))
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int32

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List ended conversations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			ctx, cancel := opts.callContext(cmd)
			defer cancel()

			stream, err := opts.client.GetHistory(ctx, &v1.GetHistoryRequest{Limit: limit})
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}

			out := cmd.OutOrStdout()
			n := 0
			for {
				c, err := stream.Recv()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("history: %w", err)
				}
				n++
				fmt.Fprintf(out, "%s  %s  %d messages", c.ID, c.LastActivity.Local().Format(time.DateTime), len(c.Messages))
				if c.Sentiment != "" {
					fmt.Fprintf(out, "  %s", c.Sentiment)
				}
				fmt.Fprintln(out)
			}
			if n == 0 {
				fmt.Fprintln(out, "No past conversations.")
			}
			return nil
		},
	}

	cmd.Flags().Int32VarP(&limit, "limit", "n", 20, "max conversations")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream real-time events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			// No timeout: the stream lives until the server or the user ends it
			stream, err := opts.client.Subscribe(opts.withAuth(cmd.Context()), &v1.SubscribeRequest{})
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}

			out := cmd.OutOrStdout()
			for {
				ev, err := stream.Recv()
				if errors.Is(err, io.EOF) || cmd.Context().Err() != nil {
					return nil
				}
				if err != nil {
					return fmt.Errorf("subscribe: %w", err)
				}
				printEvent(out, ev)
			}
		},
	}
}

func printMessage(w io.Writer, m v1.Message) {
	marker := " "
	if m.Read {
		marker = "✓"
	}
	fmt.Fprintf(w, "[%s] %s %-9s %s\n", m.Timestamp.Local().Format(time.TimeOnly), marker, m.Sender+":", m.Content)
}

func printEvent(w io.Writer, ev *v1.Event) {
	switch ev.Type {
	case v1.EventMessageNew:
		if ev.Message != nil {
			printMessage(w, *ev.Message)
		}
	case v1.EventMessageRead:
		fmt.Fprintf(w, "read %s\n", ev.MessageID)
	default:
		fmt.Fprintln(w, ev.Type)
	}
}
