package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatReply struct {
	Reply    string `json:"reply"`
	Grounded bool   `json:"grounded"`
}

type corpusStatus struct {
	Chunks      int       `json:"chunks"`
	Fingerprint string    `json:"fingerprint"`
	BuiltAt     time.Time `json:"built_at"`
}

// AskCmd returns the ask command
func AskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the profile assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("message is required")
			}

			resp, err := NewAPIClientWithCmd(cmd).Post(cmd.Context(), "/api/chat", chatRequest{Message: message})
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), string(resp.Data))
				return nil
			}

			var reply chatReply
			if err := json.Unmarshal(resp.Data, &reply); err != nil {
				return fmt.Errorf("failed to parse reply: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Reply)
			if !reply.Grounded {
				fmt.Fprintln(cmd.ErrOrStderr(), "(answered without knowledge context)")
			}
			return nil
		},
	}
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the server corpus is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := NewAPIClientWithCmd(cmd).Get(cmd.Context(), "/ready")
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), string(resp.Data))
				return nil
			}

			var status corpusStatus
			if err := json.Unmarshal(resp.Data, &status); err != nil {
				return fmt.Errorf("failed to parse status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ready: %d chunks, fingerprint %s, built %s\n",
				status.Chunks, status.Fingerprint, status.BuiltAt.Format(time.RFC3339))
			return nil
		},
	}
}

func jsonOutput(cmd *cobra.Command) bool {
	output, err := cmd.Flags().GetBool("output")
	return err == nil && output
}
