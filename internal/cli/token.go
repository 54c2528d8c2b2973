package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notsoai/dashboard/internal/auth"
)

func newTokenCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Issue API tokens"}

	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Issue a chat-widget ingest token for one assistant",
		Long: `Issue a bearer token the chat widget uses to POST finished sessions to
/api/ingest/chat-sessions. Signed with INGEST_SECRET.`,
		Example: `  dashctl token ingest --client c_123 --assistant 01J... --ttl 720h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID, _ := cmd.Flags().GetString("client")
			assistantID, _ := cmd.Flags().GetString("assistant")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				ttl = env.Config.Ingest.TokenTTL
			}
			if env.Config.Ingest.Secret == "" {
				return fmt.Errorf("INGEST_SECRET is not set")
			}

			tok, err := auth.SignIngestToken(clientID, assistantID, env.Config.Ingest.Secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	ingest.Flags().String("client", "", "tenant id")
	ingest.Flags().String("assistant", "", "assistant id")
	ingest.Flags().Duration("ttl", 0, "token lifetime (default INGEST_TOKEN_TTL)")
	_ = ingest.MarkFlagRequired("client")
	_ = ingest.MarkFlagRequired("assistant")

	cmd.AddCommand(ingest)
	return cmd
}
