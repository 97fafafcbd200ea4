package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suteetoe/howyoufell/pkg/config"
	"github.com/suteetoe/howyoufell/pkg/jwtutil"
)

var (
	tokenSubject string
	tokenEmail   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token signed with JWT_SIGNING_KEY",
	Long: `Mint an HS256 bearer token accepted when AUTH_MODE=hmac.
Leave --email empty to get a token without the e-mail claim.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Auth.Mode != config.AuthHMAC {
			return fmt.Errorf("tokens can only be minted in %s mode, AUTH_MODE is %s", config.AuthHMAC, cfg.Auth.Mode)
		}

		token, err := jwtutil.NewJWTUtil(hmacConfig(cfg)).GenerateToken(tokenSubject, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "dev-user", "token subject")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "e-mail claim")
}
