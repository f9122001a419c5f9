package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wiremeet/internal/app"
	"github.com/vovakirdan/wiremeet/internal/auth"
)

var (
	tokenUser string
	tokenName string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an identity token for the meeting socket",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenUser == "" {
			return errors.New("--user is required")
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		token, err := auth.NewService(nil, app.JWTConfig(cfg)).IssueToken(tokenUser, tokenName)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id carried as the token subject")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name used when a join omits one")
}
