package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"containerboard/api/internal/auth"
	"containerboard/api/internal/rbac"
	"containerboard/api/internal/util"
)

var (
	tokenSub  string
	tokenName string
	tokenRole string
	tokenTTL  time.Duration
)

// tokenCmd issues a signed development token, standing in for the sign-in gate
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed identity token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := issueToken(cfg.TokenSecret, tokenSub, tokenName, tokenRole, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSub, "sub", "", "user id the token identifies (required)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(rbac.RoleOperator), "viewer, operator or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}

func issueToken(secret, sub, name, role string, ttl time.Duration, now time.Time) (string, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", errors.New("--sub is required")
	}
	if ttl <= 0 {
		return "", errors.New("--ttl must be positive")
	}
	return auth.IssueToken([]byte(secret), auth.Claims{
		Sub:  sub,
		Name: name,
		Role: string(rbac.Normalize(role)),
		JTI:  util.NewID("tok"),
		Exp:  now.Add(ttl).Unix(),
	})
}
