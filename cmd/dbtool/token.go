package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/config"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/server"
)

func tokenCmd() *cobra.Command {
	var p server.Principal
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with the configured secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDefault()
			if err != nil {
				return err
			}
			tok, err := server.IssueToken(server.TokenConfig{
				Secret:   cfg.Security.JWTSecret,
				Issuer:   cfg.Security.Issuer,
				Audience: cfg.Security.Audience,
				TTL:      cfg.Security.TTL,
			}, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.TenantID, "tenant", "", "tenant uuid")
	cmd.Flags().StringVar(&p.ID, "sub", "operator", "subject (user id)")
	cmd.Flags().StringVar(&p.RoleSlug, "role", "admin", "role: admin, manager, sales or user")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
