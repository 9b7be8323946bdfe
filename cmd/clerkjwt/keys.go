package main

import (
	"fmt"

	"github.com/clerk/jwt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newParseKeyCmd(a *app) *cobra.Command {
	var proxyURL, domain string

	cmd := &cobra.Command{
		Use:   "parse-key [publishable-key|-]",
		Short: "Decode a publishable key into its instance type and Frontend API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := argOrDefault(cmd, args, a.cfg.PublishableKey, "publishable key")
			if err != nil {
				return err
			}

			pk, err := jwt.DecodePublishableKey(key,
				jwt.WithProxyURL(proxyURL),
				jwt.WithSatelliteDomain(domain))
			if err != nil {
				a.logger.Debug("publishable key rejected", zap.Error(err))
				return err
			}

			return printJSON(cmd, pk)
		},
	}

	cmd.Flags().StringVar(&proxyURL, "proxy-url", "", "Frontend API proxy URL")
	cmd.Flags().StringVar(&domain, "domain", "", "satellite application domain")

	return cmd
}

func newBuildKeyCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build-key <frontend-api>",
		Short: "Build the publishable key of a Frontend API host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), jwt.BuildPublishableKey(args[0]))
			return err
		},
	}
}

func newInstanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "instance [secret-key|-]",
		Short: "Print the instance type of a secret key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := argOrDefault(cmd, args, a.cfg.SecretKey, "secret key")
			if err != nil {
				return err
			}

			instanceType, ok := jwt.InstanceTypeFromSecretKey(key)
			if !ok {
				return jwt.ErrInvalidSecretKey
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), instanceType)
			return err
		},
	}
}
