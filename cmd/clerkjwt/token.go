package main

import (
	"encoding/json"
	"fmt"

	"github.com/clerk/jwt"
	"github.com/spf13/cobra"
)

type decodeOutput struct {
	Header  jwt.Header      `json:"header"`
	Payload json.RawMessage `json:"payload"`
}

func newDecodeCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token|->",
		Short: "Decode a token without verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := argOrDefault(cmd, args, "", "token")
			if err != nil {
				return err
			}

			t, err := jwt.Decode(raw)
			if err != nil {
				return err
			}

			return printJSON(cmd, decodeOutput{Header: t.Header, Payload: t.Payload})
		},
	}
}

type verifyOutput struct {
	Valid  bool               `json:"valid"`
	Reason jwt.Reason         `json:"reason,omitempty"`
	Error  string             `json:"error,omitempty"`
	Claims *jwt.SessionClaims `json:"claims,omitempty"`
}

func newVerifyCmd(a *app) *cobra.Command {
	var (
		audience []string
		issuer   string
	)

	cmd := &cobra.Command{
		Use:   "verify <token|->",
		Short: "Verify a session token with the local JWT key or the instance JWKS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := argOrDefault(cmd, args, "", "token")
			if err != nil {
				return err
			}

			key, err := a.keyResolver()
			if err != nil {
				return err
			}

			opts := jwt.VerifyOptions{
				Key:               key,
				ClockSkew:         a.cfg.ClockSkew,
				AuthorizedParties: a.cfg.AuthorizedParties,
				Audience:          audience,
				Crypto:            a.crypto(),
				Logger:            a.logger,
			}
			if a.cfg.ClockSkew == 0 {
				opts.ClockSkew = -1
			}
			if issuer != "" {
				opts.Issuer = jwt.IssuerIs(issuer)
			}

			res := jwt.NewVerifier(opts).Result(cmd.Context(), raw)

			out := verifyOutput{Valid: res.Valid, Reason: res.Reason, Claims: res.Claims}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}

			if err = printJSON(cmd, out); err != nil {
				return err
			}

			if !res.Valid {
				return fmt.Errorf("token is invalid: %s", res.Reason)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&audience, "audience", nil, "accepted aud values")
	cmd.Flags().StringVar(&issuer, "issuer", "", "expected iss value")

	return cmd
}

func newJWKSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jwks",
		Short: "Fetch the instance JWKS from the Backend API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.jwksClient()
			if err != nil {
				return err
			}

			set, err := client.Fetch(cmd.Context())
			if err != nil {
				return err
			}

			return printJSON(cmd, set)
		},
	}
}
