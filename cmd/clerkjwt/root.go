package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clerk/jwt"
	"github.com/clerk/jwt/internal/config"
	"github.com/clerk/jwt/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what PersistentPreRunE loads to the subcommands.
type app struct {
	configFile string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "clerkjwt",
		Short:         "Clerk key and session token tool",
		Long:          `clerkjwt parses publishable and secret keys, and decodes and verifies Clerk session tokens locally.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./clerkjwt.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "human readable debug logs")
	pf.String("secret-key", "", "instance secret key (CLERK_SECRET_KEY)")
	pf.String("publishable-key", "", "instance publishable key (CLERK_PUBLISHABLE_KEY)")
	pf.String("jwt-key", "", "PEM public key of the instance (CLERK_JWT_KEY)")
	pf.String("api-url", "", "Backend API URL (CLERK_API_URL)")
	pf.String("api-version", "", "Backend API version (CLERK_API_VERSION)")
	pf.StringSlice("authorized-parties", nil, "accepted azp origins (CLERK_AUTHORIZED_PARTIES)")
	pf.Duration("clock-skew", 0, "tolerance on exp, nbf and iat (CLERK_CLOCK_SKEW)")
	pf.String("backend", "", "crypto backend, std or jwx (CLERK_BACKEND)")
	pf.String("log-level", "", "debug, info, warn or error (CLERK_LOG_LEVEL)")

	root.AddCommand(
		newParseKeyCmd(a),
		newBuildKeyCmd(a),
		newInstanceCmd(a),
		newDecodeCmd(a),
		newVerifyCmd(a),
		newJWKSCmd(a),
	)

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags(), a.configFile)
	if err != nil {
		return err
	}

	if err = config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}

	l, err := logger.New(level, a.verbose)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = l
	a.logger.Debug("loaded config", zap.Stringer("config", cfg))

	return nil
}

func (a *app) crypto() jwt.Crypto {
	if a.cfg.Backend == config.BackendJWX {
		return jwt.JWXCrypto{}
	}

	return jwt.StdCrypto{}
}

// keyResolver prefers the local JWT key, then falls back to the JWKS of
// the Backend API.
func (a *app) keyResolver() (jwt.KeyResolver, error) {
	if a.cfg.JWTKey != "" {
		key, err := jwt.LocalKey(a.cfg.JWTKey)
		if err != nil {
			return nil, err
		}
		return key, nil
	}

	client, err := a.jwksClient()
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (a *app) jwksClient() (*jwt.JWKSClient, error) {
	return jwt.NewJWKSClient(a.cfg.SecretKey,
		jwt.WithAPIURL(a.cfg.APIURL),
		jwt.WithAPIVersion(a.cfg.APIVersion),
		jwt.WithLogger(a.logger))
}

// argOrDefault returns args[0], the standard input when it is "-", or
// fallback when args is empty.
func argOrDefault(cmd *cobra.Command, args []string, fallback, name string) (string, error) {
	if len(args) == 0 {
		if fallback == "" {
			return "", fmt.Errorf("missing %s", name)
		}
		return fallback, nil
	}

	if args[0] != "-" {
		return args[0], nil
	}

	in := cmd.InOrStdin()
	if in == nil {
		in = os.Stdin
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	return strings.TrimSpace(string(b)), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
