package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/services"
	"github.com/desertthunder/cinelist/internal/shared"
)

// AuthStatus reports whether the configured token is present and unexpired, then checks the backend accepts it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")
	token := r.config.API.Token

	r.writePlain("Backend: %s\n", r.config.API.BaseURL)
	if err := shared.CheckToken(token, time.Now()); err != nil {
		r.writePlain("Token: ✗ %v\n", err)
		return err
	}

	if exp, ok := shared.TokenExpiry(token); ok {
		r.writePlain("Token: ✓ expires %s (in %s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Minute))
	} else {
		r.writePlain("Token: ✓ set (no expiry claim)\n")
	}

	if _, err := r.lists.Lists(ctx); err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			r.writePlain("Authentication: ✗ Rejected by backend\n")
		} else {
			r.writePlain("Authentication: ? Backend unreachable\n")
		}
		return err
	}
	return r.writePlain("Authentication: ✓ Authenticated\n")
}

// AuthSetToken stores a bearer token in the config file.
//
// The token is issued elsewhere; no login flow is performed.
func (r *Runner) AuthSetToken(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(strings.TrimPrefix(cmd.StringArg("token"), "Bearer "))
	if err := shared.CheckToken(token, time.Now()); err != nil {
		return err
	}
	if err := r.saveToken(token); err != nil {
		return err
	}

	if r.configPath == "" {
		return r.writePlain("✓ Token set for this session\n")
	}
	return r.writePlain("✓ Token saved to %s\n", r.configPath)
}

// saveToken updates the in-memory config and persists it when a config path is known.
func (r *Runner) saveToken(token string) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	r.config.API.Token = token
	r.httpClient = services.NewHTTPClient(r.config.API)
	r.wire()

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}
	return nil
}

// authCommand handles token inspection and storage
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend access token",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Check the token's expiry and whether the backend accepts it",
				Action: r.AuthStatus,
			},
			{
				Name:  "set-token",
				Usage: "Save a bearer token to the config file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "token"},
				},
				Action: r.AuthSetToken,
			},
		},
	}
}
