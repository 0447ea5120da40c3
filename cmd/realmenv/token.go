package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/giantswarm/realmenv"
	"github.com/giantswarm/realmenv/internal/provision"
)

func (a *app) tokenCmd() *cobra.Command {
	var realm, clientID, secret string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Obtain an access token from the provisioned realm",
		Long: `token ensures the auth server and fetches an access token with the OAuth2
client-credentials grant, using the token endpoint advertised by the realm's
discovery document. It defaults to the built-in confidential client of the
default realm.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.token(cmd.Context(), realm, clientID, secret)
		},
	}
	cmd.Flags().StringVar(&realm, "realm", "", "realm to authenticate against; the default realm when empty")
	cmd.Flags().StringVar(&clientID, "client-id", provision.DefaultClientID, "confidential client id")
	cmd.Flags().StringVar(&secret, "client-secret", "", "client secret; the configured secret of the built-in client when empty")
	return cmd
}

func (a *app) token(ctx context.Context, realm, clientID, secret string) (err error) {
	orch, svc, cfg, err := a.ensure(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := orch.Close(context.WithoutCancel(ctx)); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if realm == "" {
		realm = cfg.DefaultRealm.Name
	}
	if secret == "" {
		secret = clientSecret(cfg, clientID)
	}

	admin := provision.NewAdminClient(svc.Endpoint(), realmenv.DefaultAdminTimeout, slog.Default())
	defer admin.Close()

	tok, err := admin.ClientToken(ctx, realm, clientID, secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, tok.AccessToken)
	return err
}

// clientSecret returns the configured secret of clientID in the default
// realm, falling back to the built-in secret.
func clientSecret(cfg realmenv.ServiceConfig, clientID string) string {
	if c, ok := cfg.DefaultRealm.Clients[clientID]; ok && c.Secret != "" {
		return c.Secret
	}
	return provision.DefaultClientSecret
}
