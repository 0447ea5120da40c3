package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Discovery holds the fields of an OIDC discovery document realmenv uses.
type Discovery struct {
	Issuer        string `json:"issuer"`
	TokenEndpoint string `json:"token_endpoint"`
}

// IssuerURL returns the OIDC issuer of realm on the server at endpoint.
func IssuerURL(endpoint, realm string) string {
	return endpoint + "/realms/" + url.PathEscape(realm)
}

// Discover fetches the OIDC discovery document of realm.
func (c *AdminClient) Discover(ctx context.Context, realm string) (Discovery, error) {
	u := IssuerURL(c.endpoint, realm) + "/.well-known/openid-configuration"

	status, body, err := c.do(ctx, fiber.MethodGet, u, nil)
	if err != nil {
		return Discovery{}, err
	}
	if status != fiber.StatusOK {
		return Discovery{}, &StatusError{Method: fiber.MethodGet, URL: u, Status: status, Body: string(body)}
	}

	var d Discovery
	if err := json.Unmarshal(body, &d); err != nil {
		return Discovery{}, fmt.Errorf("%w: decode discovery document: %w", ErrProvisioning, err)
	}
	if d.TokenEndpoint == "" {
		return Discovery{}, fmt.Errorf("%w: discovery document of %s has no token endpoint", ErrProvisioning, realm)
	}
	return d, nil
}

// ClientToken obtains an access token for a confidential client with the
// client-credentials grant, using the token endpoint advertised by realm.
func (c *AdminClient) ClientToken(ctx context.Context, realm, clientID, secret string, scopes ...string) (*oauth2.Token, error) {
	d, err := c.Discover(ctx, realm)
	if err != nil {
		return nil, err
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		TokenURL:     d.TokenEndpoint,
		Scopes:       scopes,
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tok, err := cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: token for client %s in realm %s: %w", ErrProvisioning, clientID, realm, err)
	}
	return tok, nil
}
