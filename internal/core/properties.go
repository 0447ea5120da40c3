package core

import (
	"strconv"

	"github.com/giantswarm/realmenv/internal/config"
	"github.com/giantswarm/realmenv/internal/provision"
	"github.com/giantswarm/realmenv/internal/runtime"
)

// Property keys exposed by a Service.
const (
	PropHost       = FeatureName + ".host"
	PropPort       = FeatureName + ".port"
	PropEndpoint   = FeatureName + ".endpoint"
	PropClientHost = FeatureName + ".client-host"
	PropClientPort = FeatureName + ".client-port"

	PropOIDCAuthServerURL = FeatureName + ".oidc.auth-server-url"
	PropOIDCClientID      = FeatureName + ".oidc.client-id"
	PropOIDCClientSecret  = FeatureName + ".oidc.client-secret"

	// Mirrors of the OIDC properties under the conventional oidc prefix.
	PropAuthServerURL     = "oidc.auth-server-url"
	PropClientID          = "oidc.client-id"
	PropCredentialsSecret = "oidc.credentials.secret"
)

// discoveredProperties describes a container found running elsewhere. Only
// the service address is known.
func discoveredProperties(sc config.ServiceConfig, addr runtime.Address) map[string]string {
	props := map[string]string{
		PropHost:     addr.Host,
		PropPort:     strconv.Itoa(addr.Port),
		PropEndpoint: addr.URL(),
	}
	addOIDC(props, sc, addr)
	return props
}

// ownedProperties describes a container started by this process.
func ownedProperties(sc config.ServiceConfig, service, client runtime.Address) map[string]string {
	props := discoveredProperties(sc, service)
	props[PropClientHost] = client.Host
	props[PropClientPort] = strconv.Itoa(client.Port)
	return props
}

// addOIDC adds the OIDC properties when enabled and the default realm is
// provisioned. The client credentials are those of the built-in
// confidential client, including an explicit secret override.
func addOIDC(props map[string]string, sc config.ServiceConfig, addr runtime.Address) {
	if !sc.OIDC || !sc.DefaultRealm.Create {
		return
	}

	authURL := provision.IssuerURL(addr.URL(), sc.DefaultRealm.Name)
	secret := provision.DefaultClientSecret
	if c, ok := sc.DefaultRealm.Clients[provision.DefaultClientID]; ok && c.Secret != "" {
		secret = c.Secret
	}

	props[PropOIDCAuthServerURL] = authURL
	props[PropOIDCClientID] = provision.DefaultClientID
	props[PropOIDCClientSecret] = secret
	props[PropAuthServerURL] = authURL
	props[PropClientID] = provision.DefaultClientID
	props[PropCredentialsSecret] = secret
}
