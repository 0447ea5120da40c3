// Package realmenv runs a lorisgate auth server as a development service.
//
// An Orchestrator starts the server in a container, waits for its health
// endpoint, and provisions the configured realms, roles, users and clients
// through the admin API. It exposes connection properties for the consuming
// application and keeps one service per process in step with the service
// configuration: an unchanged configuration is a no-op, a changed one
// restarts the container.
//
// # Basic Usage
//
//	import "github.com/giantswarm/realmenv"
//
//	ctx := context.Background()
//
//	orch, err := realmenv.NewOrchestrator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer orch.Close(ctx)
//
//	cfg, err := realmenv.LoadConfig("realmenv.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc, err := orch.Ensure(ctx, cfg)
//	switch {
//	case errors.Is(err, realmenv.ErrRuntimeUnavailable):
//	    // No Docker: use externally configured endpoints.
//	case err != nil:
//	    log.Fatal(err)
//	default:
//	    issuer := svc.Properties()[realmenv.PropAuthServerURL]
//	    // Configure the application with issuer...
//	}
//
// # Sharing
//
// With Shared enabled, dev sessions (LaunchDev) find a server another
// session already runs for the same service name and use it as is, without
// provisioning. Containers started with Reuse outlive Close and are picked up
// again by the next run with an identical configuration.
//
// # Default Realm
//
// Unless switched off, the default realm "dev" carries the roles admin and
// user, the confidential client quarkus-app (secret "secret") and the public
// client quarkus-app-public, and the users alice (admin, user) and bob (user),
// whose passwords equal their usernames.
package realmenv
