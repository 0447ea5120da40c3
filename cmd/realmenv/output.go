package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/realmenv"
)

// Output formats of the property listing.
const (
	outputTable = "table"
	outputEnv   = "env"
	outputJSON  = "json"
)

var outputFormats = []string{outputTable, outputEnv, outputJSON}

func validateOutput(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("invalid output format %q, want one of %s", format, strings.Join(outputFormats, ", "))
	}
	return nil
}

// serviceView is the JSON rendering of a service.
type serviceView struct {
	ID         string            `json:"id"`
	Feature    string            `json:"feature"`
	Ownership  string            `json:"ownership"`
	Container  string            `json:"container"`
	Endpoint   string            `json:"endpoint"`
	Realms     []string          `json:"createdRealms"`
	Properties map[string]string `json:"properties"`
}

func writeService(w io.Writer, format string, svc realmenv.Service) error {
	props := svc.Properties()
	keys := sets.List(sets.KeySet(props))

	switch format {
	case outputEnv:
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "%s=%s\n", envName(k), props[k]); err != nil {
				return err
			}
		}
		return nil

	case outputJSON:
		realms := svc.CreatedRealms()
		if realms == nil {
			realms = []string{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(serviceView{
			ID:         svc.ID(),
			Feature:    svc.FeatureName(),
			Ownership:  svc.Ownership().String(),
			Container:  svc.ContainerID(),
			Endpoint:   svc.Endpoint(),
			Realms:     realms,
			Properties: props,
		})

	default:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleRounded)
		t.SetTitle(fmt.Sprintf("%s (%s)", svc.FeatureName(), svc.Ownership()))
		t.AppendHeader(table.Row{"PROPERTY", "VALUE"})
		for _, k := range keys {
			t.AppendRow(table.Row{k, props[k]})
		}
		if realms := svc.CreatedRealms(); len(realms) > 0 {
			t.AppendFooter(table.Row{"created realms", strings.Join(realms, ", ")})
		}
		t.Render()
		return nil
	}
}

// envName turns a property key into an environment variable name:
// lorisgate.oidc.client-id becomes LORISGATE_OIDC_CLIENT_ID.
func envName(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
