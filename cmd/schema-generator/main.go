// Command schema-generator fetches every group/version's OpenAPI v3
// document and discovery APIResourceList from a live API server and emits
// the merged Cedar JSON schema spec.md §4.6 and §6 describe, for
// cedar-authorizer's /validate endpoint to type-check policies against.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/openapi"
	"k8s.io/client-go/tools/clientcmd"
	kubeopenapispec "k8s.io/kube-openapi/pkg/validation/spec"
	"k8s.io/kube-openapi/pkg/spec3"

	cedarschema "github.com/cedar-policy/cedar-access-control-for-k8s/internal/schema"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var kubeconfig, outputPath string

	cmd := &cobra.Command{
		Use:   "schema-generator",
		Short: "Generates the Cedar JSON schema cedar-authorizer's /validate endpoint type-checks policies against",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(kubeconfig, outputPath)
		},
	}

	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", os.Getenv("KUBECONFIG"), "path to a kubeconfig file; in-cluster config is used when empty")
	cmd.Flags().StringVar(&outputPath, "output", "schema.json", "file the generated Cedar schema is written to")

	return cmd
}

func run(kubeconfigPath, outputPath string) error {
	zapLog, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("schema-generator: building logger: %w", err)
	}
	defer func() { _ = zapLog.Sync() }()
	log := zapr.NewLogger(zapLog).WithName("schema-generator")

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return fmt.Errorf("schema-generator: building kube config: %w", err)
	}

	client, err := discovery.NewDiscoveryClientForConfig(config)
	if err != nil {
		return fmt.Errorf("schema-generator: building discovery client: %w", err)
	}

	doc, err := cedarschema.Generate(&discoveryFetcher{client: client}, log)
	if err != nil {
		return fmt.Errorf("schema-generator: generating schema: %w", err)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("schema-generator: marshaling schema: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("schema-generator: writing schema: %w", err)
	}

	log.Info("wrote cedar schema", "path", outputPath, "namespaces", len(doc))
	return nil
}

// discoveryFetcher implements cedarschema.Fetcher against a live API
// server's discovery.DiscoveryInterface (spec.md §6 "Inputs").
type discoveryFetcher struct {
	client discovery.DiscoveryInterface
}

func (f *discoveryFetcher) Paths() ([]string, error) {
	paths, err := f.client.OpenAPIV3().Paths()
	if err != nil {
		return nil, fmt.Errorf("listing openapi v3 paths: %w", err)
	}
	out := make([]string, 0, len(paths))
	for p := range paths {
		out = append(out, p)
	}
	return out, nil
}

func (f *discoveryFetcher) Document(path string) (*cedarschema.OpenAPIDocument, error) {
	paths, err := f.client.OpenAPIV3().Paths()
	if err != nil {
		return nil, fmt.Errorf("listing openapi v3 paths: %w", err)
	}
	gv, ok := paths[path]
	if !ok {
		return nil, fmt.Errorf("unknown openapi v3 path %q", path)
	}
	return parseOpenAPIDocument(gv)
}

func parseOpenAPIDocument(gv openapi.GroupVersion) (*cedarschema.OpenAPIDocument, error) {
	raw, err := gv.Schema("application/json")
	if err != nil {
		return nil, fmt.Errorf("fetching openapi v3 document: %w", err)
	}

	var parsed spec3.OpenAPI
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing openapi v3 document: %w", err)
	}

	schemas := map[string]*kubeopenapispec.Schema{}
	if parsed.Components != nil {
		schemas = parsed.Components.Schemas
	}
	return &cedarschema.OpenAPIDocument{Schemas: schemas}, nil
}

func (f *discoveryFetcher) Resources(group, version string) (cedarschema.GroupVersionResources, error) {
	groupVersion := version
	if group != "" {
		groupVersion = group + "/" + version
	}

	list, err := f.client.ServerResourcesForGroupVersion(groupVersion)
	if err != nil {
		return cedarschema.GroupVersionResources{}, fmt.Errorf("listing resources for %q: %w", groupVersion, err)
	}

	kinds := map[string]cedarschema.VerbSet{}
	for _, r := range list.APIResources {
		verbs := kinds[r.Kind]
		if verbs == nil {
			verbs = cedarschema.VerbSet{}
			kinds[r.Kind] = verbs
		}
		for _, v := range r.Verbs {
			verbs[v] = true
		}
	}

	return cedarschema.GroupVersionResources{Group: group, Version: version, Kinds: kinds}, nil
}
