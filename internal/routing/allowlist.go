package routing

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Allowlist is the declared route table, one entry per binary.
type Allowlist struct {
	Version     int                   `yaml:"version"`
	Entrypoints map[string]Entrypoint `yaml:"entrypoints"`
}

type Entrypoint struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	RouteClass string   `yaml:"route_class"`
}

var knownRouteClasses = map[RouteClass]bool{
	RouteClassInternalAPI: true,
	RouteClassPublicAPI:   true,
	RouteClassWebhook:     true,
	RouteClassOps:         true,
	RouteClassDevOnly:     true,
}

// ParseAllowlistYAML decodes and checks an allowlist. Methods come back
// upper-cased.
func ParseAllowlistYAML(b []byte) (Allowlist, error) {
	var a Allowlist
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Allowlist{}, err
	}
	if a.Version != 1 {
		return Allowlist{}, errors.New("allowlist: unsupported version")
	}
	if a.Entrypoints == nil {
		return Allowlist{}, errors.New("allowlist: missing entrypoints")
	}
	for name, ep := range a.Entrypoints {
		seen := make(map[string]bool, len(ep.Routes))
		for i := range ep.Routes {
			r := &ep.Routes[i]
			if !strings.HasPrefix(r.Path, "/") {
				return Allowlist{}, fmt.Errorf("allowlist: %s: path %q must start with /", name, r.Path)
			}
			if seen[r.Path] {
				return Allowlist{}, fmt.Errorf("allowlist: %s: duplicate path %s", name, r.Path)
			}
			seen[r.Path] = true
			if !knownRouteClasses[RouteClass(r.RouteClass)] {
				return Allowlist{}, fmt.Errorf("allowlist: %s: unknown route_class %q for %s", name, r.RouteClass, r.Path)
			}
			for j, m := range r.Methods {
				r.Methods[j] = strings.ToUpper(strings.TrimSpace(m))
			}
		}
	}
	return a, nil
}

func LoadAllowlist(path string) (Allowlist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Allowlist{}, fmt.Errorf("allowlist: read %s: %w", path, err)
	}
	return ParseAllowlistYAML(b)
}
