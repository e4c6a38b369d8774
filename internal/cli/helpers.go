package cli

import (
	"fmt"
	"strings"

	"github.com/salesdeck/insight-console/internal/kind"
)

func parseAndValidateKindId(arg string) (kind.Kind, string, error) {
	name, id, _ := strings.Cut(arg, "/")
	k, ok := kind.Lookup(singular(name))
	if !ok {
		return kind.Kind{}, "", fmt.Errorf("invalid resource kind: %s. Must be one of %s", name, strings.Join(kind.Names(), ", "))
	}
	return k, id, nil
}

func singular(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), "s")
}

func plural(k kind.Kind) string {
	return k.Name + "s"
}
