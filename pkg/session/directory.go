package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ServiceDirectory enumerates and calls services on the IPC bus
type ServiceDirectory interface {
	// NameOwners returns every registered name mapped to the unique name
	// owning it. Unique names, and names that vanish while being resolved, map
	// to themselves.
	NameOwners(ctx context.Context) (map[string]string, error)

	// Call invokes method ("interface.Member") on the object at path
	Call(ctx context.Context, service, path, method string, args ...interface{}) error
}

// FindServices returns the names starting with prefix, sorted. Names are
// grouped by owner first and each owner is reported once, under its lowest
// matching name, so a process registered under several aliases is asked to quit
// only once.
func FindServices(ctx context.Context, dir ServiceDirectory, prefix string) ([]string, error) {
	owners, err := dir.NameOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}

	byOwner := make(map[string][]string)
	for name, owner := range owners {
		if owner == "" {
			owner = name
		}
		byOwner[owner] = append(byOwner[owner], name)
	}

	var matched []string
	for _, aliases := range byOwner {
		sort.Strings(aliases)
		for _, name := range aliases {
			if strings.HasPrefix(name, prefix) {
				matched = append(matched, name)
				break
			}
		}
	}

	sort.Strings(matched)
	return matched, nil
}
