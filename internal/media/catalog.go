package media

import "errors"

// Catalog lists the allow-listed videos that currently exist.
type Catalog struct {
	resolver *Resolver
	names    []string
}

// NewCatalog copies the allow-list.
func NewCatalog(resolver *Resolver, names []string) *Catalog {
	return &Catalog{resolver: resolver, names: append([]string(nil), names...)}
}

// Available returns the allow-listed names that resolve to regular files
// under the media root, in allow-list order. Files are re-checked on every call.
func (c *Catalog) Available() ([]string, error) {
	out := make([]string, 0, len(c.names))
	for _, name := range c.names {
		if _, err := c.resolver.Resolve(name); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}
