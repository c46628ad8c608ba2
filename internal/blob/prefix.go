package blob

import "context"

type prefixed struct {
	store     Store
	namespace string
}

// Prefixed scopes every key of s under namespace, as "<namespace>:<key>".
func Prefixed(s Store, namespace string) Store {
	return &prefixed{store: s, namespace: namespace}
}

func (p *prefixed) key(k string) string {
	return p.namespace + ":" + k
}

func (p *prefixed) Read(ctx context.Context, key string) (string, error) {
	return p.store.Read(ctx, p.key(key))
}

func (p *prefixed) Write(ctx context.Context, key, value string) error {
	return p.store.Write(ctx, p.key(key), value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, p.key(key))
}
