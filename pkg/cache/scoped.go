package cache

// ScopedKeyer wraps a Keyer with a prefix, isolating cache namespaces when
// one backend serves several levels roots or several users of the HTTP
// API.
//
//	userKeyer := cache.NewScopedKeyer(nil, "user:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every generated
// key. A nil inner keyer defaults to [NewDefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ScanKey generates a prefixed scan summary key.
func (k *ScopedKeyer) ScanKey(levelDir, signature string) string {
	return k.prefix + k.inner.ScanKey(levelDir, signature)
}
