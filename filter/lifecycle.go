package filter

// InitAll initializes items in order. If one fails, the items initialized
// before it are destroyed in order, ignoring their errors, and the init
// error is returned unchanged.
func InitAll[T Lifecycle](cfg Config, items []T) error {
	for i, it := range items {
		if err := it.Init(cfg); err != nil {
			DestroyAll(items[:i])
			return err
		}
	}
	return nil
}

// DestroyAll destroys every item in order, even after a failure, and
// returns the first error.
func DestroyAll[T Lifecycle](items []T) error {
	return destroyEach(items, nil)
}

// destroyEach is DestroyAll with a hook for the errors it does not return.
func destroyEach[T Lifecycle](items []T, suppressed func(i int, err error)) error {
	var first error
	for i, it := range items {
		err := it.Destroy()
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		} else if suppressed != nil {
			suppressed(i, err)
		}
	}
	return first
}
