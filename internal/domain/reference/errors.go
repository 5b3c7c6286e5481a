package reference

// ErrNotFound indicates a reference that is not configured
type ErrNotFound struct {
	Kind string
	Key  string
}

func (e ErrNotFound) Error() string {
	return e.Kind + " not found: " + e.Key
}

// Is matches any ErrNotFound when the target carries no kind
func (e ErrNotFound) Is(target error) bool {
	t, ok := target.(ErrNotFound)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return true
	}
	return e.Kind == t.Kind && (t.Key == "" || e.Key == t.Key)
}
