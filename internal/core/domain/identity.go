package domain

// Identity is the verified caller identity returned by the external auth
// provider. The user id is opaque to this service.
type Identity struct {
	UserID string
	Admin  bool
}
