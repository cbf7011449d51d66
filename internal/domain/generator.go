package domain

// TokenGenerator produces the unguessable values handed out by the server.
type TokenGenerator interface {
	AuthorizationCode() (string, error)
	AccessToken() (string, error)
	RefreshToken() (string, error)
	DeviceCode() (string, error)
	UserCode() (string, error)
	ClientSecret() (string, error)
}
