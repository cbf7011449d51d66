package domain

// Grant type identifiers accepted on the token endpoint.
const (
	GrantTypeClientCredentials = "http://tech.ebu.ch/cpa/1.0/client_credentials"
	GrantTypeDeviceCode        = "http://tech.ebu.ch/cpa/1.0/device_code"
	GrantTypeAuthorizationCode = "http://tech.ebu.ch/cpa/1.0/authorization_code"
	GrantTypeRefreshToken      = "http://tech.ebu.ch/cpa/1.0/refresh_token"
)

// Response types accepted on the authorization endpoint.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// TokenRequest carries every field any grant may need. Each grant handler reads
// the subset it cares about.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	RefreshToken string `json:"refresh_token"`
	DeviceCode   string `json:"device_code"`
	Domain       string `json:"domain"`
	Scope        string `json:"scope"`
}

// TokenResponse is the successful body of the token endpoint
type TokenResponse struct {
	AccessToken       string `json:"access_token"`
	TokenType         string `json:"token_type"`
	ExpiresIn         int64  `json:"expires_in,omitempty"`
	RefreshToken      string `json:"refresh_token,omitempty"`
	Scope             string `json:"scope,omitempty"`
	Domain            string `json:"domain"`
	DomainDisplayName string `json:"domain_display_name,omitempty"`
}
