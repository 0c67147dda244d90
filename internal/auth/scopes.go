package auth

const (
	ScopeOpenID      = "openid"
	ScopeProfile     = "profile"
	ScopeEmail       = "email"
	ScopeRecipesRead = "recipes:read"
	ScopeRecipesRun  = "recipes:run"
)

// AllScopes defines the full set of scopes used by API clients.
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeRecipesRead,
	ScopeRecipesRun,
}
