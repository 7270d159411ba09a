package common

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = "User"

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"
