package common

// AuthorizationHeaderName is the HTTP header used to carry the API token on
// outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the API token in the Authorization header.
const BearerPrefix = "Bearer "

// PinLengths lists the accepted security-system user code lengths.
var PinLengths = []int{4, 5, 6}
