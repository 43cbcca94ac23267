package common

// AuthHeaderName is the HTTP header used to carry the PocketBase auth token
// on outbound requests.
const AuthHeaderName = "Authorization"
