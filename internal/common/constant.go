package common

// AuthorizationHeaderName carries the session token on REST requests and as
// gRPC metadata key (lower-cased by grpc).
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// MaxListingImages caps the number of images attached to one listing.
const MaxListingImages = 10
