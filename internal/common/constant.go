package common

import "time"

// SessionCookieName is the default name of the cookie carrying the session token.
const SessionCookieName = "token"

// DefaultSessionValidity is how long an issued session token stays valid.
const DefaultSessionValidity = 7 * 24 * time.Hour

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8
