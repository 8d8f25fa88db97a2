// Package crypto verifies the detached Ed25519 signatures that prove an
// identity authored a registration, claim, vote or deletion request.
package crypto
