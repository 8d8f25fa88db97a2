// Package reputation derives an identity's reputation from its voting history.
//
// The value is a pure function of the identity's votes on finalized claims
// and its permanent penalties. Engine
// memoizes that value in the store's reputation cache and turns it into a
// vote weight.
package reputation
