// Package fingerprint derives a stable, non-secret device identifier from
// best-effort host signals and caches it for the life of the process session.
//
// The fingerprint is a fraud-resistance signal that accompanies the session
// token on every backend call; it is not an identity guarantee and never a
// security boundary by itself.
//
// # Failure policy
//
// Signal collection never aborts generation: any signal the [Source] cannot
// produce degrades to its zero value and the digest is computed over whatever
// was collected. Generate always returns a 64-character lowercase hex string.
package fingerprint
