// Package encoding implements the incomparable-encoding abstraction:
// map a message to an ordered sequence of Digests such that genuinely
// distinct messages produce sequences that are not partial-order
// comparable in the sense Definition 13 of the XMSS target-sum
// literature describes. The core OTS signing path (package ots) does
// not call into this package at runtime; it exists so future encoding
// schemes have a stable contract to implement against.
package encoding

import "github.com/wintersig/xmss-go/th"

// IncomparableEncoding is the contract every encoding realization
// implements.
type IncomparableEncoding interface {
	// Encode maps message to an ordered sequence of EncodingLength
	// Digests.
	Encode(message []byte) ([]th.Digest, error)

	// Decode folds an encoded sequence back into a single
	// representative Digest.
	Decode(encoded []th.Digest) th.Digest

	// VerifyIncomparability reports whether e1 and e2 are
	// incomparable under this encoding's order: neither dominates
	// the other in every position.
	VerifyIncomparability(e1, e2 []th.Digest) bool

	// EncodingLength returns the number of Digests Encode produces.
	EncodingLength() int
}
