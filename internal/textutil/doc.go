// Package textutil provides text canonicalization for question
// de-duplication and filename sanitization for rendered artifacts.
//
// Duplicate detection is exact-match over a normalized form: NFKC
// normalization, case folding, and whitespace collapse. Near-duplicate
// (fuzzy) detection is deliberately out of scope.
package textutil
