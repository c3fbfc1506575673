// Package similarity ranks stored report image embeddings against a query
// embedding by cosine similarity.
//
// The Engine is a brute-force scan. Mismatched vector lengths are reported per
// member through Result.Errors and never abort the scan.
package similarity
