// Package protocol owns the sensor packet wire contract.
//
// Wire layout:
//
//	[address:1][type_code:1][count:1][payload: count * width(type_code)]
//
// Ownership boundary:
// - header and payload decoding (Decoder.Decode, DecodeHex)
// - batch decoding (DecodeAll, DecodeAllCollect)
// - the inverse encoder and value-by-value Builder
// - the error taxonomy
//
// Nothing here performs I/O or keeps state between calls.
package protocol
