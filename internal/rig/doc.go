// Package rig drives the transceiver over its textual CCDI command protocol.
//
// The package splits into a pure codec (framing and checksums, no I/O) and a
// controller that owns the single serial or network transport. The radio
// silently drops any command whose checksum does not match, so the codec is
// the correctness anchor for the whole probe pipeline and is tested against
// literal frames from the vendor protocol documentation.
package rig
