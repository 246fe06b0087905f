// Package beacon registers range-scanners into a single global frame.
//
// Each scanner reports beacon positions in its own unrotated local frame.
// Two scanners are aligned when one of the 24 axis-aligned rotations plus
// an integer translation makes at least MinOverlap of their beacons
// coincide. Starting from one origin scanner, the Engine propagates these
// alignments until every scanner has an absolute position.
package beacon
