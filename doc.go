// Package cantype provides CAN bus frame types, identifier handling for
// CAN 2.0A, CAN 2.0B and SAE J1939, and a channel based device abstraction
// for talking to CAN hardware.
//
// Higher level protocols live in subpackages: isotp implements the
// ISO 15765-2 transport layer and j1939 the J1939 identifier and message
// model. Concrete bus adapters (slcan, socketcan, loopback) live in the
// adapter package.
package cantype
