// Package errors gives multilink's failures stable codes and readable
// explanations for the command line.
//
// Codes are grouped by range:
//   - L0xx: link negotiation and transmission
//   - L1xx: session synchronisation
//   - L2xx: configuration
//
// Library packages return plain sentinel errors; the command converts
// them at the edge:
//
//	if err := tr.Err(); err != nil {
//	    errors.PrintError(errors.FromLink(err).WithField("peer", addr))
//	}
//
//	// ERROR L001: Peer never entered multi-player mode
//	//
//	//   peer  192.168.1.20:7420
//	//
//	//   Both ends must open the port before the negotiation timeout.
//	//   ...
//	//
//	//   Hint: Start the other end, or raise link.negotiate_timeout.
package errors
