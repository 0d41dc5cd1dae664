// Package harness runs tutorial notebooks end to end and checks that each
// one executes to completion.
//
// A run moves through these stages in order:
//
//	locate -> inject -> stage -> check -> verify -> regenerate -> cleanup
//
// The notebook on disk is never modified except by regenerate, which only
// runs when it was requested and verification succeeded.
package harness
