// Package mailbox abstracts the Winlink client and its mailbox directory.
//
// The canary never speaks the Winlink protocol itself. Sending and fetching
// go through the external pat binary; inbox and outbox inspection works
// directly on pat's maildir-style message files. The Gateway port keeps the
// orchestration logic testable without RF, a relay, or pat installed.
package mailbox
