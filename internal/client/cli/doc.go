// Package cli provides the weddingkeeper command-line client.
//
// It wires configuration, local storage and the API-backed services into
// cobra commands:
//   - import: scan an existing wedding website and show what was found
//   - chat: talk to the wedding assistant as a guest, registering on first use
//   - forget: drop the guest remembered for a wedding
//   - theme: switch between dark and light output
//
// NewRootCmd returns the command tree; cmd/weddingkeeper runs it through fang.
package cli
