// Package cli provides the interactive OpenFlag command-line client.
//
// It wires configuration and the HTTP API client into a REPL. Reading flags
// and registering work anonymously; changing flags needs a login.
//
// Commands:
//   - list, check <name>
//   - create <name> <true|false> [description]
//   - rename <name> <new name> [description]
//   - toggle <name>, remove <name>
//   - register, login, logout, whoami, users
//   - snapshot (export on the server, then download into ./snapshots)
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
