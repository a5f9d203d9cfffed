// Package driving defines the interfaces that external actors call INTO core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI, HTTP server, MCP server and TUI depend on these interfaces;
// core services implement them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
