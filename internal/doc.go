// Package internal contains the core implementation packages for weave.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the weave server.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - types: shared data model (intents, instructions, component state)
//   - registry: component registry and event broadcasting system
//   - layout: deterministic position computation per layout key
//   - mapper: ordered intent rules merged into assembly instructions
//   - assembly: active component state machine and animation coordination
//   - animation: executors the assembly engine schedules and awaits
//   - protocol: JSON codec for instructions, snapshots, and intents
//   - server: HTTP surface, WebSocket hub, and the serialized apply worker
//   - ui: default renderable component capabilities
//   - config: configuration management with validation and security
//   - logging: structured logging built on log/slog
//   - errors: diagnostic collection for recoverable assembly conditions
//   - watcher: rule tuning file monitoring with debouncing
//
// # Design Principles
//
// All internal packages follow these design principles:
//
//   - Security by default with input validation and sanitization
//   - Concurrent safety with proper mutex usage and race protection
//   - Explicitly constructed, injected collaborators instead of globals
//   - Testability with comprehensive unit and property test coverage
//   - Observability with structured logging and a diagnostic side channel
package internal
