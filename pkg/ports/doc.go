/*
Package ports defines the driven ports (interfaces) of courier.

These interfaces decouple the orchestration core from concrete backends, so the
same engine can run against the live tool services, httptest fakes or the
in-memory and redis transcript stores.

# Key Interfaces

  - Tool: a backend capability invoked through the uniform ToolRequest/ToolResult contract.
  - Completer: a generative model answering a single prompt.
  - TranscriptStore: persistence for session transcripts.
  - DistributedLocker: distributed locking for concurrent access to one session.
*/
package ports
