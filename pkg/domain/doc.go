/*
Package domain contains the core types shared by every courier component.

It is kept free of I/O and external dependencies: the router, gateway, prompt
composer and session layer all speak in terms of these values.

# Key Entities

  - Message: one entry of a chat transcript (user or assistant).
  - Transcript: the persisted history of a session.
  - Intent: the handling path selected for an incoming message.
  - ToolRequest / ToolResult: the uniform contract between the orchestrator and
    the backend tool services.
  - ToolError: a typed tool failure, matchable with errors.Is.
*/
package domain
