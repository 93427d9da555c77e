/*
Package gateway talks to the backend tool services: fetch, time and filesystem.

Every client implements ports.Tool. A call builds a JSON request, POSTs it to
one or more candidate endpoints with a per-attempt timeout and normalizes the
response into a domain.ToolResult. Network failures never escape as panics or
Go errors: they are logged and returned as a *domain.ToolError inside the
result.

Clients that know several endpoint shapes for the same operation walk them in
order with TryCandidates; the first HTTP 200 wins.
*/
package gateway
