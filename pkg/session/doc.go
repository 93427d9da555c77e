/*
Package session serializes access to chat transcripts.

A Manager wraps a ports.TranscriptStore with per-session locks (reference
counted, so idle sessions cost nothing) and an optional distributed lock for
deployments with several replicas sharing one store. Turn runs a
load-modify-save cycle under that lock and only persists when the callback
succeeds, so a failed turn never leaves a half-written transcript behind.
*/
package session
