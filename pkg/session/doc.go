/*
Package session serialises access to conversations.

A conversation turn is a read-modify-write cycle: load the history and pending resume
token, run or resume the workflow, save the result. The Manager guards each
conversation with a reference-counted local mutex and, optionally, a distributed lock
so that concurrent turns on different replicas cannot interleave.
*/
package session
