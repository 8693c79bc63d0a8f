/*
Package session guards checkpointed sessions against concurrent writers.

The Manager wraps any ports.StateStore. Saves and loads of the same session
are serialized inside the process, and across processes when the backend
provides a SessionLocker (Redis).
*/
package session
