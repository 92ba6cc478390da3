// Package memory provides process-local implementations of the account,
// credential and idempotency stores. Each store guards its maps with a single
// mutex, so every call is atomic. Used by STORAGE_DRIVER=memory and in tests;
// nothing survives a restart.
package memory
