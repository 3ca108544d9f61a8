// Package api defines the request and response messages of the Debt Control
// RPC services. Messages are plain structs encoded as JSON on the wire; see
// package apiconnect for the service definitions.
package api
