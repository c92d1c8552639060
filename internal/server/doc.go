// Package server assembles and runs fitlife-api.
//
// New opens the SQLite store and builds everything on top of it: the bcrypt
// hasher, the JWT issuer, the mailer, the account and activity services and
// the HTTP handler from package api.
//
// Run serves HTTP on server.http_addr, or on the tailnet when tailscale is
// enabled. When server.grpc_addr is set a gRPC server exposing the standard
// grpc.health.v1 service runs alongside it; its status follows a periodic
// ping of the database.
//
// Shutdown stops HTTP first, then gRPC and tsnet, and closes the store last.
package server
