// Package throttle provides an in-memory cooldown per key.
//
// The account service uses it to send at most one password reset email per
// address per auth.reset_cooldown. State is per process and lost on restart.
package throttle
