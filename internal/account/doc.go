// Package account implements FitLife's user flows on top of the store.
//
// Service covers registration, login, the password reset cycle and device
// unlinking. Every failure is an *Error whose Kind tells the HTTP layer which
// status to use and whose Message is safe to show to the user.
//
// # Device Binding
//
// An account may be tied to a single device id. The first login that
// supplies a device id claims it, unless another account already holds it.
// Afterwards only that device id is accepted until UnlinkDevice releases it.
// The claim is a single conditional UPDATE backed by a unique index, so two
// accounts racing for one device cannot both win.
//
// # Password Reset
//
// ForgotPassword stores a random token with an expiry and hands it to the
// configured mailer. It succeeds for unknown emails too. ResetPassword
// consumes the token in the same statement that replaces the hash.
package account
