// Package storefront implements the identity and asset-consistency core of a
// storefront administration backend.
//
// Session protocol:
//   - TokenService mints and verifies self-contained HS256 session tokens.
//     Tokens carry a purpose tag so refresh tokens can never be replayed as
//     session tokens (and vice versa). Verification is a pure function of the
//     token and the shared signing key; no session table exists.
//
// Identity reconciliation:
//   - Reconciler merges a freshly verified identity-provider profile with the
//     stored user record. Identity fields (name, email) follow the provider;
//     an avatar the user uploaded themselves is never overwritten by the
//     provider's picture. Role is never touched by the login path.
//
// Authorization:
//   - Guard turns (claims, capability) into an allow/deny decision and is the
//     single gate every privileged handler runs before doing I/O. RoleManager
//     owns the only role mutation path and blocks admin self-revocation.
//
// Asset consistency lives in the assets subpackage: a coordinator sequences
// object-store writes against database writes and issues compensating deletes
// when the second half of the pair fails.
package storefront
