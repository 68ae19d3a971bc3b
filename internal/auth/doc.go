// Package auth locates the externally supplied gateway credential and
// inspects JWT-shaped tokens for obvious problems before dialing.
package auth
