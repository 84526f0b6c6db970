// Package identity is the user feature: the "users" slice with the mask-name
// preference and the signed-in user, the login effect and a demo AuthAPI.
package identity
