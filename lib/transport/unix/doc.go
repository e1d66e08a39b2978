// Package unix implements a connector that reaches the redis server through a unix
// domain socket. The host part of the redis URL is ignored; authentication and database
// selection from the URL still apply.
package unix
