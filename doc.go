// Package main provides the entry point for the GoUserDesk account
// administration service. It runs a web server using the Fiber framework
// that authenticates users, gates pages by role, and exposes a callable
// JSON API for administrators to list, update, and delete user accounts
// and to broadcast emails with attachments. Accounts and profile
// documents are persisted with gorm.
package main
