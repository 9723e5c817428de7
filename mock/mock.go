// Package mock is used to generate mock files for testing.
package mock

//go:generate mockgen -source ../accounts/accounts.go -destination mock_accounts/mock_accounts_iface.go
