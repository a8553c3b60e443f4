// Package mock is used to generate mock files for testing.
package mock

//go:generate mockgen -source ../client_iface.go -destination mock_oidcrp/mock_client_iface.go
//go:generate mockgen -source ../session/postgres/postgres_iface.go -destination mock_postgres/mock_postgres_iface.go
