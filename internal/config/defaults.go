package config

import "time"

const (
	DefaultListen          = ":3000"
	DefaultAdminAddr       = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultLogDir returns the default audit log directory path.
func DefaultLogDir() string {
	return "~/.filtertools/logs"
}
