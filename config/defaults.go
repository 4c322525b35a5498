package config

// Valores padrão para configuração do daemon
const (
	DefaultConfigPath  = "~/.kbhookdrc"
	DefaultShell       = "/bin/bash"
	DefaultMetricsAddr = "127.0.0.1:9420"
	DefaultLogLevel    = "info"
)
