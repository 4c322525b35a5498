/*
 * kbhookd - macOS keyboard hotkey dispatcher
 * License: MIT
 */
package utils

import (
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/kbhookd/kbhookd/version"
)

// GetEnvOrDefault retorna o valor da variável de ambiente ou um valor padrão se não estiver definida
func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// LogStartupInfo emits the daemon's build identity and host platform
// as a single structured log line at startup.
func LogStartupInfo(logger *zap.Logger) {
	v, commit, buildDate := version.GetBuildInfo()
	logger.Info("kbhookd starting",
		zap.String("version", v),
		zap.String("commit", commit),
		zap.String("buildDate", buildDate),
		zap.String("goVersion", runtime.Version()),
		zap.String("os", runtime.GOOS),
		zap.String("arch", runtime.GOARCH),
	)
}
