/*
 * kbhookd - macOS keyboard hotkey dispatcher
 * License: MIT
 */
package utils

import (
	"os"
	"path/filepath"
)

// Definindo variáveis para as funções que queremos mockar
var osGetenv = os.Getenv

// GetUserShell retorna o nome base do shell do usuário atual ($SHELL),
// ou "bash" quando $SHELL não está definido.
func GetUserShell() string {
	shell := osGetenv("SHELL")
	if shell == "" {
		return "bash"
	}
	return filepath.Base(shell)
}

// GetHomeDir retorna o diretório home do usuário atual.
func GetHomeDir() (string, error) {
	return os.UserHomeDir()
}
