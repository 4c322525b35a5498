/*
 * kbhookd - macOS keyboard hotkey dispatcher
 * License: MIT
 */
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expande o caractere ~ no início de um caminho para o diretório home do usuário.
// Se o caminho não começar com ~, ele é retornado sem modificações.
// A função não suporta a expansão de ~username, retornando um erro nesse caso.
func ExpandPath(path string) (string, error) {
	// Verifica se o caminho começa com ~
	if strings.HasPrefix(path, "~") {
		// Obtém o diretório home do usuário
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("não foi possível obter o diretório home: %w", err)
		}

		// Se o caminho for apenas ~, retorna o diretório home
		if len(path) == 1 {
			return home, nil
		}

		// Verifica se o segundo caractere é um separador de diretório.
		if path[1] == '/' || path[1] == filepath.Separator {
			// Constrói o caminho completo a partir do diretório home
			path = filepath.Join(home, path[2:])
		} else {
			// Expansão de ~username não é suportada
			return "", fmt.Errorf("expansão de ~username não é suportada, apenas ~ para o diretório home do usuário atual")
		}
	}

	// Retorna o caminho original se não começar com ~
	return path, nil
}
