package utils

import (
	"os"
	"testing"
)

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	path, err := ExpandPath("~/test")
	if err != nil {
		t.Fatalf("Erro ao expandir caminho: %v", err)
	}
	if path != homeDir+"/test" {
		t.Errorf("Caminho expandido incorretamente: %s", path)
	}
}

func TestExpandPathNoTilde(t *testing.T) {
	path, err := ExpandPath("/etc/kbhookdrc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/etc/kbhookdrc" {
		t.Errorf("expected path unchanged, got %s", path)
	}
}
