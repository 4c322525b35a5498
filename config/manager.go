/*
 * kbhookd - macOS keyboard hotkey dispatcher
 * License: MIT
 */
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// ConfigManager centraliza o acesso às configurações ambientais do
// daemon (tudo que não é a linguagem de hotkeys em si, que
// internal/langparser já resolve). A ordem de prioridade é: Flags
// (aplicado no main) > Variáveis de Ambiente > Arquivo .env > Padrões.
type ConfigManager struct {
	mu     sync.RWMutex
	values map[string]string
	logger *zap.Logger
}

// Global is the process-wide ConfigManager instance, set by main once
// at startup. Code below main reaches here instead of threading a
// *ConfigManager through every call.
var Global *ConfigManager

// New cria uma nova instância do ConfigManager.
func New(logger *zap.Logger) *ConfigManager {
	return &ConfigManager{
		values: make(map[string]string),
		logger: logger,
	}
}

// Load carrega as configurações de todas as fontes, em ordem de
// prioridade crescente (cada fonte sobrescreve a anterior).
func (cm *ConfigManager) Load() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.loadDefaults()
	cm.loadEnvFile()
	cm.loadEnvVars()
}

// Reload recarrega as configurações do arquivo .env e das variáveis de
// ambiente, usado pelo mesmo caminho de recarga out-of-band do
// dispatcher (SIGUSR1) caso o ambiente em volta também tenha mudado.
func (cm *ConfigManager) Reload(logger *zap.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.logger = logger
	cm.values = make(map[string]string)
	cm.loadDefaults()
	cm.loadEnvFile()
	cm.loadEnvVars()
	cm.logger.Info("configurações recarregadas")
}

func (cm *ConfigManager) loadDefaults() {
	cm.values["KBHOOKD_CONFIG"] = DefaultConfigPath
	cm.values["KBHOOKD_SHELL"] = DefaultShell
	cm.values["KBHOOKD_METRICS_ADDR"] = DefaultMetricsAddr
	cm.values["KBHOOKD_LOG_LEVEL"] = DefaultLogLevel
}

// loadEnvFile carrega configurações de um arquivo .env no diretório
// corrente, se presente. Não sobrepõe variáveis de ambiente já
// definidas no processo.
func (cm *ConfigManager) loadEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		cm.logger.Debug("arquivo .env não encontrado ou erro na leitura", zap.Error(err))
		return
	}
	for key, value := range envMap {
		cm.values[key] = value
	}
}

// loadEnvVars carrega configurações das variáveis de ambiente do
// sistema (maior prioridade entre as fontes automáticas).
func (cm *ConfigManager) loadEnvVars() {
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], "KBHOOKD_") {
			cm.values[pair[0]] = pair[1]
		}
	}
}

// Set injeta um valor, tipicamente vindo de uma flag de linha de
// comando (maior prioridade de todas).
func (cm *ConfigManager) Set(key, value string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.values[key] = value
}

// GetString retorna um valor de configuração como string.
func (cm *ConfigManager) GetString(key string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.values[key]
}

// GetBool retorna um valor de configuração como bool.
func (cm *ConfigManager) GetBool(key string, defaultValue bool) bool {
	valStr := cm.GetString(key)
	if valStr == "" {
		return defaultValue
	}
	if boolVal, err := strconv.ParseBool(valStr); err == nil {
		return boolVal
	}
	return defaultValue
}
