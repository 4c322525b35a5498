// Package service wraps launchd's CLI (launchctl) so kbhookd's
// --install-service/--uninstall-service/--start-service/--stop-service/
// --restart-service/--status flags have something to drive (spec.md §6,
// §1's out-of-scope-but-contracted CLI surface). The
// interface-over-os/exec shape follows the teacher's
// utils.CommandExecutor/OSCommandExecutor split so launchctl calls are
// mockable in tests.
package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/kbhookd/kbhookd/internal/pidfile"
	"github.com/kbhookd/kbhookd/utils"
)

// Label is the launchd job label kbhookd registers itself under.
const Label = "com.kbhookd.agent"

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.Executable}}</string>
		<string>--config</string>
		<string>{{.ConfigPath}}</string>
		<string>--reload</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.LogPath}}</string>
	<key>StandardErrorPath</key>
	<string>{{.LogPath}}</string>
</dict>
</plist>
`

// Manager drives launchctl and the on-disk LaunchAgent plist.
type Manager struct {
	exec       utils.CommandExecutor
	plistPath  string
	pidPath    string
	configPath string
	logPath    string
}

// New builds a Manager rooted at home (typically the user's home
// directory, for the LaunchAgents directory only — the PID and log
// files live under the system temp directory per internal/pidfile),
// targeting configPath as the dispatcher's config file.
func New(home, configPath string) *Manager {
	agentsDir := filepath.Join(home, "Library", "LaunchAgents")
	return &Manager{
		exec:       utils.NewOSCommandExecutor(),
		plistPath:  filepath.Join(agentsDir, Label+".plist"),
		pidPath:    pidfile.Path(),
		configPath: configPath,
		logPath:    pidfile.LogPath(),
	}
}

// Install writes the LaunchAgent plist and loads it via launchctl.
func (m *Manager) Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("service: resolving executable path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.plistPath), 0o755); err != nil {
		return fmt.Errorf("service: creating LaunchAgents directory: %w", err)
	}

	tmpl, err := template.New("plist").Parse(plistTemplate)
	if err != nil {
		return fmt.Errorf("service: parsing plist template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Label, Executable, ConfigPath, LogPath string
	}{Label, exe, m.configPath, m.logPath})
	if err != nil {
		return fmt.Errorf("service: rendering plist: %w", err)
	}
	if err := os.WriteFile(m.plistPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("service: writing plist: %w", err)
	}

	return m.exec.Run("launchctl", "load", "-w", m.plistPath)
}

// Uninstall unloads the LaunchAgent and removes its plist.
func (m *Manager) Uninstall() error {
	_ = m.exec.Run("launchctl", "unload", "-w", m.plistPath)
	if err := os.Remove(m.plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("service: removing plist: %w", err)
	}
	return nil
}

// Start loads (starts) the LaunchAgent job.
func (m *Manager) Start() error {
	return m.exec.Run("launchctl", "load", "-w", m.plistPath)
}

// Stop unloads (stops) the LaunchAgent job.
func (m *Manager) Stop() error {
	return m.exec.Run("launchctl", "unload", "-w", m.plistPath)
}

// Restart stops then starts the job.
func (m *Manager) Restart() error {
	if err := m.Stop(); err != nil {
		return err
	}
	return m.Start()
}

// Status reports whether the LaunchAgent plist is installed and
// whether its PID file shows a live process.
type Status struct {
	PlistInstalled bool
	PID            int
	Alive          bool
}

// Status inspects the current installation and process state.
func (m *Manager) Status() Status {
	var st Status
	if _, err := os.Stat(m.plistPath); err == nil {
		st.PlistInstalled = true
	}
	st.PID, st.Alive = pidfile.Running(m.pidPath)
	return st
}
