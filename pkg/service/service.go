// Package service manages the lanternd systemd user service unit.
package service

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const unitName = "lanternd.service"

// UnitContents returns the systemd unit file contents. A non-empty
// configPath is baked into ExecStart so the service reads the same
// config the operator installed from.
func UnitContents(binaryPath, configPath string) string {
	execStart := binaryPath
	if configPath != "" {
		execStart += " --config " + configPath
	}
	return fmt.Sprintf(`[Unit]
Description=Lantern log gateway
Documentation=https://github.com/lanternhq/lantern

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, execStart)
}

// UnitPath returns the path to the systemd user unit file.
func UnitPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user", unitName), nil
}

// Install writes the unit file, reloads systemd, and enables+starts the
// service. configPath, when non-empty, must name an existing config
// file; it is resolved to an absolute path since the service does not
// run from the install directory.
func Install(configPath string) error {
	binaryPath, err := exec.LookPath("lanternd")
	if err != nil {
		return fmt.Errorf("lanternd not found in PATH: %w", err)
	}
	binaryPath, err = filepath.Abs(binaryPath)
	if err != nil {
		return fmt.Errorf("cannot resolve lanternd path: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		configPath, err = filepath.Abs(configPath)
		if err != nil {
			return fmt.Errorf("cannot resolve config path: %w", err)
		}
	}

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(unitPath), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	contents := UnitContents(binaryPath, configPath)
	if err := os.WriteFile(unitPath, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("cannot write unit file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	if err := systemctl("enable", "--now", unitName); err != nil {
		return err
	}
	return nil
}

// Uninstall stops+disables the service, removes the unit file, and reloads systemd.
func Uninstall() error {
	// Best-effort stop and disable; ignore errors if not running.
	_ = systemctl("stop", unitName)
	_ = systemctl("disable", unitName)

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}

	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove unit file: %w", err)
	}

	return systemctl("daemon-reload")
}

// Status returns a human-readable status string for the gateway at the
// given listen address.
func Status(listenAddr string) string {
	var lines []string

	// Listener check
	conn, err := net.DialTimeout("tcp", listenAddr, time.Second)
	if err == nil {
		conn.Close()
		lines = append(lines, "gateway: listening ("+listenAddr+")")
	} else {
		lines = append(lines, "gateway: not listening ("+listenAddr+")")
	}

	// Systemd unit check
	unitPath, err := UnitPath()
	if err == nil {
		if _, statErr := os.Stat(unitPath); statErr == nil {
			out, runErr := exec.Command("systemctl", "--user", "is-active", unitName).Output()
			state := strings.TrimSpace(string(out))
			if runErr != nil && state == "" {
				state = "unknown"
			}
			lines = append(lines, "systemd user service: "+state)
		} else {
			lines = append(lines, "systemd user service: not installed")
		}
	}

	return strings.Join(lines, "\n")
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl --user %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
