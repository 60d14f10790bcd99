package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const Name = "zzz.service"

const serviceTemplate = `
[Unit]
Description=zzz clipboard keeper
Documentation=https://github.com/labi-le/zzz

PartOf=graphical-session.target
After=graphical-session.target

ConditionEnvironment=WAYLAND_DISPLAY

[Service]
Type=simple
ExecStart=%s
Environment="PATH=%s"
Restart=on-failure
RestartSec=10

StandardOutput=journal
StandardError=journal

[Install]
WantedBy=graphical-session.target
`

// Unit renders the unit file that starts exe with args.
func Unit(exe string, args []string, envPath string) string {
	if strings.Contains(exe, " ") {
		exe = fmt.Sprintf(`"%s"`, exe)
	}
	cmdline := strings.Join(append([]string{exe}, args...), " ")
	return fmt.Sprintf(serviceTemplate, cmdline, envPath)
}

// InstallService writes a user unit running the current executable with
// args, then enables and restarts it.
func InstallService(args []string, logger zerolog.Logger) error {
	envPath := os.Getenv("PATH")
	if envPath == "" {
		return fmt.Errorf("critical env missing: PATH is empty. Cannot install service")
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to detect executable path: %w", err)
	}

	exePath, err = filepath.EvalSymlinks(exePath)
	if err != nil {
		return fmt.Errorf("failed to resolve symlinks: %w", err)
	}

	absPath, err := filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config dir: %w", err)
	}

	systemdDir := filepath.Join(configDir, "systemd", "user")
	serviceFile := filepath.Join(systemdDir, Name)

	logger.Info().Msg("try to delete the old service instance")
	_ = runSystemctl(logger, "disable", "--now", Name)

	if err := os.MkdirAll(systemdDir, 0755); err != nil {
		return fmt.Errorf("failed to create systemd directory: %w", err)
	}

	content := Unit(absPath, args, envPath)
	if err := os.WriteFile(serviceFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	logger.Info().Str("path", serviceFile).Msg("service file created")

	for _, step := range [][]string{
		{"daemon-reload"},
		{"enable", Name},
		{"restart", Name},
	} {
		if err := runSystemctl(logger, step...); err != nil {
			return err
		}
	}

	logger.Info().Msg("service installed and started successfully")
	return nil
}

func runSystemctl(logger zerolog.Logger, args ...string) error {
	logger.Debug().Strs("args", args).Msg("executing systemctl")

	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s failed: %w", strings.Join(args, " "), err)
	}
	return nil
}
