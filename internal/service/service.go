// Package service registers pokeme with the host service manager (systemd
// user units, launchd agents, Windows services) through kardianos/service.
package service

import (
	"errors"
	"fmt"
	"os"

	"github.com/kardianos/service"
)

const (
	Name        = "pokeme"
	DisplayName = "Poke Me"
	Description = "Recurring desktop notification scheduler"
)

// Action names accepted by Control.
const (
	ActionInstall   = "install"
	ActionUninstall = "uninstall"
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionRestart   = "restart"
)

// Options describes the unit to register.
type Options struct {
	// Executable defaults to the running binary.
	Executable string
	// ConfigPath is passed to the daemon with --config when set.
	ConfigPath string
	// User installs a per-user unit. Desktop notifications need the user's
	// session bus, so this is the default in the CLI.
	User bool
}

// program satisfies service.Interface. The unit runs `pokeme service`
// directly, so the manager-side hooks have nothing to do.
type program struct{}

func (program) Start(service.Service) error { return nil }
func (program) Stop(service.Service) error  { return nil }

// Config builds the kardianos configuration for opts.
func Config(opts Options) (*service.Config, error) {
	exe := opts.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("service: locate executable: %w", err)
		}
	}

	args := []string{"service"}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}

	cfg := &service.Config{
		Name:        Name,
		DisplayName: DisplayName,
		Description: Description,
		Executable:  exe,
		Arguments:   args,
		Option: service.KeyValue{
			"UserService": opts.User,
			"Restart":     "on-failure",
		},
	}
	return cfg, nil
}

// New returns the platform service handle.
func New(opts Options) (service.Service, error) {
	cfg, err := Config(opts)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(program{}, cfg)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return svc, nil
}

// Control runs one of the Action* operations.
func Control(svc service.Service, action string) error {
	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("service: %s: %w", action, err)
	}
	return nil
}

// Status reports the service manager's view as a word.
func Status(svc service.Service) (string, error) {
	st, err := svc.Status()
	if errors.Is(err, service.ErrNotInstalled) {
		return "not installed", nil
	}
	if err != nil {
		return "", fmt.Errorf("service: status: %w", err)
	}
	switch st {
	case service.StatusRunning:
		return "running", nil
	case service.StatusStopped:
		return "stopped", nil
	default:
		return "unknown", nil
	}
}
