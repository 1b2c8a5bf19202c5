package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Environment passed to extensions.
const (
	EnvConfig     = "FINS_CONFIG"
	EnvStorageDir = "FINS_STORAGE_DIR"
	EnvLogLevel   = "FINS_LOG_LEVEL"
)

// RunExtension attempts to find and execute an external fins-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "fins-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debug().Err(err).Str("extension", name).Msg("extension not found")
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = extensionEnv(os.Environ())

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv appends the global flags to env.
func extensionEnv(env []string) []string {
	env = append(env, EnvConfig+"="+*configPath)
	if *storageDir != "" {
		env = append(env, EnvStorageDir+"="+*storageDir)
	}
	if *logLevel != "" {
		env = append(env, EnvLogLevel+"="+*logLevel)
	}
	return env
}
