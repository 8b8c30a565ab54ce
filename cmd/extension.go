package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// extensionPrefix names the executables found in PATH that extend mcache:
// "mcache foo" runs "mcache-foo" when foo is not a built-in command.
const extensionPrefix = "mcache-"

// extensionEnv returns the environment of an extension: the current one plus
// the global flags, so that the extension opens the same cache.
func extensionEnv() []string {
	env := append(os.Environ(),
		EnvConfigFile+"="+*configPath,
		EnvVerbose+"="+strconv.FormatBool(*Verbose),
	)
	if *apiKeyFlag != "" {
		env = append(env, eodhdAPIKey+"="+*apiKeyFlag)
	}
	return env
}

// RunExtension runs the mcache-<subcommand> executable with args. It reports
// whether the executable was found, and its exit code.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := extensionPrefix + subcommand
	path, err := exec.LookPath(name)
	if err != nil {
		slog.Debug("no extension", slog.String("command", name), slog.Any("error", err))
		return false, 0
	}

	ext := exec.Command(path, args...)
	ext.Stdin, ext.Stdout, ext.Stderr = os.Stdin, os.Stdout, os.Stderr
	ext.Env = extensionEnv()

	err = ext.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true, 0
	case errors.As(err, &exitErr):
		return true, exitErr.ExitCode()
	default:
		fmt.Fprintf(os.Stderr, "Error executing extension %q: %v\n", name, err)
		return true, 1
	}
}
