package process

import (
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// resolveExecutable implements the spawn protocol's step 1: an absolute path
// or one containing a path separator is used as-is, otherwise it is
// resolved against PATH.
func resolveExecutable(command string) (string, error) {
	if command == "" {
		return "", ErrExecutableNotFound
	}
	if filepath.IsAbs(command) || strings.ContainsRune(command, filepath.Separator) {
		return command, nil
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		return "", ErrExecutableNotFound
	}
	return resolved, nil
}

// buildCmd resolves the executable and constructs the *exec.Cmd used to
// spawn it. It never touches the caller's own environment: env is exactly
// the slice passed in; inherit_env is an opt-in handled by the caller via
// BuildEnv, not here.
func buildCmd(def Definition, env []string) (*exec.Cmd, error) {
	resolved, err := resolveExecutable(def.Command)
	if err != nil {
		return nil, err
	}
	// #nosec G204 -- args come from a locally-loaded, operator-authored definition.
	cmd := exec.Command(resolved, def.Args...)
	cmd.Env = env
	if def.Cwd != "" {
		cmd.Dir = def.Cwd
	}
	setSysProcAttr(cmd)
	return cmd, nil
}

// buildStopCmd constructs the sibling command used to request shutdown when
// a definition sets stop_command, substituting the {pid} sentinel token.
func buildStopCmd(def Definition, env []string, pid int) (*exec.Cmd, error) {
	resolved, err := resolveExecutable(def.StopCommand)
	if err != nil {
		return nil, err
	}
	args := make([]string, len(def.StopArgs))
	pidStr := strconv.Itoa(pid)
	for i, a := range def.StopArgs {
		args[i] = strings.ReplaceAll(a, "{pid}", pidStr)
	}
	// #nosec G204 -- stop_command/stop_args come from the same trusted definition as command/args.
	cmd := exec.Command(resolved, args...)
	cmd.Env = env
	if def.Cwd != "" {
		cmd.Dir = def.Cwd
	}
	return cmd, nil
}
