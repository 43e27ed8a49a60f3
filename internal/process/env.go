package process

import "github.com/nurvus/nurvus/internal/env"

// BuildEnv composes the slice passed to exec.Cmd.Env for def, applying
// global overrides on top of the definition's own env map. The agent's own
// process environment is included only when def.InheritEnv is set, which
// defaults to false: environment inheritance is opt-in, not automatic.
func BuildEnv(globals *env.Env, def Definition) []string {
	perProc := make([]string, 0, len(def.Env))
	for k, v := range def.Env {
		perProc = append(perProc, k+"="+v)
	}
	if globals == nil {
		globals = env.New()
	}
	return globals.Merge(perProc, def.InheritEnv)
}
