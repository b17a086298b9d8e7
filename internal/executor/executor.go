package executor

import "github.com/roach88/aiden/internal/environment"

// ForEnvironment returns the executor for env.
//
// Candidates always run locally. The environment type is exported to them as
// AIDEN_ENV, and a dagster environment also exports DAGSTER_URL so generated
// code can target the deployment it will be promoted to.
func ForEnvironment(env environment.Environment, opts ...LocalOption) Executor {
	vars := []string{environment.EnvType + "=" + string(env.Type)}
	if env.IsDagster() {
		vars = append(vars, environment.EnvURL+"="+env.URL)
	}
	return NewLocal(append(opts, WithEnv(vars...))...)
}
