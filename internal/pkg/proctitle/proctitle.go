// Package proctitle names the running process so it is easy to spot in ps and top.
package proctitle

import "strings"

const maxTitleLen = 15

// Title builds the process title for a server running in env.
// Production keeps the bare name; other envs get a suffix.
func Title(name, env string) string {
	name = strings.TrimSpace(name)
	env = strings.ToLower(strings.TrimSpace(env))
	if env != "" && env != "production" {
		name += "-" + env
	}
	if len(name) > maxTitleLen {
		name = name[:maxTitleLen]
	}
	return name
}
