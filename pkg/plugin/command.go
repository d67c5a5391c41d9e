package plugin

import "os/exec"

func pluginCommand(path string) *exec.Cmd {
	return exec.Command(path)
}
