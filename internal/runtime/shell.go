package runtime

import (
	"io"
	"os/exec"
	goruntime "runtime"
)

// systemShell runs commands through the platform shell. Output streams are
// relayed directly so the spawned process interleaves with interpreter
// output in real time.
type systemShell struct{}

// NewSystemShell returns the default OS command collaborator.
func NewSystemShell() ShellRunner {
	return systemShell{}
}

func (systemShell) Run(command string, stdout, stderr io.Writer) (int, error) {
	var cmd *exec.Cmd
	if goruntime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", command)
	} else {
		cmd = exec.Command("/bin/sh", "-c", command)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
