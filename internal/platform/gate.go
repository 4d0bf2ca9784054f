package platform

import (
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// HostGate verifies the host is ready to mutate a disk: the process runs
// with root privileges and every required external tool is installed. It is
// checked once, before the first action of an apply run.
type HostGate struct {
	// Tools that must be resolvable on PATH, e.g. parted, dd, wimapply,
	// efibootmgr.
	RequiredTools []string

	// geteuid is swapped out by tests.
	geteuid func() int
}

func NewHostGate(tools ...string) *HostGate {
	return &HostGate{RequiredTools: tools, geteuid: unix.Geteuid}
}

func (g *HostGate) Check() error {
	geteuid := g.geteuid
	if geteuid == nil {
		geteuid = unix.Geteuid
	}
	if geteuid() != 0 {
		return fmt.Errorf("provisioning requires root privileges (euid %d)", geteuid())
	}

	var missing []string
	for _, tool := range g.RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not installed: %s", strings.Join(missing, ", "))
	}

	return nil
}
