package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running strix instance",
	Long: `Stop sends SIGTERM to the strix process recorded in the pid file.
The pipeline drains, reporters flush and the process exits cleanly.`,
	Run: func(cmd *cobra.Command, args []string) {
		runStop()
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop() {
	pid, err := readPidFile()
	if err != nil {
		exitWithError("strix is not running", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		exitWithError("failed to find process", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		exitWithError(fmt.Sprintf("failed to signal pid %d", pid), err)
	}

	fmt.Printf("sent SIGTERM to strix (pid %d)\n", pid)
}

func readPidFile() (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", pidFile, err)
	}
	return pid, nil
}
