// Command trustlensd is the TrustLens API daemon.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/trustlens/trustlens/cmd/trustlensd/run"
)

// These variables are populated via the Go linker.
var (
	version = "unknown"
	commit  = "unknown"
	branch  = "unknown"
)

func main() {
	m := NewMain()
	if err := m.Run(os.Args[1:]...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program execution.
type Main struct {
	Logger *log.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{
		Logger: log.New(os.Stderr, "[run] ", log.LstdFlags),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run determines and runs the command specified by the CLI args.
func (m *Main) Run(args ...string) error {
	name, args := ParseCommandName(args)

	switch name {
	case "", "run":
		cmd := run.NewCommand()
		cmd.Version = version
		cmd.Commit = commit
		cmd.Branch = branch

		if err := cmd.Run(args...); err != nil {
			return fmt.Errorf("run: %s", err)
		}

		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
		m.Logger.Println("I! listening for signals")

		// Block until one of the signals above is received
		select {
		case <-signalCh:
			m.Logger.Println("I! signal received, initializing clean shutdown...")
			go func() {
				cmd.Close()
			}()
		}

		// Block again until another signal is received, a shutdown timeout
		// elapses, or the command is gracefully closed
		m.Logger.Println("I! waiting for clean shutdown...")
		select {
		case <-signalCh:
			m.Logger.Println("I! second signal received, initializing hard shutdown")
		case <-time.After(time.Second * 30):
			m.Logger.Println("I! time limit reached, initializing hard shutdown")
		case <-cmd.Closed:
			m.Logger.Println("I! server shutdown completed")
		}

	case "config":
		if err := run.NewPrintConfigCommand().Run(args...); err != nil {
			return fmt.Errorf("config: %s", err)
		}
	case "version":
		if err := NewVersionCommand().Run(args...); err != nil {
			return fmt.Errorf("version: %s", err)
		}
	case "help":
		if err := NewHelpCommand().Run(args...); err != nil {
			return fmt.Errorf("help: %s", err)
		}
	default:
		return fmt.Errorf(`unknown command "%s"`+"\n"+`Run 'trustlensd help' for usage`+"\n\n", name)
	}

	return nil
}

// ParseCommandName extracts the command name and args from the args list.
func ParseCommandName(args []string) (string, []string) {
	// Retrieve command name as first argument.
	var name string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name = args[0]
	}

	// Special case -h immediately following binary name
	if len(args) > 0 && args[0] == "-h" {
		name = "help"
	}

	// If command is "help" and has an argument then rewrite args to use "-h".
	if name == "help" && len(args) > 1 {
		args[0], args[1] = args[1], "-h"
		name = args[0]
	}

	// If a named command is specified then return it with its arguments.
	if name != "" {
		return name, args[1:]
	}
	return "", args
}

// VersionCommand represents the command executed by "trustlensd version".
type VersionCommand struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewVersionCommand returns a new instance of VersionCommand.
func NewVersionCommand() *VersionCommand {
	return &VersionCommand{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run prints the current version and commit info.
func (cmd *VersionCommand) Run(args ...string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(cmd.Stderr, versionUsage) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Stdout, "TrustLens v%s (git: %s %s)\n", version, branch, commit)
	return nil
}

const versionUsage = `usage: version

	version displays the TrustLens version, build branch and git commit hash
`

// HelpCommand displays help for command-line sub-commands.
type HelpCommand struct {
	Stdout io.Writer
}

// NewHelpCommand returns a new instance of HelpCommand.
func NewHelpCommand() *HelpCommand {
	return &HelpCommand{
		Stdout: os.Stdout,
	}
}

// Run executes the command.
func (cmd *HelpCommand) Run(args ...string) error {
	fmt.Fprintln(cmd.Stdout, strings.TrimSpace(helpUsage))
	return nil
}

const helpUsage = `
Configure and start the TrustLens API server.

Usage: trustlensd [[command] [arguments]]

The commands are:

    config               display the default configuration
    help                 display this help message
    run                  run the server with existing configuration
    version              displays the TrustLens version

"run" is the default command.

Use "trustlensd [command] -help" for more information about a command.
`
