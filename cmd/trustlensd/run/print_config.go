package run

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/trustlens/trustlens/server"
)

// PrintConfigCommand represents the command executed by "trustlensd config".
type PrintConfigCommand struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewPrintConfigCommand returns a new instance of PrintConfigCommand.
func NewPrintConfigCommand() *PrintConfigCommand {
	return &PrintConfigCommand{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run prints the default config to stdout, with any config file and
// environment overrides applied.
func (cmd *PrintConfigCommand) Run(args ...string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", "", "")
	fs.Usage = func() { fmt.Fprint(cmd.Stderr, printConfigUsage) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	config := server.NewConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, config); err != nil {
			return err
		}
	}
	if err := config.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("apply env config: %v", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("validate config: %s", err)
	}

	return toml.NewEncoder(cmd.Stdout).Encode(config)
}

const printConfigUsage = `usage: config

	config displays the default configuration

        -config <path>
                          Set the path to the configuration file.
`
