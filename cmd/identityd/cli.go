package main

import (
	"flag"
	"io"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	commandServe = "serve"
	commandLink  = "link"
)

// command is a parsed identityd invocation.
type command struct {
	name string

	// serve
	addr string

	// link
	provider        string
	files           []string
	allowUnverified bool
}

// parseCommand parses the command line after the program name.
//
//	identityd [serve] [-addr :8572]
//	identityd link [-allow-unverified] <google|github> [files...]
func parseCommand(args []string, output io.Writer) (command, error) {
	cmd := command{name: commandServe}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd.name = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("identityd "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(output)

	switch cmd.name {
	case commandServe:
		fs.StringVar(&cmd.addr, "addr", "", "listen address (default: IDENTITY_HTTP_ADDR)")
	case commandLink:
		fs.BoolVar(&cmd.allowUnverified, "allow-unverified", false, "accept provider emails that are not verified")
	default:
		return command{}, errors.New("unknown command "+cmd.name, errors.CategoryBadInput)
	}

	if err := fs.Parse(args); err != nil {
		return command{}, errors.Wrap(err, errors.CategoryBadInput, "invalid arguments")
	}
	rest := fs.Args()

	switch cmd.name {
	case commandServe:
		if len(rest) > 0 {
			return command{}, errors.New("serve takes no arguments", errors.CategoryBadInput)
		}
	case commandLink:
		if len(rest) == 0 {
			return command{}, errors.New("usage: identityd link [-allow-unverified] <google|github> [files...]", errors.CategoryBadInput)
		}
		cmd.provider = strings.ToLower(rest[0])
		cmd.files = rest[1:]
	}

	return cmd, nil
}
