package main

import (
	"flag"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/launchdarkly/sandbox-contract-tests/client"
	"github.com/launchdarkly/sandbox-contract-tests/framework"

	"github.com/alessio/shellescape"
)

const defaultStatusQueryTimeout = time.Second * 10

type commandParams struct {
	serviceURL         string
	filters            framework.RegexFilters
	clientTimeout      time.Duration
	statusQueryTimeout time.Duration
	debug              bool
	debugAll           bool
}

func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.serviceURL, "url", "", "sandbox service base URL")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.DurationVar(&c.clientTimeout, "timeout", client.DefaultTimeout, "timeout for each request to the service")
	fs.DurationVar(&c.statusQueryTimeout, "status-timeout", defaultStatusQueryTimeout, "how long to wait for the service to become healthy")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if c.serviceURL == "" {
		fmt.Fprintln(errOut, "-url is required")
		fs.Usage()
		return false
	}
	return true
}

// rerunCommand builds a command line that repeats this run for just the failed tests.
func (c *commandParams) rerunCommand(program string, failures []framework.TestResult) string {
	var b commandBuilder
	b.add(program, "-url", c.serviceURL)
	// A subtest only runs if its parent groups do, so each ancestor gets an exact pattern too.
	seen := make(map[string]bool)
	for _, f := range failures {
		for i := 1; i <= len(f.TestID.Path); i++ {
			name := framework.TestID{Path: f.TestID.Path[:i]}.String()
			if !seen[name] {
				seen[name] = true
				b.add("-run", "^"+regexp.QuoteMeta(name)+"$")
			}
		}
	}
	if c.clientTimeout != client.DefaultTimeout {
		b.add("-timeout", c.clientTimeout.String())
	}
	b.add("-debug")
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
