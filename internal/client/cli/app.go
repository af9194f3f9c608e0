package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/cyberguard/internal/buildinfo"
	"github.com/dmitrijs2005/cyberguard/internal/common"
	"github.com/dmitrijs2005/cyberguard/internal/server/passwords"
)

const usage = `Usage: cli <command> [flags]

Commands:
  check      rate the strength of a password
  generate   print a random password
  version    print build information
`

type App struct {
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
	fd     int
}

// NewApp builds the tool over the given streams. fd is the descriptor of in,
// used for no-echo password input when it is a terminal.
func NewApp(in io.Reader, fd int, out, errOut io.Writer) *App {
	return &App{reader: bufio.NewReader(in), out: out, errOut: errOut, fd: fd}
}

// Run executes the command in args and returns the process exit code.
func (a *App) Run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.errOut, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "check":
		err = a.check()
	case "generate":
		err = a.generate(rest)
	case "version":
		buildinfo.PrintBuildData(a.out)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
	default:
		fmt.Fprintf(a.errOut, "Unknown command: %s\n\n%s", cmd, usage)
		return 2
	}

	if err != nil {
		fmt.Fprintln(a.errOut, "Error:", err)
		return 1
	}
	return 0
}

func (a *App) check() error {
	var pw []byte

	if isTerminal(a.fd) {
		b, err := GetPassword(a.fd, "Enter password: ", a.out)
		if err != nil {
			return err
		}
		pw = b
	} else {
		s, err := GetSimpleText(a.reader, "Enter password", a.out)
		if err != nil {
			return err
		}
		pw = []byte(s)
	}
	defer common.WipeByteArray(pw)

	res := passwords.CheckStrength(string(pw))
	fmt.Fprintf(a.out, "Score: %d/5\nStrength: %s\n", res.Score, res.Strength)
	return nil
}

func (a *App) generate(args []string) error {
	opts := passwords.DefaultOptions()

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fs.IntVar(&opts.Length, "l", passwords.DefaultLength, "password length")
	fs.BoolVar(&opts.Upper, "upper", true, "include upper case letters")
	fs.BoolVar(&opts.Lower, "lower", true, "include lower case letters")
	fs.BoolVar(&opts.Numbers, "numbers", true, "include digits")
	fs.BoolVar(&opts.Symbols, "symbols", true, "include symbols")

	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := passwords.Generate(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}
