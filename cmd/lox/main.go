// lox runs lox scripts, program images and an interactive prompt, and
// serves the language server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/treelox/compiler"
	"github.com/chazu/treelox/compiler/image"
	"github.com/chazu/treelox/manifest"
	"github.com/chazu/treelox/server"
	"github.com/chazu/treelox/vm"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// Exit codes follow sysexits.h.
const (
	exitOK       = 0
	exitUsage    = 64
	exitDataErr  = 65
	exitNoInput  = 66
	exitSoftware = 70
)

var log = commonlog.GetLogger("treelox.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lox", flag.ContinueOnError)
	fs.SetOutput(stderr)
	interactive := fs.Bool("i", false, "Start interactive REPL")
	output := fs.String("o", "", "Write a program image to this path instead of running")
	lspMode := fs.Bool("lsp", false, "Serve the language server on stdio")
	verbose := fs.Bool("v", false, "Verbose output (debug logging)")
	noManifest := fs.Bool("no-manifest", false, "Ignore lox.toml")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lox [options] [script]\n\n")
		fmt.Fprintf(stderr, "Runs a lox script or program image, or starts the REPL when no script is given.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  lox                      # REPL, or the entry script from lox.toml\n")
		fmt.Fprintf(stderr, "  lox main.lox             # Run a script\n")
		fmt.Fprintf(stderr, "  lox -o main.tlox main.lox  # Compile to a program image\n")
		fmt.Fprintf(stderr, "  lox main.tlox            # Run a program image\n")
		fmt.Fprintf(stderr, "  lox -lsp                 # Language server for editors\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	m := manifest.Default()
	if !*noManifest {
		found, err := manifest.FindAndLoad(".")
		if err != nil {
			fmt.Fprintf(stderr, "Warning: ignoring %s: %v\n", manifest.FileName, err)
		} else if found != nil {
			m = found
		}
	}
	configureLogging(m, *verbose)

	if *lspMode {
		if err := server.NewLSP(server.WithVersion(version)).Run(); err != nil {
			fmt.Fprintf(stderr, "Language server error: %v\n", err)
			return exitSoftware
		}
		return exitOK
	}

	script := fs.Arg(0)
	if *output != "" {
		if script == "" {
			fmt.Fprintf(stderr, "Error: -o needs a script to compile\n")
			return exitUsage
		}
		return compileImage(script, *output, stderr)
	}

	opts := []vm.Option{
		vm.WithStdout(stdout),
		vm.WithMaxCallDepth(m.Run.MaxCallDepth),
	}

	if script == "" && !*interactive {
		script = m.EntryPath()
	}
	if script != "" {
		in := vm.New(append(opts, vm.WithStdin(stdin))...)
		return runFile(in, script, stderr)
	}

	if err := runREPL(opts, m, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitNoInput
	}
	return exitOK
}

func configureLogging(m *manifest.Manifest, verbose bool) {
	verbosity := m.Log.Verbosity
	if verbose {
		verbosity = 2
	}
	var path *string
	if m.Log.File != "" {
		path = &m.Log.File
	}
	commonlog.Configure(verbosity, path)
}

// runFile executes a script or a program image and maps the outcome to an
// exit code.
func runFile(in *vm.Interpreter, path string, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitNoInput
	}

	if image.IsImage(data) {
		log.Debugf("running image %s", path)
		prog, err := image.Decode(data, in.Globals().Names()...)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", path, err)
			return exitDataErr
		}
		return report(in.Interpret(prog), stderr)
	}

	log.Debugf("running script %s", path)
	return report(in.Eval(string(data)), stderr)
}

// compileImage writes the program image of the script at src to dst.
func compileImage(src, dst string, stderr io.Writer) int {
	data, err := os.ReadFile(src)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitNoInput
	}

	prog, err := compiler.Compile(string(data), compiler.WithGlobals(vm.NativeNames...))
	if err != nil {
		return report(err, stderr)
	}
	img, err := image.Encode(prog)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitSoftware
	}
	if err := os.WriteFile(dst, img, 0644); err != nil {
		fmt.Fprintf(stderr, "Error: cannot write image: %v\n", err)
		return exitNoInput
	}
	log.Infof("wrote %s (%d bytes)", dst, len(img))
	return exitOK
}

// report prints err and classifies it as a static or runtime failure.
func report(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, err)

	var diags compiler.Diagnostics
	if errors.As(err, &diags) {
		return exitDataErr
	}
	return exitSoftware
}
