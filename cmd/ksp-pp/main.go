package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"golang.org/x/term"

	ksp_pp "github.com/fwessels/ksp-pp"
)

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, string(filepath.ListSeparator)) }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

type config struct {
	importDirs          stringList
	output              string
	verbose             bool
	maxStructIterations int
	files               []string
}

func parseArgs(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("ksp-pp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&cfg.importDirs, "I", "add a directory to the import search path (repeatable)")
	fs.StringVar(&cfg.output, "o", "", "write output to `file` instead of stdout")
	fs.BoolVar(&cfg.verbose, "v", env.Bool("KSPP_VERBOSE"), "log every pass")
	fs.IntVar(&cfg.maxStructIterations, "max-struct-iterations", env.Int("KSPP_MAX_STRUCT_ITERATIONS", 0),
		"bound on struct flattening steps (0 = default)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: ksp-pp [flags] [file.ksp]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if p := env.Str("KSPP_IMPORT_PATH"); p != "" {
		cfg.importDirs = append(cfg.importDirs, filepath.SplitList(p)...)
	}
	cfg.files = fs.Args()
	if len(cfg.files) > 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected at most one input file, got %d", len(cfg.files))
	}
	return cfg, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	opts := ksp_pp.Options{
		ImportDirs:          cfg.importDirs,
		MaxStructIterations: cfg.maxStructIterations,
	}
	if cfg.verbose {
		opts.Logger = log.New(stderr, "ksp-pp: ", 0)
	}

	filename, in := "<stdin>", stdin
	if len(cfg.files) == 1 {
		f, err := os.Open(cfg.files[0])
		if err != nil {
			return err
		}
		defer f.Close()
		filename, in = cfg.files[0], f
	} else if isTerminal(stdin) {
		return fmt.Errorf("no input: pass a file or pipe a script into stdin")
	}

	out, err := ksp_pp.Preprocess(filename, in, opts)
	if err != nil {
		return err
	}
	if cfg.output != "" {
		return os.WriteFile(cfg.output, []byte(out), 0644)
	}
	_, err = io.WriteString(stdout, out)
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
