package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/derive"
	"github.com/sealbox/sealbox/pkg/engine"
	"github.com/sealbox/sealbox/pkg/observe"
	pkgversion "github.com/sealbox/sealbox/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version = "" // Set via -ldflags "-X main.version=x.y.z"
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "encrypt":
		encryptCommand()
	case "decrypt":
		decryptCommand()
	case "peek":
		peekCommand()
	case "algorithms":
		algorithmsCommand()
	case "version":
		fmt.Printf("sealbox version %s\n", getVersion())
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sealbox - password-based file encryption with classical and post-quantum suites

USAGE:
    sealbox <command> [options]

COMMANDS:
    encrypt      Encrypt a file
    decrypt      Decrypt a file
    peek         Show a file's format version and algorithm
    algorithms   List cipher suites available for new encryptions
    version      Print version information
    help         Show this help message

EXAMPLES:
    sealbox encrypt --in notes.txt --out notes.sealed --password secret
    sealbox encrypt --in notes.txt --out notes.sealed --password secret --algorithm ml-kem-768-hybrid
    sealbox decrypt --in notes.sealed --out notes.txt --password secret
    sealbox peek --in notes.sealed`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "sealbox: %v\n", err)
	os.Exit(1)
}

func newEngine(verbose bool) *engine.Engine {
	if verbose {
		observe.SetLevel(logrus.DebugLevel)
	}
	return engine.New()
}

func encryptCommand() {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	in := fs.String("in", "", "input file")
	out := fs.String("out", "", "output file")
	password := fs.String("password", "", "password")
	algorithm := fs.String("algorithm", string(catalog.AESGCM), "cipher suite identifier")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Parse(os.Args[2:])

	if *in == "" || *out == "" || *password == "" {
		fs.Usage()
		os.Exit(1)
	}

	e := newEngine(*verbose)
	err := e.EncryptFile(context.Background(), *in, *out, []byte(*password),
		catalog.ID(*algorithm), derive.DefaultConfig())
	if err != nil {
		fatal(err)
	}
	fmt.Printf("encrypted %s -> %s (%s)\n", *in, *out, *algorithm)
}

func decryptCommand() {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	in := fs.String("in", "", "input file")
	out := fs.String("out", "", "output file")
	password := fs.String("password", "", "password")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Parse(os.Args[2:])

	if *in == "" || *out == "" || *password == "" {
		fs.Usage()
		os.Exit(1)
	}

	e := newEngine(*verbose)
	if _, err := e.DecryptFile(context.Background(), *in, *out, []byte(*password)); err != nil {
		fatal(err)
	}
	fmt.Printf("decrypted %s -> %s\n", *in, *out)
}

func peekCommand() {
	fs := flag.NewFlagSet("peek", flag.ExitOnError)
	in := fs.String("in", "", "input file")
	fs.Parse(os.Args[2:])

	if *in == "" {
		fs.Usage()
		os.Exit(1)
	}

	info, err := engine.New().PeekMetadata(*in)
	if err != nil {
		fatal(err)
	}
	fmt.Println(info)
}

func algorithmsCommand() {
	for _, id := range catalog.ListAvailable() {
		fmt.Println(id)
	}
}
