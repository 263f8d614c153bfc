package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
)

const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitConfiguration
	}

	cli := &cli{stdin: stdin, stdout: stdout, stderr: stderr}

	command := args[0]
	switch command {
	case "encrypt":
		return cli.encryptCommand(ctx, args[1:])
	case "decrypt":
		return cli.decryptCommand(ctx, args[1:])
	case "digest":
		return cli.digestCommand(args[1:])
	case "id":
		return cli.idCommand(args[1:])
	case "keygen":
		return cli.keygenCommand(args[1:])
	case "check":
		return cli.checkCommand(ctx, args[1:])
	case "init":
		return cli.initCommand(args[1:])
	case "version":
		return cli.versionCommand()
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return exitConfiguration
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: cbcx <command> [options] [values...]\n")
	fmt.Fprintf(w, "\nCommands:\n")
	fmt.Fprintf(w, "  encrypt   Encrypt values into base64 envelopes\n")
	fmt.Fprintf(w, "  decrypt   Decrypt base64 envelopes\n")
	fmt.Fprintf(w, "  digest    Print the MD5 fingerprint of values\n")
	fmt.Fprintf(w, "  id        Generate a short identifier from a number\n")
	fmt.Fprintf(w, "  keygen    Generate a random secret\n")
	fmt.Fprintf(w, "  check     Verify that the configured secret can be resolved\n")
	fmt.Fprintf(w, "  init      Write a configuration file\n")
	fmt.Fprintf(w, "  version   Show version information\n")
	fmt.Fprintf(w, "\nValues are read from arguments, or one per line from stdin when none are given.\n")
	fmt.Fprintf(w, "Run 'cbcx <command> -h' for help on a specific command.\n")
}
