package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/CAIDA/corsavro-ft2ascii/config"
	"github.com/CAIDA/corsavro-ft2ascii/internal/ascii"
	"github.com/CAIDA/corsavro-ft2ascii/internal/avroreader"
	"github.com/CAIDA/corsavro-ft2ascii/internal/converter"
	"github.com/CAIDA/corsavro-ft2ascii/internal/logger"
)

const (
	exitOK    = 0
	exitUsage = 1
	exitError = 2
)

const usage = "Usage: corsavro-ft2ascii <flowtuple_avro_file>\n"

func printHelp(w io.Writer) {
	fmt.Fprint(w, usage)
	fmt.Fprintf(w, `
Converts a corsaro3 flowtuple Avro file into cors2ascii text on stdout.

Arguments:
  flowtuple_avro_file   Local path, file:// URI, or "-" for stdin.
                        Files ending in .gz are decompressed.

Options:
  --help, -h   Show this help message and exit

Configuration:
  Set %s to a YAML or JSON file to change logging
  (level, file, rotation) or to emit the final interval
  (output.flush_final_interval).
`, config.EnvConfigPath)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	switch args[0] {
	case "--help", "-h":
		printHelp(stderr)
		return exitOK
	}

	cfg, err := config.LoadConfig(os.Getenv(config.EnvConfigPath))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitError
	}
	logConfig, err := cfg.LoggerConfig(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to configure logging: %v\n", err)
		return exitError
	}
	log, err := logger.NewLogger(logConfig)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitError
	}
	defer log.Close()
	log.Debug("Logging at %s", log.Level())

	out := bufio.NewWriter(stdout)
	code := convert(args[0], cfg, out, stderr, log)
	if err := out.Flush(); err != nil {
		log.Error("Failed to flush output: %v", err)
		return exitError
	}
	return code
}

func convert(input string, cfg *config.Config, out *bufio.Writer, stderr io.Writer, log *logger.Logger) int {
	log.Debug("Opening %s", input)
	r, err := avroreader.Open(input)
	if err != nil {
		log.Error("%v", err)
		return exitError
	}
	defer r.Close()
	log.Debug("Writer schema: %s", r.Schema())

	// stdout is flushed before each progress line.
	formatter := ascii.NewFormatter(out, &flushingWriter{flush: out, w: stderr})

	stats, err := converter.New(r, formatter).Run()
	if err != nil {
		log.Error("Conversion failed: %v", err)
		return exitError
	}

	if cfg.Output.FlushFinalInterval {
		if err := formatter.Close(); err != nil {
			log.Error("Failed to write final interval: %v", err)
			return exitError
		}
	}

	if stats.OutOfOrder > 0 {
		log.Info("%d records went back in time and were kept in the open interval", stats.OutOfOrder)
	}
	log.Debug("Conversion complete\n%s", stats)
	return exitOK
}

// flushingWriter flushes a buffered writer before every write to w.
type flushingWriter struct {
	flush *bufio.Writer
	w     io.Writer
}

func (fw *flushingWriter) Write(p []byte) (int, error) {
	if err := fw.flush.Flush(); err != nil {
		return 0, err
	}
	return fw.w.Write(p)
}
