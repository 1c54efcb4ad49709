package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richard-senior/footytrends/internal/app"
	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/internal/processor"
	"github.com/richard-senior/footytrends/pkg/server"
	"github.com/richard-senior/footytrends/pkg/transport"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

// Answers a single JSON-RPC request and exits. The request comes from -input,
// from the arguments (tool name followed by key=value pairs) or from stdin
func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	configPath := flag.String("config", "", "YAML config file")
	inputFile := flag.String("input", "", "Input file path (if not provided, stdin will be used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	flag.Parse()

	cfg, err := trends.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	logger.SetShowDateTime(true)
	if err := app.ConfigureLogging(cfg, *outputFile == ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer logger.Close()
	logger.Info("Starting MCP CLI application")

	// Determine input source
	var input []byte
	if *inputFile != "" {
		input, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Error("Failed to read input file", err)
			return 1
		}
	} else if args := flag.Args(); len(args) > 0 {
		input, err = processor.ToolCall(fmt.Sprintf("cli-%d", os.Getpid()), args[0], argsToMap(args[1:]))
		if err != nil {
			logger.Error("Failed to create request from command line arguments", err)
			return 1
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("Failed to read from stdin", err)
			return 1
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("Startup failed", err)
		return 1
	}
	defer a.Close()

	s := server.NewServer(transport.NewStreamTransport(strings.NewReader(""), io.Discard))
	s.RegisterDefaults(context.Background(), a.Service)

	result, err := processor.ProcessRequest(s, input)
	if err != nil {
		logger.Error("Failed to process request", err)
		return 1
	}

	// Determine output destination
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, result, 0644); err != nil {
			logger.Error("Failed to write to output file", err)
			return 1
		}
	} else if len(result) > 0 {
		fmt.Println(string(result))
	}

	logger.Info("MCP CLI application completed successfully")
	return 0
}

// argsToMap turns key=value words into tool arguments. A word without '='
// is ignored
func argsToMap(words []string) map[string]any {
	out := map[string]any{}
	for _, w := range words {
		k, v, ok := strings.Cut(w, "=")
		if !ok || k == "" {
			logger.Warn("Ignoring argument without '='", w)
			continue
		}
		out[k] = v
	}
	return out
}
