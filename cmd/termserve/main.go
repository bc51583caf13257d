// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the termserve prefix completion server and CLI.

termserve loads a static collection of weighted terms, sorts it once and
answers prefix queries with every matching term ordered by descending weight.
It can operate as a MessagePack IPC server for editors and other processes,
or as a line based CLI for testing and scripting.

# Usage

Start the server on a dictionary directory:

	termserve -data /path/to/dict

Run the CLI, printing the top 5 matches per prefix:

	termserve -c -data wiktionary.txt -limit 5

Print every term in weight order and exit:

	termserve -data wiktionary.txt -dump

# Dictionaries

The data path names a single term file or a directory. Text files hold one
"<weight>\t<text>" per line with an optional leading line holding the number
of terms. Directories may also hold binary chunk files named dict_0001.bin,
dict_0002.bin, and so on.

# Configuration

Runtime configuration is a TOML file, created with defaults when missing:

	[server]
	max_limit = 64
	min_prefix = 0
	max_prefix = 60
	cache_size = 2048

	[dict]
	path = "data/"
	max_terms = 0

	[cli]
	default_limit = 24

In server mode the file is watched and limits are applied without restart.

# IPC Protocol

See package server for the request and response frames.

	{"id": "req1", "p": "app", "l": 20}
	{"id": "req1", "s": [{"w": "apply", "f": 20, "r": 1}], "c": 1, "n": 3, "t": 12}
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/termserve/internal/cli"
	"github.com/bastiangx/termserve/internal/logger"
	"github.com/bastiangx/termserve/internal/utils"
	"github.com/bastiangx/termserve/pkg/config"
	"github.com/bastiangx/termserve/pkg/dictionary"
	"github.com/bastiangx/termserve/pkg/server"
	"github.com/bastiangx/termserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "termserve"
	gh      = "https://github.com/bastiangx/termserve"
)

// sigHandler cancels ctx on interrupt and exits.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		cancel()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow between packages.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)

	log.SetOutput(os.Stderr)
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	dataPath := flag.String("data", "", "Term file or directory of term files (default from config)")
	configFile := flag.String("config", "", "Path to a custom config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- reads prefixes from stdin")
	limit := flag.Int("limit", 0, "Number of matches to print per prefix (default from config)")
	minPrefix := flag.Int("prmin", 0, "Minimum prefix length for the CLI (default from config)")
	maxPrefix := flag.Int("prmax", 0, "Maximum prefix length for the CLI (default from config)")
	noFilter := flag.Bool("no-filter", defaultConfig.CLI.DefaultNoFilter, "Disable CLI input filtering (numbers, symbols, repeats)")
	termLimit := flag.Int("terms", -1, "Maximum number of terms to load (0 for all, default from config)")
	dump := flag.Bool("dump", false, "Print every term by descending weight and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(appConfig, *limit, *minPrefix, *maxPrefix, *termLimit)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	userPath := appConfig.Dict.Path
	if *dataPath != "" {
		userPath = *dataPath
	}
	resolvedPath := pathResolver.GetDataPath(userPath)
	log.Debugf("Using dictionary at: %s", resolvedPath)

	loader := dictionary.NewLoader(resolvedPath, appConfig.Dict.MaxTerms)
	completer, err := suggest.NewCompleterFromSource(loader, appConfig.Server.CacheSize)
	if err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	stats := loader.Stats()
	if stats.Truncated {
		log.Warnf("Dictionary truncated to %s terms", utils.FormatWithCommas(int64(stats.Terms)))
	}
	log.Debug("Index ready", "terms", stats.Terms, "files", stats.Files, "maxWeight", stats.MaxWeight)

	if *dump {
		for _, t := range completer.Complete("", 0) {
			fmt.Fprintln(os.Stdout, t.String())
		}
		return
	}

	if *cliMode {
		log.SetReportTimestamp(false)
		cfg := appConfig.CLI
		log.Debug("Input info:",
			"minPrefix", cfg.DefaultMinLen,
			"maxPrefix", cfg.DefaultMaxLen,
			"limit", cfg.DefaultLimit,
			"noFilter", *noFilter)

		inputHandler := cli.NewInputHandler(completer, os.Stdin, os.Stdout, os.Stderr,
			cfg.DefaultMinLen, cfg.DefaultMaxLen, cfg.DefaultLimit, *noFilter)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(completer, appConfig, os.Stdin, os.Stdout, logger.New("server", os.Stderr))

	if configPath != "" {
		go func() {
			if err := config.Watch(ctx, configPath, srv.UpdateConfig); err != nil {
				log.Warnf("Config watching disabled: %v", err)
			}
		}()
	}

	showStartupInfo(resolvedPath, stats)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// applyFlags overrides config values with flags that were set.
func applyFlags(cfg *config.Config, limit, minPrefix, maxPrefix, termLimit int) {
	if limit > 0 {
		cfg.CLI.DefaultLimit = limit
	}
	if minPrefix > 0 {
		cfg.CLI.DefaultMinLen = minPrefix
	}
	if maxPrefix > 0 {
		cfg.CLI.DefaultMaxLen = maxPrefix
	}
	if termLimit >= 0 {
		cfg.Dict.MaxTerms = termLimit
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ TermServe ] weighted prefix completion")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dataPath string, stats dictionary.LoaderStats) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("dictionary: ( %s )", utils.GetAbsolutePath(dataPath))
	log.Infof("terms: %s from %d files", utils.FormatWithCommas(int64(stats.Terms)), stats.Files)
	log.Info("status: ready")
}
