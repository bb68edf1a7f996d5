package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BBlackMMan/Renamer/internal/daemon"
	"github.com/BBlackMMan/Renamer/internal/engine"
	"github.com/BBlackMMan/Renamer/internal/events"
	"github.com/BBlackMMan/Renamer/internal/logging"
	"github.com/BBlackMMan/Renamer/internal/menu"
	"github.com/BBlackMMan/Renamer/internal/model"
	"github.com/BBlackMMan/Renamer/internal/store"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "watch":
		runWatch(os.Args[2:])
	case "reorganize":
		runReorganize(os.Args[2:])
	case "folders":
		runFolders()
	case "version":
		fmt.Printf("renamer %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`renamer - keeps a folder of images numbered in creation order

usage: renamer <command> [options]

commands:
  watch       watch a folder and rename arriving images
  reorganize  run a single renaming pass and exit
  folders     list saved folders
  version     print version
  help        show this help

options for watch / reorganize:
  -dir PATH      folder to process (watch: omit for interactive selection)
  -name NAME     saved folder shortcut name
  -prefix PREFIX rename prefix (default: the saved prefix)

state (config, logs, journal) lives in $RENAMER_DIR or ~/.renamer.`)
}

func baseDir() string {
	if v := os.Getenv("RENAMER_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".renamer"
	}
	return filepath.Join(home, ".renamer")
}

func loadConfig(base string) model.Config {
	var cfg model.Config
	data, err := os.ReadFile(filepath.Join(base, "config.yaml"))
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "warning: config.yaml: %v\n", err)
			cfg = model.Config{}
		}
	}
	cfg.ApplyDefaults()
	return cfg
}

func openStore(base string) *store.Store {
	logger := logging.New(os.Stderr, logging.LevelWarn, "store")
	return store.New(filepath.Join(base, "folders.yaml"), logger)
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "folder to watch")
	nameFlag := fs.String("name", "", "saved folder shortcut name")
	prefixFlag := fs.String("prefix", "", "rename prefix")
	fs.Parse(args)

	base := baseDir()
	cfg := loadConfig(base)
	st := openStore(base)
	m := menu.New(st, os.Stdin, os.Stdout)

	watchDir, shortcut := *dirFlag, *nameFlag
	if watchDir == "" {
		var ok bool
		watchDir, shortcut, ok = m.ChooseFolder()
		if !ok {
			fmt.Println("no folder selected")
			return
		}
	}
	if info, err := os.Stat(watchDir); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "not a directory: %s\n", watchDir)
		os.Exit(1)
	}

	prefix := *prefixFlag
	switch {
	case prefix != "":
		if err := st.SavePrefix(watchDir, shortcut, prefix); err != nil {
			fmt.Fprintf(os.Stderr, "warning: save prefix: %v\n", err)
		}
	case *dirFlag != "":
		prefix = st.Prefix(watchDir, shortcut)
	default:
		var ok bool
		prefix, ok = m.ConfirmPrefix(watchDir, shortcut)
		if !ok {
			fmt.Println("cancelled")
			return
		}
	}

	d, err := daemon.New(base, watchDir, prefix, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	unsubscribe := d.Bus().Subscribe(events.TypeRenameApplied, func(ev events.Event) {
		fmt.Printf("%v -> %v\n", ev.Data["from"], ev.Data["to"])
	})
	defer unsubscribe()

	if err := d.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("watching %s (prefix %q)\n", watchDir, prefix)
	fmt.Println(`commands: "menu", "quit" (or Ctrl+C)`)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "menu", "m":
			if m.Runtime(d, watchDir, shortcut) == menu.ActionStop {
				d.Shutdown()
				return
			}
			fmt.Println("watching...")
		case "quit", "q", "exit", "stop":
			d.Shutdown()
			return
		case "":
		default:
			fmt.Println(`commands: "menu", "quit"`)
		}
	}

	// Stdin closed (headless run): stay up until a signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	d.Shutdown()
}

func runReorganize(args []string) {
	fs := flag.NewFlagSet("reorganize", flag.ExitOnError)
	dirFlag := fs.String("dir", "", "folder to reorganize")
	nameFlag := fs.String("name", "", "saved folder shortcut name")
	prefixFlag := fs.String("prefix", "", "rename prefix")
	fs.Parse(args)

	if *dirFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: renamer reorganize -dir PATH [-prefix PREFIX] [-name NAME]")
		os.Exit(1)
	}

	base := baseDir()
	cfg := loadConfig(base)
	st := openStore(base)

	prefix := *prefixFlag
	if prefix == "" {
		prefix = st.Prefix(*dirFlag, *nameFlag)
	}

	// Info level so each applied rename is echoed to the console.
	logger := logging.New(os.Stderr, logging.LevelInfo, "renamer")
	eng := engine.New(engine.Options{
		Dir:      *dirFlag,
		Prefix:   prefix,
		Logger:   logger,
		Debounce: time.Duration(cfg.Watcher.DebounceSec * float64(time.Second)),
	})

	if err := eng.Reorganize(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("done")
}

func runFolders() {
	st := openStore(baseDir())
	records := st.Records()
	if len(records) == 0 {
		fmt.Println("no saved folders")
		return
	}
	for _, rec := range records {
		name := rec.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("%-16s %s (prefix: %s, last used: %s)\n",
			name, rec.Path, rec.Prefix, rec.LastUsed.Format("2006-01-02 15:04"))
	}
}
