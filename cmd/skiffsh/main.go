// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Skiff Authors

// skiffsh is an interactive reference host: it discovers components on disk,
// loads them through the session manager, and lets you poke at their exported
// functions from a shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/skiffworks/skiff/internal/discovery"
	"github.com/skiffworks/skiff/internal/manager"
	"github.com/skiffworks/skiff/internal/value"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// componentVersion is the version every component is served as. The manifest
// carries no version field, so the shell pins everything to 1.0.0 and scripts
// address their dependencies at that version.
var componentVersion = semver.MustParse("1.0.0")

type shell struct {
	mgr  *manager.Manager
	host *Host
	ctx  manager.LoadContext
}

func main() {
	configPath := flag.String("config", defaultConfigFile, "Path to config file")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if os.Getenv("SKIFF_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	cfg, err := loadConfig(*configPath, *configPath != defaultConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	host := NewHost()
	builtins, err := builtinRegistry(func(line string) {
		fmt.Println(dimStyle.Render("[script] ") + line)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mgr := manager.New(logger)
	sh := &shell{mgr: mgr, host: host}

	found, err := discovery.New(logger, cfg.SearchPaths...).Discover()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, c := range found {
		if _, err := mgr.Register(c.ID, c.Dir); err != nil {
			logger.Warn("skipping component", "id", c.ID, "err", err)
			continue
		}
		id := c.ID
		ctx := manager.LoadContext{
			API:      host,
			Host:     builtins,
			OnExport: host.ExportSink(id),
			OnUnload: func() { host.DropExports(id) },
		}
		if err := mgr.Load(c.ID, ctx); err != nil {
			logger.Warn("component failed to load", "id", c.ID, "err", err)
			continue
		}
		host.SetVersion(c.ID, componentVersion)
	}
	sh.ctx = manager.LoadContext{API: host, Host: builtins}

	if cfg.AutoReload {
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := mgr.Watch(watchCtx); err != nil {
				logger.Warn("component watcher stopped", "err", err)
			}
		}()
	}

	historyFile := cfg.HistoryFile
	if historyFile == "" {
		historyFile = defaultHistoryFile()
	}

	fmt.Println(headerStyle.Render("skiffsh - Skiff Shell"))
	fmt.Printf("Loaded %d component(s). Type 'help' for commands, 'quit' to exit.\n",
		len(sh.loadedIDs()))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            promptStyle.Render("skiff> "),
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		AutoComplete:      sh.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			break
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			break
		}
		if err := sh.execute(fields[0], fields[1:]); err != nil {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
		}
	}
}

func (s *shell) execute(cmd string, args []string) error {
	switch cmd {
	case "help":
		s.printHelp()
		return nil
	case "components":
		s.printComponents()
		return nil
	case "exports":
		if len(args) != 1 {
			return errors.New("usage: exports <component>")
		}
		return s.printExports(args[0])
	case "call":
		if len(args) < 2 {
			return errors.New("usage: call <component> <function> [args...]")
		}
		return s.call(args[0], args[1], args[2:])
	case "load":
		if len(args) != 1 {
			return errors.New("usage: load <component>")
		}
		return s.load(args[0])
	case "unload":
		if len(args) != 1 {
			return errors.New("usage: unload <component>")
		}
		return s.unload(args[0])
	case "reload":
		if len(args) != 1 {
			return errors.New("usage: reload <component>")
		}
		return s.reload(args[0])
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (s *shell) printHelp() {
	fmt.Println(headerStyle.Render("Commands:"))
	fmt.Println("  components                          List registered components")
	fmt.Println("  exports <component>                 List a component's exported functions")
	fmt.Println("  call <component> <function> [args]  Call an export (args as JSON literals)")
	fmt.Println("  load <component>                    Load a registered component")
	fmt.Println("  unload <component>                  Unload a loaded component")
	fmt.Println("  reload <component>                  Unload and load again from disk")
	fmt.Println("  help                                Show this help")
	fmt.Println("  quit                                Exit the shell")
}

func (s *shell) printComponents() {
	ids := s.mgr.Components()
	sort.Strings(ids)
	if len(ids) == 0 {
		fmt.Println("No components registered")
		return
	}
	for _, id := range ids {
		state := "registered"
		if s.mgr.Loaded(id) {
			state = "loaded"
		}
		mf, err := s.mgr.Manifest(id)
		desc := ""
		if err == nil {
			desc = mf.Description
		}
		fmt.Printf("  %s  %s  %s\n", id, dimStyle.Render("["+state+"]"), desc)
	}
}

func (s *shell) printExports(id string) error {
	if !s.mgr.Registered(id) {
		return fmt.Errorf("no component %q", id)
	}
	names := s.host.Exports(id)
	if len(names) == 0 {
		fmt.Println("No exported functions")
		return nil
	}
	for _, name := range names {
		fmt.Println("  " + name)
	}
	return nil
}

func (s *shell) call(id, name string, rawArgs []string) error {
	args := make([]value.Value, len(rawArgs))
	for i, raw := range rawArgs {
		args[i] = parseArg(raw)
	}
	out, err := s.host.Invoke(id, name, args)
	if err != nil {
		return err
	}
	if out == nil {
		fmt.Println(dimStyle.Render("(no result)"))
		return nil
	}
	fmt.Println(out.String())
	return nil
}

func (s *shell) load(id string) error {
	ctx := s.ctx
	ctx.OnExport = s.host.ExportSink(id)
	ctx.OnUnload = func() { s.host.DropExports(id) }
	if err := s.mgr.Load(id, ctx); err != nil {
		return err
	}
	s.host.SetVersion(id, componentVersion)
	return nil
}

func (s *shell) unload(id string) error {
	if err := s.mgr.Unload(id); err != nil {
		return err
	}
	s.host.DropComponent(id)
	return nil
}

func (s *shell) reload(id string) error {
	return s.mgr.Reload(id)
}

func (s *shell) loadedIDs() []string {
	var ids []string
	for _, id := range s.mgr.Components() {
		if s.mgr.Loaded(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *shell) completer() readline.AutoCompleter {
	componentIDs := func(string) []string { return s.mgr.Components() }
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("components"),
		readline.PcItem("exports", readline.PcItemDynamic(componentIDs)),
		readline.PcItem("call", readline.PcItemDynamic(componentIDs)),
		readline.PcItem("load", readline.PcItemDynamic(componentIDs)),
		readline.PcItem("unload", readline.PcItemDynamic(componentIDs)),
		readline.PcItem("reload", readline.PcItemDynamic(componentIDs)),
		readline.PcItem("quit"),
		readline.PcItem("exit"),
	)
}

// parseArg turns one command-line token into a value. Tokens are read as JSON
// literals; anything that does not parse is taken as a bare string.
func parseArg(raw string) value.Value {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return value.String(raw)
	}
	return fromJSON(v)
}

func fromJSON(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return value.Int32(int32(t))
		}
		return value.Float32(float32(t))
	case string:
		return value.String(t)
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			elems[i] = fromJSON(e)
		}
		return value.List(elems...)
	default:
		// Objects have no representation; render through JSON text.
		b, _ := json.Marshal(t)
		return value.String(string(b))
	}
}
