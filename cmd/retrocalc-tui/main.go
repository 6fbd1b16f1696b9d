package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/antibyte/retrocalc/pkg/calc"
	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/history"
	"github.com/antibyte/retrocalc/pkg/keymap"
	"github.com/antibyte/retrocalc/pkg/logger"
	"github.com/antibyte/retrocalc/pkg/session"
	"github.com/antibyte/retrocalc/pkg/tui"
)

func main() {
	configPath := flag.String("config", "settings.cfg", "path to settings file")
	historyPath := flag.String("history", "", "history file (default from [History] file_path)")
	flag.Parse()

	if err := configuration.Initialize(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitializeQuiet(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	path := *historyPath
	if path == "" {
		path = configuration.GetString("History", "file_path", "history.yaml")
	}
	store := history.NewFileStore(path, history.MaxRecords())

	km, err := keymap.LoadOrDefault(configuration.GetString("Calculator", "keymap_file", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading keymap: %v\n", err)
		os.Exit(1)
	}

	sess := session.New("tui", "local", calc.NewEvaluator(), store)
	logger.Info(logger.AreaTUI, "TUI started with history file %s", path)

	if _, err := tea.NewProgram(tui.New(sess, km), tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
