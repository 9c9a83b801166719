package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/draftpad/draftpad/internal/appupdate"
	"github.com/draftpad/draftpad/internal/assist"
	"github.com/draftpad/draftpad/internal/prefs"
	"github.com/draftpad/draftpad/internal/state"
	"github.com/draftpad/draftpad/internal/tui"
	"github.com/draftpad/draftpad/internal/watch"
	"github.com/draftpad/draftpad/pkg/overlay"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var BUILD_VERSION = "dev"

// The watcher waits this long after the last keystroke before asking the
// model for completions, suggestions, and review.
const assistDebounce = 300 * time.Millisecond

var setFlag = flag.String("set", "", "set a preference as key=value and exit")
var getFlag = flag.String("get", "", "print a preference value and exit")
var themeFlag = flag.String("theme", "", "use a custom theme file instead of the default")
var promptFlag = flag.String("prompt", "> ", "prompt shown before the input line")

var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if *helpFlag {
		fmt.Println("Usage of draftpad:")
		flag.PrintDefaults()
		return
	}

	store, err := prefs.NewStore(state.PrefsFile())
	if err != nil {
		panic("failed to initialize preference store")
	}
	defer func() {
		_ = store.Close()
	}()

	if *setFlag != "" {
		os.Exit(setPreference(store, *setFlag))
	}
	if *getFlag != "" {
		os.Exit(getPreference(store, *getFlag))
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "draftpad requires an interactive terminal")
		os.Exit(1)
	}

	logger, err := initializeLogger()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flush any buffered log entries
	}()

	logger.Info("-------- new draftpad session --------", zap.Any("args", os.Args))

	updateResults := startUpdateCheck(logger)

	theme := loadTheme(logger)

	surface := tui.NewSurface()
	controller := overlay.NewController(surface, store.LoadFlags(), logger)
	composer := tui.NewComposer(
		controller,
		surface,
		assist.NewLLMRewriter(store, logger),
		logger,
		tui.Options{
			Prompt: *promptFlag,
			Theme:  theme,
			OnFlagsChanged: func(flags overlay.Flags) {
				if err := store.SaveFlags(flags); err != nil {
					logger.Warn("failed to persist feature flags", zap.Error(err))
				}
			},
		},
	)
	controller.Attach(composer.Target())

	unsubscribe := store.Subscribe(func(key, value string) {
		logger.Debug("preference changed", zap.String("key", key), zap.String("value", value))
	})
	defer unsubscribe()

	program := tea.NewProgram(composer)

	watcher := watch.New(
		watch.Providers{
			Completer: assist.NewLLMCompleter(store, logger),
			Advisor:   assist.NewLLMAdvisor(store, logger),
			Critic:    assist.NewLLMCritic(store, logger),
		},
		tui.NewProgramSink(program),
		assistDebounce,
		controller.Flags,
		logger,
	)
	watcher.Watch(composer.Target())
	defer watcher.Close()

	final, err := program.Run()
	if err != nil {
		logger.Error("unhandled error", zap.Error(err))
		os.Exit(1)
	}

	reportNewVersion(updateResults, logger)

	result, err := final.(tui.Composer).Result()
	if errors.Is(err, tui.ErrInterrupted) {
		os.Exit(130)
	}
	fmt.Println(result)
}

func setPreference(store *prefs.Store, pair string) int {
	key, value, ok := strings.Cut(pair, "=")
	if !ok {
		fmt.Fprintln(os.Stderr, "expected -set key=value")
		return 1
	}

	if !knownKey(key) {
		if nearest, found := prefs.NearestKey(key); found {
			fmt.Fprintf(os.Stderr, "unknown preference %q (did you mean %q?)\n", key, nearest)
		} else {
			fmt.Fprintf(os.Stderr, "unknown preference %q\n", key)
		}
		return 1
	}

	if err := store.Set(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set %s: %v\n", key, err)
		return 1
	}
	return 0
}

func getPreference(store *prefs.Store, key string) int {
	if !knownKey(key) {
		if nearest, found := prefs.NearestKey(key); found {
			fmt.Fprintf(os.Stderr, "unknown preference %q (did you mean %q?)\n", key, nearest)
		} else {
			fmt.Fprintf(os.Stderr, "unknown preference %q\n", key)
		}
		return 1
	}

	fmt.Println(store.Get(key, ""))
	return 0
}

func knownKey(key string) bool {
	for _, known := range prefs.KnownKeys {
		if known == key {
			return true
		}
	}
	return false
}

func initializeLogger() (*zap.Logger, error) {
	loggerConfig := zap.NewProductionConfig()
	if BUILD_VERSION == "dev" {
		loggerConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	loggerConfig.OutputPaths = []string{
		state.LogFile(),
	}
	return loggerConfig.Build()
}

func loadTheme(logger *zap.Logger) *tui.Theme {
	themePath := *themeFlag
	if themePath == "" {
		themePath = state.ThemeFile()
	}

	theme, err := tui.LoadTheme(themePath)
	if err != nil {
		logger.Warn("failed to load theme, using defaults", zap.String("path", themePath), zap.Error(err))
		return tui.DefaultTheme()
	}
	return theme
}

func startUpdateCheck(logger *zap.Logger) chan string {
	updater, err := appupdate.NewUpdater()
	if err != nil {
		logger.Warn("failed to initialize self-updater", zap.Error(err))
		closed := make(chan string)
		close(closed)
		return closed
	}

	return appupdate.HandleSelfUpdate(
		BUILD_VERSION,
		logger,
		state.LatestVersionFile(),
		confirmUpdate,
		updater,
	)
}

// confirmUpdate asks on stdin before the composer takes over the terminal.
// DRAFTPAD_DEFAULT_TO_YES flips the default answer for unattended installs.
func confirmUpdate(latestVersion string) bool {
	defaultToYes := strings.ToLower(os.Getenv("DRAFTPAD_DEFAULT_TO_YES"))
	isDefaultYes := defaultToYes == "1" || defaultToYes == "true"

	promptText := fmt.Sprintf("draftpad %s is available. Update now? (y/N) ", latestVersion)
	if isDefaultYes {
		promptText = fmt.Sprintf("draftpad %s is available. Update now? (Y/n) ", latestVersion)
	}
	fmt.Print(promptText)

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	if isDefaultYes {
		return answer != "n" && answer != "no"
	}
	return answer == "y" || answer == "yes"
}

// reportNewVersion drains the background update check without blocking exit
// on a slow network.
func reportNewVersion(updateResults chan string, logger *zap.Logger) {
	select {
	case version, ok := <-updateResults:
		if ok && version != "" {
			logger.Info("a newer version was recorded for next launch", zap.String("version", version))
		}
	default:
	}
}
