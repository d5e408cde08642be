// Package main provides the JARVIS CLI application entry point.
// JARVIS turns plain-English commands into browser automation, and answers everything else
// through a configured AI provider.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jarvis/internal/logger"
	"jarvis/internal/shell"
	"jarvis/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jarvis",
	Short: "JARVIS - voice-style browser automation assistant",
	Long: `JARVIS understands commands like "open youtube", "scroll down slowly" or
"search for golang tutorials" and carries them out in a Chrome browser.
Anything it does not recognise is answered by an AI provider.`,
	Run: runShell,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start interactive shell mode",
	Run:   runShell,
}

var batchCmd = &cobra.Command{
	Use:   "batch <script.jarvis>",
	Short: "Execute a .jarvis script file in batch mode",
	Long: `Execute every line of a .jarvis script as if it had been typed into the shell.
Blank lines and lines starting with # are skipped.`,
	Args: cobra.ExactArgs(1),
	Run:  runBatch,
}

var execCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Execute a single command and exit",
	Args:  cobra.MinimumNArgs(1),
	Run:   runExec,
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export saved chat sessions to a JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withApp(func(a *app) error {
			if err := a.chats.ExportToFile(args[0]); err != nil {
				return err
			}
			fmt.Printf("Chat sessions exported to %s\n", args[0])
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import chat sessions from a JSON export",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withApp(func(a *app) error {
			result, err := a.chats.ImportFromFile(args[0])
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		if detailed, _ := cmd.Flags().GetBool("detailed"); detailed {
			fmt.Println(version.GetDetailedVersion())
			return
		}
		fmt.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.Bool("test-mode", false, "Run in deterministic test mode")
	flags.Bool("headless", false, "Launch Chrome without a window")
	flags.String("browser-url", "", "DevTools URL of an already running Chrome")
	flags.String("storage", "", "Storage database path, or \"memory\" [default: <config dir>/jarvis/jarvis.db]")
	flags.String("provider", "", "Default AI provider (groq|cohere|gemini|anthropic)")
	flags.String("voice", "", "Voice profile used for spoken replies")
	flags.Bool("speak", false, "Speak replies with Google Cloud Text-to-Speech")
	flags.Bool("notify", true, "Show desktop notifications for queued command results")

	for _, name := range []string{
		"log-level", "log-file", "test-mode", "headless", "browser-url",
		"storage", "provider", "voice", "speak", "notify",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}

	versionCmd.Flags().Bool("detailed", false, "Include build and codename details")

	rootCmd.AddCommand(shellCmd, batchCmd, execCmd, exportCmd, importCmd, versionCmd)

	cobra.OnInitialize(initConfig)
}

// initConfig reads jarvis.yaml from the working directory or the user config directory and
// lets JARVIS_* environment variables override it.
func initConfig() {
	viper.SetConfigName("jarvis")
	viper.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, "jarvis"))
	}
	viper.SetEnvPrefix("JARVIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configErr := viper.ReadInConfig()

	s := loadSettings(viper.GetViper())
	if err := logger.Configure(s.LogLevel, s.LogFile, s.TestMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	var notFound viper.ConfigFileNotFoundError
	switch {
	case configErr == nil:
		logger.Debug("Config file loaded", "path", viper.ConfigFileUsed())
	case !errors.As(configErr, &notFound):
		logger.Fatal("Failed to read config file", "error", configErr)
	}
}

// withApp runs fn against an app without a browser and exits on error.
func withApp(fn func(a *app) error) {
	a, err := newApp(loadSettings(viper.GetViper()))
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}
	defer a.Close()
	if err := fn(a); err != nil {
		a.Close()
		logger.Fatal("Command failed", "error", err)
	}
}

func runShell(_ *cobra.Command, _ []string) {
	logger.Info("Starting JARVIS", "version", version.GetVersion())

	a, err := newApp(loadSettings(viper.GetViper()))
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}
	defer a.Close()

	sh := ishell.New()
	sh.SetPrompt("jarvis> ")

	// Remove built-in commands so they reach the JARVIS grammar instead
	sh.DeleteCmd("exit")
	sh.DeleteCmd("help")

	if err := a.attach(context.Background(), nil, sh.Stop); err != nil {
		a.Close()
		logger.Fatal("Failed to start browser", "error", err)
	}

	sh.Println(version.GetFormattedVersion())
	sh.Println("Good day. Type '\\help' for commands, '\\examples' for ideas or '\\exit' to quit.")

	sh.NotFound(a.shell.ProcessInput)
	sh.Run()
}

func runBatch(_ *cobra.Command, args []string) {
	scriptPath := args[0]
	logger.Info("Starting JARVIS batch mode", "version", version.GetVersion(), "script", scriptPath)

	if err := validateScriptFile(scriptPath); err != nil {
		logger.Fatal("Script validation failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	withApp(func(a *app) error {
		if err := a.attach(ctx, nil, stop); err != nil {
			return err
		}
		lines, err := a.shell.RunBatchFile(ctx, shell.WriterPrinter{W: os.Stdout}, scriptPath)
		if err != nil {
			return err
		}
		logger.Info("Script executed successfully", "script", scriptPath, "lines", lines)
		return nil
	})
}

func runExec(_ *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	withApp(func(a *app) error {
		if err := a.attach(ctx, nil, stop); err != nil {
			return err
		}
		a.shell.Execute(ctx, shell.WriterPrinter{W: os.Stdout}, strings.Join(args, " "))
		a.dispatcher.Wait()
		return nil
	})
}
