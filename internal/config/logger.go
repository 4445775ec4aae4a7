package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// SetupLogger installs a charmbracelet-backed slog logger as the default
func SetupLogger(cfg *Config) *slog.Logger {
	return setupLogger(os.Stdout, cfg)
}

func setupLogger(w io.Writer, cfg *Config) *slog.Logger {
	styles := log.DefaultStyles()
	infoColor := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnColor := lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugColor := lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}

	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("❌").Bold(true).Padding(0, 1).Foreground(errorColor)
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("⚠️").Bold(true).Padding(0, 1).Foreground(warnColor)
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("✅").Bold(true).Padding(0, 1).Foreground(infoColor)
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().SetString("🐛").Bold(true).Padding(0, 1).Foreground(debugColor)
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(errorColor)
	styles.Values["error"] = lipgloss.NewStyle().Bold(true)

	formatter := log.TextFormatter
	if strings.EqualFold(cfg.Log.Format, "json") {
		formatter = log.JSONFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.IsDev(),
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           parseLevel(cfg.Log.Level, cfg.IsDev()),
		Prefix:          "[portal]",
		Formatter:       formatter,
	})
	logger.SetStyles(styles)

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}

func parseLevel(s string, dev bool) log.Level {
	if s == "" {
		if dev {
			return log.DebugLevel
		}
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
