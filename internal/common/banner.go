package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config) {
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 70
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` ███████ ████████  ██████   ██████ ██   ██ ██████  ██ ██       ██████  ████████`,
		` ██         ██    ██    ██ ██      ██  ██  ██   ██ ██ ██      ██    ██    ██`,
		` ███████    ██    ██    ██ ██      █████   ██████  ██ ██      ██    ██    ██`,
		`      ██    ██    ██    ██ ██      ██  ██  ██      ██ ██      ██    ██    ██`,
		` ███████    ██     ██████   ██████ ██   ██ ██      ██ ███████  ██████     ██`,
	}

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  %sversion%s   %s\n", lineColor, banner.ColorReset, GetFullVersion())
	fmt.Fprintf(os.Stderr, "  %senv%s       %s\n", lineColor, banner.ColorReset, config.Environment)
	fmt.Fprintf(os.Stderr, "  %sservice%s   %s\n", lineColor, banner.ColorReset, serviceURL)
	fmt.Fprintf(os.Stderr, "  %snarrative%s %s\n", lineColor, banner.ColorReset, config.Narrative.Backend)
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
}
