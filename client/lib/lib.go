package lib

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/fatih/color"
	"github.com/promptvault/promptvault/client/hctx"
	"github.com/promptvault/promptvault/internal/database"
	"github.com/rodaine/table"
	"github.com/samber/lo"
)

var (
	Version   string = "Unknown"
	GitCommit string = "Unknown"
)

const maxDisplayedColumnWidth = 60

var (
	infoFmt    = color.New(color.FgCyan).SprintFunc()
	successFmt = color.New(color.FgGreen).SprintFunc()
)

// Info prints a progress line for the user.
func Info(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, infoFmt("[INFO] "+fmt.Sprintf(format, args...)))
}

func Success(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, successFmt("[SUCCESS] "+fmt.Sprintf(format, args...)))
}

func CheckFatalError(err error) {
	if err != nil {
		_, filename, line, _ := runtime.Caller(1)
		hctx.GetLogger().Errorf("fatal error at %s:%d: %v", filename, line, err)
		log.Fatalf("promptvault v0.%s fatal error at %s:%d: %v", Version, filename, line, err)
	}
}

// MakeStatsdClient returns nil when no statsd address is configured.
func MakeStatsdClient(config *hctx.ClientConfig) (*statsd.Client, error) {
	if config.StatsdAddress == "" {
		return nil, nil
	}
	client, err := statsd.New(config.StatsdAddress, statsd.WithNamespace("promptvault."))
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client for %#v: %w", config.StatsdAddress, err)
	}
	return client, nil
}

// DisplayExchanges prints exchanges oldest first as a table, truncating long prompts and responses.
func DisplayExchanges(out io.Writer, entries []*database.Exchange) {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	tbl := table.New("ID", "Prompt", "Response")
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(out)

	ordered := lo.Reverse(append([]*database.Exchange{}, entries...))
	for _, entry := range ordered {
		tbl.AddRow(entry.Id, oneLine(entry.Prompt), oneLine(entry.Response))
	}

	tbl.Print()
}

func oneLine(s string) string {
	return lo.Ellipsis(strings.Join(strings.Fields(s), " "), maxDisplayedColumnWidth)
}

// DisplayExchange prints a single stored exchange in full.
func DisplayExchange(out io.Writer, entry *database.Exchange) {
	fmt.Fprintln(out, "\n=== Stored Data ===")
	fmt.Fprintf(out, "Prompt: %s\n", entry.Prompt)
	fmt.Fprintf(out, "Response: %s\n", entry.Response)
	fmt.Fprintln(out, separator+"\n")
}
