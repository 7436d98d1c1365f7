package lib

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/google/uuid"
	"github.com/promptvault/promptvault/client/hctx"
	"github.com/promptvault/promptvault/internal/database"
	"github.com/sirupsen/logrus"
)

const (
	ExitCommand = "exit"
	InputPrompt = "Enter your prompt (or 'exit' to quit): "
)

var separator = strings.Repeat("=", 40)

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Recorder interface {
	Store(ctx context.Context, prompt, response string) (*database.Exchange, error)
	RetrieveLast(ctx context.Context) (*database.Exchange, error)
}

type loop struct {
	completer Completer
	recorder  Recorder
	in        *bufio.Reader
	out       io.Writer
	stats     *statsd.Client
	logger    *logrus.Entry
}

type LoopOption func(*loop)

// WithStatsd reports completion latency and stored exchange counts to stats
func WithStatsd(stats *statsd.Client) LoopOption {
	return func(l *loop) {
		l.stats = stats
	}
}

func (l *loop) info(format string, args ...any) {
	Info(l.out, format, args...)
}

func (l *loop) success(format string, args ...any) {
	Success(l.out, format, args...)
}

// RunLoop reads prompts from in until it sees the exit command or runs out of input. Each prompt is
// sent to completer and a non-empty response is recorded and read back before the next prompt is read.
// Completion and storage errors end the loop and are returned.
func RunLoop(ctx context.Context, in io.Reader, out io.Writer, completer Completer, recorder Recorder, opts ...LoopOption) error {
	l := &loop{
		completer: completer,
		recorder:  recorder,
		in:        bufio.NewReader(in),
		out:       out,
		logger:    hctx.GetLogger().WithField("session_id", uuid.NewString()),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger.Info("Starting interactive loop")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		prompt, eof, err := l.readPrompt()
		if err != nil {
			return fmt.Errorf("failed to read prompt: %w", err)
		}
		if eof && prompt == "" {
			fmt.Fprintln(l.out)
			l.info("Reached end of input, exiting program...")
			return nil
		}
		if strings.ToLower(prompt) == ExitCommand {
			fmt.Fprintln(l.out)
			l.info("Exiting program...")
			fmt.Fprintln(l.out, "Goodbye!")
			l.logger.Info("Exiting interactive loop")
			return nil
		}
		if err := l.handlePrompt(ctx, prompt); err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

func (l *loop) readPrompt() (string, bool, error) {
	fmt.Fprintln(l.out, "\n"+separator)
	fmt.Fprint(l.out, InputPrompt)
	line, err := l.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, errors.Is(err, io.EOF), nil
}

func (l *loop) handlePrompt(ctx context.Context, prompt string) error {
	fmt.Fprintln(l.out)
	l.info("Connecting to the completion endpoint...")
	start := time.Now()
	response, err := l.completer.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("failed to get completion: %w", err)
	}
	elapsed := time.Since(start)
	l.success("Response received in %.2f seconds!", elapsed.Seconds())
	if l.stats != nil {
		l.stats.Timing("completion.latency", elapsed, []string{}, 1.0)
	}

	fmt.Fprintln(l.out)
	l.info("Formatting response...")
	l.success("Response formatted successfully!")
	if response == "" {
		l.logger.Infof("Skipping storage for prompt=%#v because the completion was empty", prompt)
		l.info("Received an empty response, nothing was stored")
		return nil
	}

	fmt.Fprintln(l.out)
	l.info("Storing data in database...")
	stored, err := l.recorder.Store(ctx, prompt, response)
	if err != nil {
		return err
	}
	l.success("Data stored successfully!")
	l.logger.Infof("Stored exchange id=%d", stored.Id)
	if l.stats != nil {
		l.stats.Incr("exchange.stored", []string{}, 1.0)
	}

	fmt.Fprintln(l.out)
	l.info("Retrieving last entry from database...")
	last, err := l.recorder.RetrieveLast(ctx)
	if err != nil {
		return err
	}
	l.success("Entry retrieved successfully!")
	if last != nil {
		DisplayExchange(l.out, last)
	}
	return nil
}
