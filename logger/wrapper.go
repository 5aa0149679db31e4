package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// WrapProcess runs executable as a child process and exits with its exit code.
func WrapProcess(executable string, arg ...string) {
	gstLogger := NewLogger("Logs wrapper")
	defer handlePanic(gstLogger)

	exitCode, err := Supervise(os.Stdout, executable, arg...)
	if err != nil {
		gstLogger.Error().Err(err).Msg("Could not supervise main process")
	}
	os.Exit(exitCode)
}

// Supervise runs executable, forwards the JSON log lines it writes to stderr
// to out and collects everything from the first "panic" line on. A non-zero
// exit is logged together with the collected panic output.
func Supervise(out io.Writer, executable string, arg ...string) (int, error) {
	gstLogger := NewLogger("Logs wrapper").With().Str("executable", executable).Logger()

	cmd := exec.Command(executable, arg...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 1, fmt.Errorf("could not create pipe for logs: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("could not launch main process: %w", err)
	}

	panicLogsBuilder := strings.Builder{}
	foundPanic := false
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		foundPanic = handleLogLine(scanner.Bytes(), foundPanic, &panicLogsBuilder, out, gstLogger)
	}
	scanErr := scanner.Err()

	exitCode := exitCodeOf(cmd.Wait())
	if exitCode == 0 {
		gstLogger.Info().Msg("Exited with code 0")
	} else {
		gstLogger.Error().
			Err(errors.New(panicLogsBuilder.String())).
			Msgf("Panicked and exited with code: %d", exitCode)
	}
	if scanErr != nil {
		return exitCode, fmt.Errorf("scanning main process stderr: %w", scanErr)
	}
	return exitCode, nil
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func handleLogLine(logsLineBytes []byte, foundPanic bool, builder *strings.Builder, out io.Writer, gstLogger zerolog.Logger) bool {
	logsLine := string(logsLineBytes)
	if !foundPanic && strings.HasPrefix(logsLine, "panic") {
		foundPanic = true
	}
	switch {
	case len(logsLineBytes) == 0:
		return foundPanic
	case foundPanic:
		builder.WriteString(fmt.Sprintf("%s\n", logsLine))
	case isJSON(logsLineBytes):
		_, _ = fmt.Fprintln(out, logsLine)
	default:
		gstLogger.Error().Msgf("Got log line that is not JSON formatted: '%s'", logsLine)
	}
	return foundPanic
}

func handlePanic(gstLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	gstLogger.Fatal().
		Caller().
		Str("error", fmt.Sprint(r)).
		Str("stack_trace", string(debug.Stack())).
		Msg("Program panicked and exited")
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
