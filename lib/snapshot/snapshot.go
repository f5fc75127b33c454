package snapshot

import (
	"bufio"
	"context"
	"errors"
	"feedback-notifier/lib/feedback"
	"feedback-notifier/lib/telemetry"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("feedbacknotifier.lib.snapshot")

const TimestampLayout = "2006-01-02 15:04:05"

// the timestamp line and the blank line before the field lines
const headerLines = 2

var fieldLineRegex = map[feedback.Field]*regexp.Regexp{}

func init() {
	for _, f := range feedback.Fields {
		fieldLineRegex[f] = regexp.MustCompile(fmt.Sprintf(`%s:\s+([\d,]+)`, f.String()))
	}
}

// ParseError reports a field line of the snapshot file that did not have the
// expected `<field>: <value>` shape.
type ParseError struct {
	Field feedback.Field
	// 1-indexed line number in the file
	Line int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("old %s score not found", e.Field)
}

// Format renders a snapshot file.
func Format(record feedback.Record, timestamp time.Time) string {
	var out strings.Builder
	out.WriteString(timestamp.Format(TimestampLayout))
	out.WriteString("\n\n")
	for i, f := range feedback.Fields {
		if i > 0 {
			out.WriteString("\n")
		}
		fmt.Fprintf(&out, "%s: %s", f.String(), record.Get(f))
	}
	return out.String()
}

// lineReader yields the lines of a snapshot without a length limit, a
// file with a garbage line stays loadable.
type lineReader struct {
	reader *bufio.Reader
	done   bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r)}
}

// next returns the next line without its line ending. ok is false once the
// input is exhausted.
func (l *lineReader) next() (line string, ok bool, err error) {
	if l.done {
		return "", false, nil
	}
	line, err = l.reader.ReadString('\n')
	if errors.Is(err, io.EOF) {
		l.done = true
		if line == "" {
			return "", false, nil
		}
	} else if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

// Parse reads a snapshot from `r`. Fields whose line is missing or
// malformed keep feedback.MissingValue and are reported as *ParseError.
func Parse(r io.Reader) (feedback.Record, []error, error) {
	record := feedback.NewRecord()
	lines := newLineReader(r)

	for i := 0; i < headerLines; i++ {
		_, _, err := lines.next()
		if err != nil {
			return record, nil, err
		}
	}

	var errs []error
	for i, f := range feedback.Fields {
		line, _, err := lines.next()
		if err != nil {
			return record, nil, err
		}
		groups := fieldLineRegex[f].FindStringSubmatch(line)
		if len(groups) < 2 {
			errs = append(errs, &ParseError{Field: f, Line: headerLines + i + 1})
			continue
		}
		record.Set(f, groups[1])
	}

	return record, errs, nil
}

// Load reads the snapshot at `path`.
//
// The bool result is false when the file does not exist, that is a first
// run and not an error. The []error result holds the field lines that could
// not be parsed. The final error is for any other failure to read the file.
func Load(ctx context.Context, path string) (feedback.Record, bool, []error, error) {
	_, span := tracer.Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		span.AddEvent("no snapshot")
		return feedback.Record{}, false, nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open snapshot")
		return feedback.Record{}, false, nil, err
	}
	defer f.Close()

	record, errs, err := Parse(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read snapshot")
		return feedback.Record{}, false, nil, err
	}
	span.SetAttributes(attribute.Int("parse_errors", len(errs)))
	return record, true, errs, nil
}

// ReadTimestamp returns the time recorded on the first line of a snapshot,
// interpreted in `loc`.
func ReadTimestamp(path string, loc *time.Location) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	line, ok, err := newLineReader(f).next()
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, fmt.Errorf("empty snapshot file")
	}
	return time.ParseInLocation(TimestampLayout, strings.TrimSpace(line), loc)
}

const defaultMode os.FileMode = 0644

// saveTarget follows `path` through symlinks to the file that is actually
// replaced, along with the permissions it should keep.
func saveTarget(path string) (string, os.FileMode, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if errors.Is(err, os.ErrNotExist) {
		return path, defaultMode, nil
	}
	if err != nil {
		return "", 0, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", 0, err
	}
	return resolved, info.Mode().Perm(), nil
}

// Save replaces the snapshot at `path`. The contents are written to a
// temporary file in the same directory which is then renamed over `path`,
// so a failed write never leaves a truncated snapshot behind. A symlinked
// `path` stays a symlink and an existing file keeps its permissions.
func Save(ctx context.Context, path string, record feedback.Record, timestamp time.Time) (err error) {
	_, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save snapshot")
		}
	}()

	suffix, err := tempSuffix()
	if err != nil {
		return err
	}
	target, mode, err := saveTarget(path)
	if err != nil {
		return err
	}
	dir, base := filepath.Split(target)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, suffix))

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	// the umask applies to OpenFile
	err = tmp.Chmod(mode)
	if err != nil {
		return err
	}

	_, err = tmp.WriteString(Format(record, timestamp))
	if err != nil {
		return err
	}
	err = tmp.Sync()
	if err != nil {
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmpPath, target)
}

func tempSuffix() (string, error) {
	suffix, err := random.String(8)
	if err != nil {
		return "", err
	}
	// keep the temporary name a plain filename whatever the alphabet is
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return 'x'
	}, suffix), nil
}
