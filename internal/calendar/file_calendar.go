package calendar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

// FileProvider implements Provider using a local text file
type FileProvider struct {
	filePath string
	country  string
	logger   *zap.Logger

	mu   sync.RWMutex
	data []Holiday
}

// NewFileProvider creates a new FileProvider instance
func NewFileProvider(filePath string, logger *zap.Logger) *FileProvider {
	return &FileProvider{
		filePath: filePath,
		country:  DefaultCountry,
		logger:   logger,
	}
}

// Load reads calendar data from file, replacing what was loaded before
func (fp *FileProvider) Load() error {
	file, err := os.Open(fp.filePath)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	records, err := fp.parse(file)
	if err != nil {
		return err
	}

	fp.mu.Lock()
	fp.data = records
	fp.mu.Unlock()

	fp.logger.Info("Calendar file loaded",
		zap.String("file", fp.filePath),
		zap.Int("holidays", len(records)))

	return nil
}

// parse reads lines of the form
//
//	YYYY-MM-DD working|off type [name...]
//	2025-01-01 off public New Year's Day
//
// Blank lines and lines starting with # are ignored. Malformed lines are
// logged and skipped.
func (fp *FileProvider) parse(r io.Reader) ([]Holiday, error) {
	scanner := bufio.NewScanner(r)
	var records []Holiday
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 3 {
			fp.logger.Warn("Invalid line format",
				zap.Int("line_no", lineNo),
				zap.String("line", line))
			continue
		}

		date, err := dateutil.ParseDate(parts[0])
		if err != nil {
			fp.logger.Warn("Failed to parse date",
				zap.Int("line_no", lineNo),
				zap.String("date", parts[0]),
				zap.Error(err))
			continue
		}

		var isWorkingDay bool
		switch strings.ToLower(parts[1]) {
		case "working", "workday", "shortened":
			isWorkingDay = true
		case "off", "holiday", "nonworking":
			isWorkingDay = false
		default:
			fp.logger.Warn("Unknown day kind",
				zap.Int("line_no", lineNo),
				zap.String("kind", parts[1]))
			continue
		}

		records = append(records, Holiday{
			Date:         date,
			Name:         strings.Join(parts[3:], " "),
			Type:         parts[2],
			IsWorkingDay: isWorkingDay,
			CountryCode:  fp.country,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading calendar file: %w", err)
	}

	return records, nil
}

// FetchAll reloads the file and returns every record in it
func (fp *FileProvider) FetchAll(ctx context.Context) ([]Holiday, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := fp.Load(); err != nil {
		return nil, err
	}

	fp.mu.RLock()
	defer fp.mu.RUnlock()

	out := make([]Holiday, len(fp.data))
	copy(out, fp.data)
	sortByDate(out)
	return out, nil
}

// FetchRange returns the records between from and to
func (fp *FileProvider) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	all, err := fp.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterRange(all, from, to), nil
}

// WriteHolidays writes records in the format FileProvider reads. The type is
// a single field, so whitespace inside it becomes "-"; names are kept on one
// line.
func WriteHolidays(w io.Writer, records []Holiday) error {
	bw := bufio.NewWriter(w)
	for _, h := range records {
		kind := "off"
		if h.IsWorkingDay {
			kind = "working"
		}
		typ := strings.Join(strings.Fields(h.Type), "-")
		if typ == "" {
			typ = TypePublic
		}
		name := strings.Join(strings.Fields(h.Name), " ")
		line := strings.TrimSpace(fmt.Sprintf("%s %s %s %s", dateutil.Format(h.Date), kind, typ, name))
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return fmt.Errorf("failed to write holiday: %w", err)
		}
	}
	return bw.Flush()
}
