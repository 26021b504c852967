package calendar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/task"
)

// ParseHolidays reads one holiday per line in the form
// "YYYY-MM-DD, name". Blank lines and lines starting with '#' are skipped.
// Bad lines are reported in errs and do not stop the import; err is only
// set when reading fails.
func ParseHolidays(r io.Reader) (holidays []Holiday, errs []string, err error) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.SplitN(text, ",", 2)
		if len(parts) < 2 {
			errs = append(errs, fmt.Sprintf("Line %d: Invalid format", line))
			continue
		}
		date := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if _, perr := time.Parse(task.DateLayout, date); perr != nil {
			errs = append(errs, fmt.Sprintf("Line %d: Invalid date format '%s'", line, date))
			continue
		}
		holidays = append(holidays, Holiday{Date: date, Name: name})
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read holidays: %w", err)
	}
	return holidays, errs, nil
}
