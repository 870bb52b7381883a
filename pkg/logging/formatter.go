package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// fieldOrder puts wallet and transaction context right after the message. Fields
// not listed follow in alphabetical order.
var fieldOrder = map[string]int{
	"wallet":  1,
	"chain":   2,
	"action":  3,
	"target":  4,
	"tx_hash": 5,
	"error":   6,
}

// highlighted fields are printed in green instead of cyan.
var highlighted = map[string]bool{
	"wallet":  true,
	"target":  true,
	"tx_hash": true,
	"error":   true,
}

// ColoredJSONFormatter prints one colored line per entry with wallet and
// transaction fields first.
type ColoredJSONFormatter struct {
	TimestampFormat string
	// Disable colors when not in terminal
	DisableColors bool
}

// NewColoredJSONFormatter returns the formatter with RFC3339 timestamps.
func NewColoredJSONFormatter() *ColoredJSONFormatter {
	return &ColoredJSONFormatter{TimestampFormat: time.RFC3339}
}

func (f *ColoredJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	level := f.paint(levelColor(entry.Level))
	fmt.Fprintf(b, "%s %s %s ",
		f.paint(color.New(color.FgYellow)).Sprint(entry.Time.Format(f.TimestampFormat)),
		level.Sprintf("%-7s", strings.ToUpper(entry.Level.String())),
		level.Sprint(entry.Message),
	)

	key := f.paint(color.New(color.FgCyan))
	important := f.paint(color.New(color.FgGreen))
	value := f.paint(color.New(color.FgWhite))

	for _, k := range sortedKeys(entry.Data) {
		c := key
		if highlighted[k] {
			c = important
		}
		b.WriteString(c.Sprintf("%s=", k))
		b.WriteString(value.Sprint(formatValue(entry.Data[k])))
		b.WriteByte(' ')
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *ColoredJSONFormatter) paint(c *color.Color) *color.Color {
	if f.DisableColors {
		c.DisableColor()
	}
	return c
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.FgBlue)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("%q", v.Error())
	case fmt.Stringer:
		return fmt.Sprintf("%q", v.String())
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := fieldOrder[keys[i]], fieldOrder[keys[j]]
		switch {
		case pi != 0 && pj != 0:
			return pi < pj
		case pi != 0:
			return true
		case pj != 0:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
