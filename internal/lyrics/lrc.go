// Package lyrics reads and writes timed lyrics in LRC format.
package lyrics

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/spotbridge/internal/engine"
)

// Meta holds the optional LRC header tags.
type Meta struct {
	Title  string
	Artist string
	Album  string
}

var (
	// [00:12.34], [00:12:34] or [00:12]
	timestampRe = regexp.MustCompile(`\[(\d+):(\d+)(?:[.:](\d+))?\]`)

	// [ar:Artist Name]
	metadataRe = regexp.MustCompile(`^\[([a-z]+):(.+)\]$`)
)

// Parse reads LRC lyrics. Lines without a timestamp are skipped and the
// result is sorted by start time.
func Parse(r io.Reader) ([]engine.LyricsLine, Meta, error) {
	var (
		lines []engine.LyricsLine
		meta  Meta
	)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := metadataRe.FindStringSubmatch(line); m != nil {
			value := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "ar":
				meta.Artist = value
			case "ti":
				meta.Title = value
			case "al":
				meta.Album = value
			}
			continue
		}

		// One text may carry several timestamps: [00:12.34][00:45.67]Text
		matches := timestampRe.FindAllStringSubmatch(line, -1)
		if len(matches) == 0 {
			continue
		}
		text := strings.TrimSpace(timestampRe.ReplaceAllString(line, ""))

		for _, m := range matches {
			ts, err := parseTimestamp(m)
			if err != nil {
				continue
			}
			lines = append(lines, engine.LyricsLine{Start: ts, Words: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, Meta{}, err
	}

	slices.SortStableFunc(lines, func(a, b engine.LyricsLine) int {
		return int(a.Start - b.Start)
	})
	return lines, meta, nil
}

func parseTimestamp(m []string) (time.Duration, error) {
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, err
	}

	var millis int
	if m[3] != "" {
		millis, err = strconv.Atoi(m[3])
		if err != nil {
			return 0, err
		}
		switch len(m[3]) {
		case 1:
			millis *= 100
		case 2:
			millis *= 10
		}
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// Write encodes lines as LRC with centisecond timestamps.
func Write(w io.Writer, meta Meta, lines []engine.LyricsLine) error {
	bw := bufio.NewWriter(w)
	for _, tag := range []struct{ key, value string }{
		{"ti", meta.Title}, {"ar", meta.Artist}, {"al", meta.Album},
	} {
		if tag.value != "" {
			fmt.Fprintf(bw, "[%s:%s]\n", tag.key, tag.value)
		}
	}
	for _, l := range lines {
		fmt.Fprintf(bw, "[%s]%s\n", formatTimestamp(l.Start), l.Words)
	}
	return bw.Flush()
}

func formatTimestamp(d time.Duration) string {
	d = max(d, 0)
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, cs/100%60, cs%100)
}

// LineAt returns the index of the line active at pos, or -1 before the first
// line.
func LineAt(lines []engine.LyricsLine, pos time.Duration) int {
	idx := -1
	for i, l := range lines {
		if l.Start > pos {
			break
		}
		idx = i
	}
	return idx
}
