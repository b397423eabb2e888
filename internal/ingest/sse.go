package ingest

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// maxLineBytes bounds a single SSE line. Steps with many teaching events
// can be large, so this is well above bufio's default. An event with a
// longer line is dropped and the stream carries on.
const maxLineBytes = 4 << 20

// readEvents parses a text/event-stream body and calls onEvent once per
// dispatched event. Comments and id/retry fields are ignored. An event
// without an explicit name is dispatched as "message". A trailing event not
// terminated by a blank line is discarded, as browsers do.
func readEvents(r io.Reader, onEvent func(event, data string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		eventName string
		dataLines []string
		hasData   bool
		oversized bool
	)

	dispatch := func() error {
		skip := !hasData || oversized
		name := eventName
		if name == "" {
			name = "message"
		}
		data := strings.Join(dataLines, "\n")
		eventName, dataLines, hasData, oversized = "", nil, false, false
		if skip {
			return nil
		}
		return onEvent(name, data)
	}

	for {
		line, tooLong, err := readLine(br)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil
		if eof && line == "" && !tooLong {
			return nil
		}

		switch {
		case tooLong:
			oversized = true
		case line == "":
			if err := dispatch(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				eventName = value
			case "data":
				dataLines = append(dataLines, value)
				hasData = true
			}
		}

		if eof {
			return nil
		}
	}
}

// readLine returns the next line without its terminator. A line longer
// than maxLineBytes is consumed up to its newline and reported as tooLong
// with no content.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes+2 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line = strings.TrimSuffix(strings.TrimSuffix(string(buf), "\n"), "\r")
		return line, tooLong, err
	}
}
