package task

import (
	"fmt"
	"strconv"
	"strings"
)

// Wire delimiters for the task-result protocol (spec §6). These are
// distinct from the messaging package's END_OF_MESSAGE framing
// delimiter: they separate fields *within* a single message payload.
const (
	taskResultDelim     = "\x01"
	taskResultListDelim = "\x02"
	fileSourceDelim     = "\x03"
)

// EncodeTaskResult renders a single task result as
// "job-id<TRD>task-id<TRD>serialized-value".
func EncodeTaskResult[T any](jobID int64, taskID int, value T, codec Codec[T]) (string, error) {
	encoded, err := codec.Encode(value)
	if err != nil {
		return "", fmt.Errorf("task: encode result: %w", err)
	}
	return strings.Join([]string{
		strconv.FormatInt(jobID, 10),
		strconv.Itoa(taskID),
		encoded,
	}, taskResultDelim), nil
}

// DecodeTaskResult parses a single encoded task result.
func DecodeTaskResult[T any](s string, codec Codec[T]) (jobID int64, taskID int, value T, err error) {
	parts := strings.SplitN(s, taskResultDelim, 3)
	if len(parts) != 3 {
		err = fmt.Errorf("task: malformed task result %q", s)
		return
	}
	jobID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		err = fmt.Errorf("task: malformed job id: %w", err)
		return
	}
	taskID, err = strconv.Atoi(parts[1])
	if err != nil {
		err = fmt.Errorf("task: malformed task id: %w", err)
		return
	}
	value, err = codec.Decode(parts[2])
	if err != nil {
		err = fmt.Errorf("task: decode value: %w", err)
		return
	}
	return
}

// EncodeTaskResultList joins pre-encoded entries into a
// "entry1<TRLD>entry2<TRLD>..." list payload.
func EncodeTaskResultList(entries []string) string {
	return strings.Join(entries, taskResultListDelim)
}

// DecodeTaskResultList splits a list payload back into its entries. An
// empty payload yields an empty (non-nil) slice.
func DecodeTaskResultList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, taskResultListDelim)
}

// FileSource describes an external file-backed partition source. The
// file-transfer mechanism itself is out of scope for this module; only
// the descriptor's wire format is implemented here, per spec §6.
type FileSource struct {
	Source     string
	Path       string
	Length     int64
	ListenPort int
	Location   string
	Format     string // "byte" or "line"
}

// MarshalFileSource renders the descriptor as
// "source<FSD>path<FSD>length<FSD>listen-port<FSD>location<FSD>format".
func MarshalFileSource(fs FileSource) string {
	return strings.Join([]string{
		fs.Source,
		fs.Path,
		strconv.FormatInt(fs.Length, 10),
		strconv.Itoa(fs.ListenPort),
		fs.Location,
		fs.Format,
	}, fileSourceDelim)
}

// ParseFileSource parses a descriptor produced by MarshalFileSource.
func ParseFileSource(s string) (FileSource, error) {
	parts := strings.Split(s, fileSourceDelim)
	if len(parts) != 6 {
		return FileSource{}, fmt.Errorf("task: malformed file source descriptor %q", s)
	}
	length, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return FileSource{}, fmt.Errorf("task: malformed file source length: %w", err)
	}
	port, err := strconv.Atoi(parts[3])
	if err != nil {
		return FileSource{}, fmt.Errorf("task: malformed file source listen port: %w", err)
	}
	format := parts[5]
	if format != "byte" && format != "line" {
		return FileSource{}, fmt.Errorf("task: unknown file source format %q", format)
	}
	return FileSource{
		Source:     parts[0],
		Path:       parts[1],
		Length:     length,
		ListenPort: port,
		Location:   parts[4],
		Format:     format,
	}, nil
}
