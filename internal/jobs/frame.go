package jobs

import (
	"encoding/json"
	"strings"
)

// TaskCompressor is the frame discriminator for the compression slice; frames
// without it (or with any other value) belong to the download slice.
const TaskCompressor = "compressor"

// Frame is one inbound status message after alias normalization. Legacy field
// aliases are resolved here, once, so reducers never poke at raw field names.
type Frame struct {
	Task          string
	Progress      *float64
	Status        string
	SavedPath     string
	QueueFinished bool
	TargetDir     string

	// Compression result fields; present only on result-bearing frames.
	Filename        string
	FinalSize       int64
	FinalSizeHuman  string
	TargetSizeBytes int64
	TargetSizeHuman string
	Encoder         string
	HardwareMode    string
}

// rawFrame mirrors the wire schema, including every legacy alias.
type rawFrame struct {
	Task          string   `json:"task"`
	Progress      *float64 `json:"progress"`
	Pct           *float64 `json:"pct"`
	Percent       *float64 `json:"percent"`
	Status        *string  `json:"status"`
	SavedPath     string   `json:"saved_path"`
	Path          string   `json:"path"`
	OutputPath    string   `json:"output_path"`
	File          string   `json:"file"`
	QueueFinished bool     `json:"queue_finished"`
	TargetDir     string   `json:"target_dir"`

	Filename        string `json:"filename"`
	FinalSize       int64  `json:"final_size"`
	FinalSizeHuman  string `json:"final_size_human"`
	TargetSizeBytes int64  `json:"target_size_bytes"`
	TargetSizeHuman string `json:"target_size_human"`
	Encoder         string `json:"encoder"`
	HardwareMode    string `json:"hardware_mode"`
}

// ParseFrame decodes one wire message. Aliases resolve first-present-wins in
// the legacy order (progress|pct|percent, saved_path|path|output_path|file).
// A malformed payload returns an error; callers drop the frame.
func ParseFrame(data []byte) (Frame, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return Frame{}, err
	}
	f := Frame{
		Task:            raw.Task,
		QueueFinished:   raw.QueueFinished,
		TargetDir:       raw.TargetDir,
		Filename:        raw.Filename,
		FinalSize:       raw.FinalSize,
		FinalSizeHuman:  raw.FinalSizeHuman,
		TargetSizeBytes: raw.TargetSizeBytes,
		TargetSizeHuman: raw.TargetSizeHuman,
		Encoder:         raw.Encoder,
		HardwareMode:    raw.HardwareMode,
	}
	for _, p := range []*float64{raw.Progress, raw.Pct, raw.Percent} {
		if p != nil {
			f.Progress = p
			break
		}
	}
	if raw.Status != nil {
		f.Status = *raw.Status
	}
	for _, s := range []string{raw.SavedPath, raw.Path, raw.OutputPath, raw.File} {
		if s != "" {
			f.SavedPath = s
			break
		}
	}
	return f, nil
}

// ForCompressor reports which slice the frame belongs to.
func (f Frame) ForCompressor() bool { return f.Task == TaskCompressor }

// statusMarks reports lifecycle markers pattern-matched from free-form status
// text, case-insensitively. "cancel" also covers the backend's localized
// "cancelado".
func statusMarks(status string) (cancelled, errored, complete bool) {
	s := strings.ToLower(status)
	cancelled = strings.Contains(s, "cancel")
	errored = strings.Contains(s, "erro") // matches "error" and "erro na ..."
	complete = strings.Contains(s, "complete") || strings.Contains(s, "conclu")
	return
}

// result extracts the result payload carried by a compression frame and
// reports whether any result-bearing field was present.
func (f Frame) result() (Result, bool) {
	r := Result{
		Path:            f.SavedPath,
		Filename:        f.Filename,
		FinalSize:       f.FinalSize,
		FinalSizeHuman:  f.FinalSizeHuman,
		TargetSizeBytes: f.TargetSizeBytes,
		TargetSizeHuman: f.TargetSizeHuman,
		Encoder:         f.Encoder,
		HardwareMode:    f.HardwareMode,
	}
	present := r.Path != "" || r.Filename != "" || r.FinalSize > 0 ||
		r.FinalSizeHuman != "" || r.TargetSizeBytes > 0 || r.TargetSizeHuman != "" ||
		r.Encoder != "" || r.HardwareMode != ""
	return r, present
}
