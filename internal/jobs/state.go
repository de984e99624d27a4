package jobs

// Kind selects one of the two independent job slices.
type Kind int

const (
	Download Kind = iota
	Compression
)

func (k Kind) String() string {
	if k == Compression {
		return "compression"
	}
	return "download"
}

// Phase is the lifecycle position of a job.
type Phase int

const (
	Idle Phase = iota
	Requesting
	Running
	Finishing
	Done
	Cancelled
	Errored
)

var phaseNames = [...]string{"idle", "requesting", "running", "finishing", "done", "cancelled", "errored"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether the phase allows a new job of the same kind to
// start.
func (p Phase) Terminal() bool {
	switch p {
	case Idle, Done, Cancelled, Errored:
		return true
	}
	return false
}

// Result is the structured payload of a finished job. Compression results
// accumulate across several frames, so fields merge rather than replace.
type Result struct {
	Path            string
	Filename        string
	FinalSize       int64
	FinalSizeHuman  string
	TargetSizeBytes int64
	TargetSizeHuman string
	Encoder         string
	HardwareMode    string
}

// merge copies the non-zero fields of other into r.
func (r *Result) merge(other Result) {
	if other.Path != "" {
		r.Path = other.Path
	}
	if other.Filename != "" {
		r.Filename = other.Filename
	}
	if other.FinalSize > 0 {
		r.FinalSize = other.FinalSize
	}
	if other.FinalSizeHuman != "" {
		r.FinalSizeHuman = other.FinalSizeHuman
	}
	if other.TargetSizeBytes > 0 {
		r.TargetSizeBytes = other.TargetSizeBytes
	}
	if other.TargetSizeHuman != "" {
		r.TargetSizeHuman = other.TargetSizeHuman
	}
	if other.Encoder != "" {
		r.Encoder = other.Encoder
	}
	if other.HardwareMode != "" {
		r.HardwareMode = other.HardwareMode
	}
}

// JobState is one job slice as exposed to readers.
type JobState struct {
	Phase    Phase
	Progress float64
	Status   string
	Result   *Result
}

// ClampProgress saturates a reported percentage into [0,100]. Out-of-range
// input is clamped, never rejected.
func ClampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
