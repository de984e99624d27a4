package estimate

import "math"

// DiscordTargetBytes is the fixed upload budget used by discord mode (9 MiB),
// matching the backend's constant.
const DiscordTargetBytes = 9 * 1024 * 1024

// MaxReductionPercent is the largest reduction the backend accepts.
const MaxReductionPercent = 99

// factors predicts output size relative to the source for each target
// resolution. Values above 1 are upscaling targets, below 1 downscaling,
// exactly 1 keeps the source resolution. The table is part of the observable
// contract; the UI estimate and the target-fit search both read it.
var factors = map[string]float64{
	"auto":  1.0,
	"2160p": 2.6,
	"1440p": 1.55,
	"1080p": 0.83,
	"720p":  0.52,
	"480p":  0.34,
	"360p":  0.22,
	"240p":  0.14,
	"144p":  0.08,
}

// searchOrder is the fixed iteration order of the target-fit search, from
// "keep the source" down to the smallest resolution.
var searchOrder = []string{"auto", "1080p", "720p", "480p", "360p", "240p", "144p"}

// Factor returns the size factor for a resolution choice. Unknown choices act
// like "auto".
func Factor(resolution string) float64 {
	if f, ok := factors[resolution]; ok {
		return f
	}
	return 1.0
}

// Resolutions returns the declared search order.
func Resolutions() []string {
	out := make([]string, len(searchOrder))
	copy(out, searchOrder)
	return out
}

// ClampPercent restricts a reduction percent to [0, MaxReductionPercent].
func ClampPercent(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > MaxReductionPercent {
		return MaxReductionPercent
	}
	return pct
}

// Estimate predicts the output size in bytes for a source size, a resolution
// choice, and a reduction percent. Linear in sourceBytes.
func Estimate(sourceBytes int64, resolution string, reductionPercent int) int64 {
	pct := ClampPercent(reductionPercent)
	predicted := float64(sourceBytes) * Factor(resolution) * (1 - float64(pct)/100)
	if predicted < 0 {
		return 0
	}
	return int64(math.Round(predicted))
}

// ReductionDisplay converts a (source, predicted) pair back into the percent
// shown to the user, rounded and clamped into [0, MaxReductionPercent].
func ReductionDisplay(sourceBytes, predictedBytes int64) int {
	if sourceBytes <= 0 {
		return 0
	}
	pct := 100 - float64(predictedBytes)/float64(sourceBytes)*100
	return ClampPercent(int(math.Round(pct)))
}

// FitTarget finds the (resolution, reductionPercent) pair that brings the
// predicted size under targetBytes. It walks the declared resolution order and
// selects the first resolution whose floor estimate (maximum reduction applied)
// already fits, paired with the percent actually needed. When nothing fits
// even at maximum reduction, it falls back to the smallest resolution at the
// maximum percent. Deterministic for fixed inputs.
func FitTarget(sourceBytes, targetBytes int64) (resolution string, reductionPercent int) {
	if sourceBytes <= 0 || targetBytes <= 0 {
		return searchOrder[0], 0
	}
	for _, res := range searchOrder {
		factor := Factor(res)
		scaled := float64(sourceBytes) * factor
		floor := scaled * (1 - float64(MaxReductionPercent)/100)
		if floor > float64(targetBytes) {
			continue
		}
		needed := (1 - float64(targetBytes)/scaled) * 100
		return res, ClampPercent(int(math.Round(needed)))
	}
	return searchOrder[len(searchOrder)-1], MaxReductionPercent
}

// WithinTarget reports whether a predicted size fits a byte budget.
func WithinTarget(predictedBytes, targetBytes int64) bool {
	return predictedBytes <= targetBytes
}
