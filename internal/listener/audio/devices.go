package audio

import "strings"

// DeviceInfo holds information about an audio input device
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// virtualTerms mark loopback, mixer and output devices that are never a
// real microphone
var virtualTerms = []string{
	"virtual",
	"vb-audio",
	"cable",
	"stereo mix",
	"mix",
	"loopback",
	"what u hear",
	"what-you-hear",
	"wave out",
	"output",
	"speaker",
	"monitor of",
	"line (voicemeeter",
	"ndis",
	"aux",
}

// IsVirtualDevice reports whether the device name looks like a virtual or
// loopback device
func IsVirtualDevice(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range virtualTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// ScoreDevice ranks how likely a device is the user's real microphone
func ScoreDevice(name string) int {
	lower := strings.ToLower(name)
	score := 0

	if containsAny(lower, "mic", "microphone", "array", "headset") {
		score += 100
	}
	if strings.Contains(lower, "usb") {
		score += 50
	}
	if containsAny(lower, "realtek", "intel", "high definition audio", "built-in", "internal") {
		score += 20
	}
	if strings.Contains(lower, "headphones") && !containsAny(lower, "mic", "microphone") {
		score -= 60
	}

	return score
}

// SelectInputDevice picks the best non-virtual device. The first device wins
// ties. ok is false when nothing qualifies and the system default should be
// used.
func SelectInputDevice(devices []DeviceInfo) (best DeviceInfo, ok bool) {
	bestScore := 0
	for _, dev := range devices {
		if dev.MaxInputChannels <= 0 || IsVirtualDevice(dev.Name) {
			continue
		}
		score := ScoreDevice(dev.Name)
		if !ok || score > bestScore {
			best, bestScore, ok = dev, score, true
		}
	}
	return best, ok
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
