package audio

import "math"

// int16Scale converts normalized float samples to the 16-bit amplitude range
const int16Scale = 32768.0

// RMS returns the root-mean-square energy of the samples on the 16-bit scale
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) * int16Scale
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// ToInt16 converts float samples to clamped 16-bit PCM
func ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
	return out
}
