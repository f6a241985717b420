package audio

// Downmix сводит interleaved многоканальный сигнал в mono усреднением каналов.
func Downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// Resample меняет частоту mono сигнала линейной интерполяцией.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	n := int(int64(len(samples)) * int64(to) / int64(from))
	if n == 0 {
		return nil
	}

	out := make([]float32, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}
