package render

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
)

const (
	ToneSampleRate = 22050
	toneDuration   = 0.2
	toneSwitchAt   = 0.1
	toneStartGain  = 0.1
	toneEndGain    = 0.01
)

var (
	toneOnce sync.Once
	toneWAV  []byte
)

// Tone returns the notification cue as a mono 16-bit PCM WAV: 800Hz, then
// 600Hz after 0.1s, with gain decaying exponentially from 0.1 to 0.01.
func Tone() []byte {
	toneOnce.Do(func() { toneWAV = encodeWAV(toneSamples(), ToneSampleRate) })
	return toneWAV
}

func toneSamples() []int16 {
	n := int(ToneSampleRate * toneDuration)
	out := make([]int16, n)
	var phase float64
	for i := range out {
		t := float64(i) / ToneSampleRate
		freq := 800.0
		if t >= toneSwitchAt {
			freq = 600.0
		}
		gain := toneStartGain * math.Pow(toneEndGain/toneStartGain, t/toneDuration)
		out[i] = int16(gain * math.Sin(phase) * math.MaxInt16)
		phase += 2 * math.Pi * freq / ToneSampleRate
	}
	return out
}

func encodeWAV(samples []int16, rate int) []byte {
	dataLen := uint32(len(samples) * 2)
	var buf bytes.Buffer
	buf.Grow(44 + int(dataLen))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Size          uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}{16, 1, 1, uint32(rate), uint32(rate * 2), 2, 16})

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
