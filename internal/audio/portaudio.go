package audio

import (
	"fmt"
	"log"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource открывает микрофон через PortAudio.
type PortAudioSource struct {
	deviceName string
}

// NewPortAudioSource инициализирует PortAudio.
// deviceName - предпочтительное устройство ввода (пустая строка - устройство по умолчанию).
func NewPortAudioSource(deviceName string) (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("ошибка инициализации PortAudio: %w", err)
	}
	return &PortAudioSource{deviceName: deviceName}, nil
}

// InputDevices возвращает имена устройств с входными каналами.
func (s *PortAudioSource) InputDevices() ([]string, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

// Open выбирает устройство и открывает blocking-поток.
func (s *PortAudioSource) Open(format Format, framesPerBuffer int) (Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить список устройств: %w", err)
	}

	// Отсутствие устройства по умолчанию не ошибка - ниже есть fallback
	def, _ := portaudio.DefaultInputDevice()

	device, err := selectDevice(devices, s.deviceName, def)
	if err != nil {
		return nil, err
	}
	log.Printf("Устройство ввода: %s", device.Name)

	buffer := make([]float32, framesPerBuffer*format.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: format.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть поток %q: %w", device.Name, err)
	}

	return &portAudioStream{stream: stream, buffer: buffer}, nil
}

// Close завершает работу PortAudio.
func (s *PortAudioSource) Close() error {
	return portaudio.Terminate()
}

// selectDevice выбирает устройство ввода: сначала по имени, затем устройство
// по умолчанию, затем первое устройство с входными каналами.
func selectDevice(devices []*portaudio.DeviceInfo, preferred string, def *portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
	if preferred != "" {
		for _, d := range devices {
			if d != nil && d.MaxInputChannels > 0 && strings.EqualFold(d.Name, preferred) {
				return d, nil
			}
		}
		log.Printf("Устройство %q не найдено, используем устройство по умолчанию", preferred)
	}

	if def != nil && def.MaxInputChannels > 0 {
		return def, nil
	}

	for _, d := range devices {
		if d != nil && d.MaxInputChannels > 0 {
			return d, nil
		}
	}

	return nil, ErrNoInputDevice
}

type portAudioStream struct {
	stream *portaudio.Stream
	buffer []float32
}

func (s *portAudioStream) Start() error {
	return s.stream.Start()
}

func (s *portAudioStream) Read() ([]float32, error) {
	// Переполнение входного буфера не фатально - данные в буфере валидны
	if err := s.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, err
	}

	block := make([]float32, len(s.buffer))
	copy(block, s.buffer)
	return block, nil
}

func (s *portAudioStream) Stop() error {
	return s.stream.Stop()
}

func (s *portAudioStream) Close() error {
	return s.stream.Close()
}
