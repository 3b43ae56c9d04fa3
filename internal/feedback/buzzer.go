package feedback

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultGPIOPin is the BCM pin the kiosk buzzer is wired to.
	DefaultGPIOPin = 18
	// DefaultBeepDuration is how long one beep lasts.
	DefaultBeepDuration = 120 * time.Millisecond

	deviceModelPath = "/sys/firmware/devicetree/base/model"
	gpioRoot        = "/sys/class/gpio"
)

// IsRaspberryPi reports whether the device tree names a Raspberry Pi.
func IsRaspberryPi() bool {
	return isRaspberryPiModel(deviceModelPath)
}

func isRaspberryPiModel(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "raspberry pi")
}

// Buzzer drives a piezo buzzer through the sysfs GPIO interface. Beeps are
// switched off by a timer so callers never block.
type Buzzer struct {
	root     string
	pin      int
	duration time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// OpenBuzzer exports pin and configures it as an output.
func OpenBuzzer(pin int, duration time.Duration) (*Buzzer, error) {
	return openBuzzerAt(gpioRoot, pin, duration)
}

func openBuzzerAt(root string, pin int, duration time.Duration) (*Buzzer, error) {
	if pin <= 0 {
		pin = DefaultGPIOPin
	}
	if duration <= 0 {
		duration = DefaultBeepDuration
	}
	b := &Buzzer{root: root, pin: pin, duration: duration}
	if _, err := os.Stat(b.pinDir()); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(filepath.Join(root, "export"), []byte(strconv.Itoa(pin)), 0o200); err != nil {
			return nil, fmt.Errorf("export gpio %d: %w", pin, err)
		}
	}
	if err := os.WriteFile(filepath.Join(b.pinDir(), "direction"), []byte("out"), 0o644); err != nil {
		return nil, fmt.Errorf("set gpio %d direction: %w", pin, err)
	}
	if err := b.write(false); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buzzer) Success() { b.beep(b.duration) }

func (b *Buzzer) Entry() { b.beep(2 * b.duration) }

// Close turns the buzzer off. It is safe to call more than once.
func (b *Buzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	return b.write(false)
}

func (b *Buzzer) beep(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	if err := b.write(true); err != nil {
		return
	}
	b.timer = time.AfterFunc(d, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = b.write(false)
	})
}

func (b *Buzzer) pinDir() string {
	return filepath.Join(b.root, fmt.Sprintf("gpio%d", b.pin))
}

func (b *Buzzer) write(on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	if err := os.WriteFile(filepath.Join(b.pinDir(), "value"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write gpio %d: %w", b.pin, err)
	}
	return nil
}
