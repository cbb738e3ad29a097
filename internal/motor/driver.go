package motor

// Channel indices for the two drive sides.
const (
	ChannelLeft  = 0
	ChannelRight = 1
)

// driver is the minimal interface the executor needs from an H-bridge
// backend.
//
// Duty is expressed in percent (0..100). Brake shorts both bridge inputs
// high so the wheel resists motion instead of coasting.
//
// Close should be best-effort and leave both channels braked.
type driver interface {
	SetChannel(ch int, forward bool, dutyPercent float64) error
	Brake(ch int) error
	Close() error
}

// Pins is the BCM GPIO assignment of one H-bridge (e.g. L298N): per side two
// direction inputs plus an enable line.
type Pins struct {
	In1    int `yaml:"in1"`
	In2    int `yaml:"in2"`
	Enable int `yaml:"enable"`
}
