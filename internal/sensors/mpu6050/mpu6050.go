// Package mpu6050 drives the rover's IMU over I2C.
//
// The heading filter wants raw counts, so reads return int16 register
// values; scaling to physical units happens in the filter with the
// full-scale settings chosen here (gyro ±250 dps, accel ±2 g).
package mpu6050

import (
	"fmt"
	"time"

	"rovernav/internal/i2c"
)

var sleep = time.Sleep

const (
	addrDefault = 0x68

	regSmplrtDiv   = 0x19
	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXoutH  = 0x3B // contiguous XYZ block, 6 bytes
	regGyroZoutH   = 0x47
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	whoAmIVal = 0x68
	bitReset  = 0x80

	fsGyro250dps = 0x00
	fsAccel2g    = 0x00
)

// GyroSensitivity is counts per deg/s at the ±250 dps full scale.
const GyroSensitivity = 131.0

type Device struct {
	dev regIO
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

func DefaultAddress() uint16 { return addrDefault }

func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("mpu6050: dev is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev regIO) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("mpu6050: dev is nil")
	}
	d := &Device{dev: dev}

	who, err := d.dev.ReadRegU8(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("mpu6050: whoami read failed: %w", err)
	}
	if who != whoAmIVal {
		return nil, fmt.Errorf("mpu6050: whoami=0x%02X want 0x%02X", who, whoAmIVal)
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	if err := d.dev.WriteReg(regPwrMgmt1, bitReset); err != nil {
		return fmt.Errorf("mpu6050: reset failed: %w", err)
	}
	sleep(100 * time.Millisecond)

	// Wake with the X gyro PLL as clock source.
	if err := d.dev.WriteReg(regPwrMgmt1, 0x01); err != nil {
		return fmt.Errorf("mpu6050: wake failed: %w", err)
	}
	sleep(10 * time.Millisecond)

	// 1 kHz internal rate / (1+4) = 200 Hz, DLPF at 44 Hz.
	if err := d.dev.WriteReg(regSmplrtDiv, 0x04); err != nil {
		return fmt.Errorf("mpu6050: sample rate failed: %w", err)
	}
	if err := d.dev.WriteReg(regConfig, 0x03); err != nil {
		return fmt.Errorf("mpu6050: dlpf failed: %w", err)
	}
	if err := d.dev.WriteReg(regGyroConfig, fsGyro250dps); err != nil {
		return fmt.Errorf("mpu6050: gyro config failed: %w", err)
	}
	if err := d.dev.WriteReg(regAccelConfig, fsAccel2g); err != nil {
		return fmt.Errorf("mpu6050: accel config failed: %w", err)
	}
	return nil
}

// ReadAccel returns raw accelerometer counts for all three axes.
func (d *Device) ReadAccel() (ax, ay, az int16, err error) {
	var buf [6]byte
	if err := d.dev.ReadReg(regAccelXoutH, buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("mpu6050: accel read failed: %w", err)
	}
	ax = int16(uint16(buf[0])<<8 | uint16(buf[1]))
	ay = int16(uint16(buf[2])<<8 | uint16(buf[3]))
	az = int16(uint16(buf[4])<<8 | uint16(buf[5]))
	return ax, ay, az, nil
}

// ReadGyroZ returns the raw Z-axis rate in counts.
func (d *Device) ReadGyroZ() (int16, error) {
	var buf [2]byte
	if err := d.dev.ReadReg(regGyroZoutH, buf[:]); err != nil {
		return 0, fmt.Errorf("mpu6050: gyro read failed: %w", err)
	}
	return int16(uint16(buf[0])<<8 | uint16(buf[1])), nil
}
