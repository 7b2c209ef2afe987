package enums

import "fmt"

// DeviceType maps to the device_type enum in Postgres.
type DeviceType string

const (
	DeviceTypeSmartphone DeviceType = "smartphone"
	DeviceTypeTablet     DeviceType = "tablet"
	DeviceTypeLaptop     DeviceType = "laptop"
	DeviceTypeSmartwatch DeviceType = "smartwatch"
	DeviceTypeOther      DeviceType = "other"
)

var validDeviceTypes = []DeviceType{
	DeviceTypeSmartphone,
	DeviceTypeTablet,
	DeviceTypeLaptop,
	DeviceTypeSmartwatch,
	DeviceTypeOther,
}

// String implements fmt.Stringer.
func (d DeviceType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeviceType.
func (d DeviceType) IsValid() bool {
	for _, candidate := range validDeviceTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeviceType converts raw input into a DeviceType.
func ParseDeviceType(value string) (DeviceType, error) {
	for _, candidate := range validDeviceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device type %q", value)
}
