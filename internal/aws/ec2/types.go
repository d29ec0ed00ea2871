package ec2

// AvailabilityZone is one zone of the configured region.
type AvailabilityZone struct {
	Name  string
	ID    string
	State string
	Type  string // availability-zone, local-zone, wavelength-zone
}
