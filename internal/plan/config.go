package plan

// Defaults mirror the reference two-AZ layout: a /16 tiled by four /18s.
const (
	DefaultVPCBlock = "192.168.0.0/16"
	DefaultAZCount  = 2
)

var (
	DefaultPublicSubnetBlocks  = []string{"192.168.0.0/18", "192.168.64.0/18"}
	DefaultPrivateSubnetBlocks = []string{"192.168.128.0/18", "192.168.192.0/18"}
)

// NetworkConfig is the input to Compile. Either explicit subnet blocks or
// subnet counts may be given per role; when no blocks are given at all the
// blocks are derived by splitting the VPC block evenly.
type NetworkConfig struct {
	Region              string
	VPCBlock            string
	PublicSubnetBlocks  []string
	PrivateSubnetBlocks []string
	PublicSubnetCount   int
	PrivateSubnetCount  int
	AZCount             int
	AvailabilityZones   []string
	NATPerAZ            bool
}

// DefaultNetworkConfig returns the configuration used when nothing is set.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		VPCBlock:            DefaultVPCBlock,
		PublicSubnetBlocks:  append([]string(nil), DefaultPublicSubnetBlocks...),
		PrivateSubnetBlocks: append([]string(nil), DefaultPrivateSubnetBlocks...),
		AZCount:             DefaultAZCount,
		NATPerAZ:            true,
	}
}

func (c NetworkConfig) explicitBlocks() bool {
	return len(c.PublicSubnetBlocks) > 0 || len(c.PrivateSubnetBlocks) > 0
}

func (c NetworkConfig) requestedPublic() int {
	if len(c.PublicSubnetBlocks) > 0 {
		return len(c.PublicSubnetBlocks)
	}
	return c.PublicSubnetCount
}

func (c NetworkConfig) requestedPrivate() int {
	if len(c.PrivateSubnetBlocks) > 0 {
		return len(c.PrivateSubnetBlocks)
	}
	return c.PrivateSubnetCount
}
