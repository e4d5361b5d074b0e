package domain

// PedestalStatus describes the operational state of a berth pedestal.
type PedestalStatus string

const (
	PedestalAvailable   PedestalStatus = "available"
	PedestalOccupied    PedestalStatus = "occupied"
	PedestalMaintenance PedestalStatus = "maintenance"
	PedestalOffline     PedestalStatus = "offline"
)

// Pedestal is a berth-side utility pedestal supplying water and electricity.
// AccessCode is the stored secret compared during verification and must never
// be exposed through non-admin surfaces.
type Pedestal struct {
	ID                 string
	MarinaID           string
	BerthNumber        string
	Status             PedestalStatus
	WaterEnabled       bool
	ElectricityEnabled bool
	WaterUsage         float64
	ElectricityUsage   float64
	CurrentUserID      *string
	LocationX          float64
	LocationY          float64
	AccessCode         string
}

// ServiceUpdate carries the utility toggles of a control request. Nil fields
// are left unchanged.
type ServiceUpdate struct {
	WaterEnabled       *bool
	ElectricityEnabled *bool
}

// Empty reports whether the update changes nothing.
func (u ServiceUpdate) Empty() bool {
	return u.WaterEnabled == nil && u.ElectricityEnabled == nil
}
