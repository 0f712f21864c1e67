package j1939

import "fmt"

// Address is a well known J1939 source address.
type Address uint8

const (
	PrimaryEngineController       Address = 0
	SecondaryEngineController     Address = 1
	PrimaryTransmissionController Address = 3
	TransmissionShiftSelector     Address = 5
	Brakes                        Address = 11
	Retarder                      Address = 15
	CruiseControl                 Address = 17
	FuelSystem                    Address = 18
	SteeringController            Address = 19
	InstrumentCluster             Address = 23
	ClimateControl1               Address = 25
	Compass                       Address = 28
	BodyController                Address = 33
	OffVehicleGateway             Address = 37
	DidVid                        Address = 40
	RetarderExhaustEngine1        Address = 41
	HeadwayController             Address = 42
	Suspension                    Address = 47
	CabController                 Address = 49
	TirePressureController        Address = 51
	LightingControlModule         Address = 55
	ClimateControl2               Address = 58
	ExhaustEmissionController     Address = 61
	AuxiliaryHeater               Address = 69
	ChassisController             Address = 71
	CommunicationsUnit            Address = 74
	Radio                         Address = 76
	SafetyRestraintSystem         Address = 83
	AftertreatmentControlModule   Address = 85
	MultiPurposeCamera            Address = 127
	SwitchExpansionModule         Address = 128
	AuxiliaryGaugeSwitchPack      Address = 132
	Iteris                        Address = 139
	QualcommPeopleNetTranslator   Address = 142
	StandAloneRealTimeClock       Address = 150
	CenterPanel1                  Address = 151
	CenterPanel2                  Address = 152
	CenterPanel3                  Address = 153
	CenterPanel4                  Address = 154
	CenterPanel5                  Address = 155
	WabcoOnGuardRadar             Address = 160
	SecondaryInstrumentCluster    Address = 167
	OffboardDiagnostics           Address = 172
	Trailer3Bridge                Address = 184
	Trailer2Bridge                Address = 192
	Trailer1Bridge                Address = 200
	SafetyDirectProcessor         Address = 209
	ForwardRoadImageProcessor     Address = 232
	LeftRearDoorPod               Address = 233
	RightRearDoorPod              Address = 234
	DoorController1               Address = 236
	DoorController2               Address = 237
	Tachograph                    Address = 238
	HybridSystem                  Address = 239
	AuxiliaryPowerUnit            Address = 247
	ServiceTool                   Address = 249
	SourceAddressRequest0         Address = 254
	SourceAddressRequest1         Address = 255
)

var addressNames = map[Address]string{
	PrimaryEngineController:       "Primary Engine Controller | (CPC, ECM)",
	SecondaryEngineController:     "Secondary Engine Controller | (MCM, ECM #2)",
	PrimaryTransmissionController: "Primary Transmission Controller | (TCM)",
	TransmissionShiftSelector:     "Transmission Shift Selector | (TSS)",
	Brakes:                        "Brakes | System Controller (ABS)",
	Retarder:                      "Retarder",
	CruiseControl:                 "Cruise Control | (IPM, PCC)",
	FuelSystem:                    "Fuel System | Controller (CNG)",
	SteeringController:            "Steering Controller | (SAS)",
	InstrumentCluster:             "Instrument Gauge Cluster (EGC) | (ICU, RX)",
	ClimateControl1:               "Climate Control #1 | (FCU)",
	Compass:                       "Compass",
	BodyController:                "Body Controller | (SSAM, SAM-CAB, BHM)",
	OffVehicleGateway:             "Off-Vehicle Gateway | (CGW)",
	DidVid:                        "Vehicle Information Display | Driver Information Display",
	RetarderExhaustEngine1:        "Retarder, Exhaust, Engine #1",
	HeadwayController:             "Headway Controller | (RDF) | (OnGuard)",
	Suspension:                    "Suspension | System Controller (ECAS)",
	CabController:                 "Cab Controller | Primary (MSF, SHM, ECC)",
	TirePressureController:        "Tire Pressure Controller | (TPMS)",
	LightingControlModule:         "Lighting Control Module | (LCM)",
	ClimateControl2:               "Climate Control #2 | Rear HVAC | (ParkSmart)",
	ExhaustEmissionController:     "Exhaust Emission Controller | (ACM) | (DCU)",
	AuxiliaryHeater:               "Auxiliary Heater | (ACU)",
	ChassisController:             "Chassis Controller | (CHM, SAM-Chassis)",
	CommunicationsUnit:            "Communications Unit | Cellular (CTP, VT)",
	Radio:                         "Radio",
	SafetyRestraintSystem:         "Safety Restraint System | Air Bag | (SRS)",
	AftertreatmentControlModule:   "Aftertreatment Control Module | (ACM)",
	MultiPurposeCamera:            "Multi-Purpose Camera | (MPC)",
	SwitchExpansionModule:         "Switch Expansion Module | (SEM #1)",
	AuxiliaryGaugeSwitchPack:      "Auxiliary Gauge Switch Pack | (AGSP3)",
	Iteris:                        "Iteris",
	QualcommPeopleNetTranslator:   "Qualcomm - PeopleNet Translator Box",
	StandAloneRealTimeClock:       "Stand-Alone Real Time Clock | (SART)",
	CenterPanel1:                  "Center Panel MUX Switch Pack #1",
	CenterPanel2:                  "Center Panel MUX Switch Pack #2",
	CenterPanel3:                  "Center Panel MUX Switch Pack #3",
	CenterPanel4:                  "Center Panel MUX Switch Pack #4",
	CenterPanel5:                  "Center Panel MUX Switch Pack #5",
	WabcoOnGuardRadar:             "Wabco OnGuard Radar | OnGuard Display | Collision Mitigation System",
	SecondaryInstrumentCluster:    "Secondary Instrument Cluster | (SIC)",
	OffboardDiagnostics:           "Offboard Diagnostics",
	Trailer3Bridge:                "Trailer #3 Bridge",
	Trailer2Bridge:                "Trailer #2 Bridge",
	Trailer1Bridge:                "Trailer #1 Bridge",
	SafetyDirectProcessor:         "Bendix Camera | Safety Direct Processor (SDP) Module",
	ForwardRoadImageProcessor:     "Forward Road Image Processor | PAM Module | Lane Departure Warning (LDW) Module | (VRDU)",
	LeftRearDoorPod:               "Left Rear Door Pod",
	RightRearDoorPod:              "Right Rear Door Pod",
	DoorController1:               "Door Controller #1",
	DoorController2:               "Door Controller #2",
	Tachograph:                    "Tachograph | (TCO)",
	HybridSystem:                  "Hybrid System",
	AuxiliaryPowerUnit:            "Auxiliary Power Unit | (APU)",
	ServiceTool:                   "Service Tool",
	SourceAddressRequest0:         "Source Address Request 0",
	SourceAddressRequest1:         "Source Address Request 1",
}

// Known reports whether the address appears in the J1939 well known table.
func (a Address) Known() bool {
	_, ok := addressNames[a]
	return ok
}

func (a Address) String() string {
	if name, ok := addressNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(a))
}

// SourceAddress is an optional source address.
type SourceAddress struct {
	value uint8
	valid bool
}

// SomeSource wraps a concrete source address.
func SomeSource(v uint8) SourceAddress {
	return SourceAddress{value: v, valid: true}
}

// NoSource is the absent source address.
func NoSource() SourceAddress {
	return SourceAddress{}
}

// Lookup translates into the well known address table. The second return
// is false when no address is present.
func (s SourceAddress) Lookup() (Address, bool) {
	if !s.valid {
		return 0, false
	}
	return Address(s.value), true
}

// DestinationAddress is an optional destination address.
type DestinationAddress struct {
	value uint8
	valid bool
}

// SomeDestination wraps a concrete destination address.
func SomeDestination(v uint8) DestinationAddress {
	return DestinationAddress{value: v, valid: true}
}

// NoDestination is the absent destination address, used by broadcast
// (PDU2) identifiers.
func NoDestination() DestinationAddress {
	return DestinationAddress{}
}

// Lookup translates into the well known address table. The second return
// is false when the identifier carries no destination.
func (d DestinationAddress) Lookup() (Address, bool) {
	if !d.valid {
		return 0, false
	}
	return Address(d.value), true
}
