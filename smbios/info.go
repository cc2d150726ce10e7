// Copyright 2017-2018 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package smbios

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/yywing/go-firmdump/binreader"
)

const (
	extendedSizeThreshold = 0x7fff

	kbToByteConvRatio = 1024
	mbToByteConvRatio = 1048576
	gbToByteConvRatio = 1073741824

	// Memory device formatted part sizes, by the SMBIOS version which
	// introduced the fields.
	sizeAsPer2_1 = 17
	sizeAsPer2_3 = 23
	sizeAsPer2_6 = 24
	sizeAsPer2_7 = 30
	sizeAsPer2_8 = 36
)

// Info is the decoded formatted part of a Structure.  Its dynamic type is
// one of *BIOSInfo, *SystemInfo, *BaseboardInfo, *ChassisInfo,
// *ProcessorInfo, *CacheInfo, *SystemSlot, *OEMStrings, *MemoryDevice,
// *SystemBootInfo or *Generic.
//
// Each typed variant decodes the field groups its formatted part is long
// enough to hold.  Has* flags report which optional groups were present, and
// bytes past the last known field are kept in Tail.
type Info interface {
	info()
}

func (*BIOSInfo) info()       {}
func (*SystemInfo) info()     {}
func (*BaseboardInfo) info()  {}
func (*ChassisInfo) info()    {}
func (*ProcessorInfo) info()  {}
func (*CacheInfo) info()      {}
func (*SystemSlot) info()     {}
func (*OEMStrings) info()     {}
func (*MemoryDevice) info()   {}
func (*SystemBootInfo) info() {}
func (*Generic) info()        {}

// Generic holds the formatted part of a structure with no typed decoding.
type Generic struct {
	Raw []byte
}

// decodeInfo decodes the formatted part of s.  v is the version of the table
// s belongs to, or the zero Version if it is not known.
func decodeInfo(s *Structure, v Version) Info {
	f := newFields(s)

	switch s.Header.Type {
	case TypeBIOS:
		return decodeBIOS(f)
	case TypeSystem:
		return decodeSystem(f, v)
	case TypeBaseboard:
		return decodeBaseboard(f)
	case TypeChassis:
		return decodeChassis(f)
	case TypeProcessor:
		return decodeProcessor(f)
	case TypeCache:
		return decodeCache(f)
	case TypeSystemSlot:
		return decodeSystemSlot(f)
	case TypeOEMStrings:
		return decodeOEMStrings(f)
	case TypeMemoryDevice:
		return decodeMemoryDevice(f)
	case TypeSystemBoot:
		return decodeSystemBoot(f)
	default:
		return &Generic{Raw: f.tail()}
	}
}

// fields reads the formatted part of one structure.  Decoders check has
// before each field group, so reads never run past the formatted part.
type fields struct {
	r  *binreader.Reader
	s  *binreader.Scanner
	ss []string
}

func newFields(st *Structure) *fields {
	r := binreader.New(st.Formatted)
	return &fields{
		r:  r,
		s:  binreader.NewScanner(r),
		ss: st.Strings,
	}
}

// has reports whether the formatted part is at least n bytes long.
func (f *fields) has(n int) bool { return f.r.Len() >= n }

func (f *fields) u8() uint8   { return f.s.U8() }
func (f *fields) u16() uint16 { return f.s.U16() }
func (f *fields) u32() uint32 { return f.s.U32() }
func (f *fields) u64() uint64 { return f.s.U64() }

// str reads a string index and resolves it against the string set.
func (f *fields) str() StringRef {
	ref := StringRef{Index: f.s.U8()}
	switch {
	case ref.Index == 0:
	case int(ref.Index) > len(f.ss):
		ref.Bad = true
	default:
		ref.Value = f.ss[ref.Index-1]
	}

	return ref
}

// tail returns a copy of the bytes which were not decoded, or nil.
func (f *fields) tail() []byte {
	n := f.r.Remaining()
	if n == 0 {
		return nil
	}

	b, _ := f.r.ReadBytes(n)
	return b
}

// BIOSInfo is a BIOS Information (type 0) structure.
type BIOSInfo struct {
	Vendor          StringRef
	Version         StringRef
	StartingSegment uint16
	ReleaseDate     StringRef
	ROMSize         uint8
	Characteristics uint64

	HasCharacteristicsExt bool
	CharacteristicsExt1   uint8
	CharacteristicsExt2   uint8

	HasReleases     bool
	SystemBIOSMajor uint8
	SystemBIOSMinor uint8
	ECFirmwareMajor uint8
	ECFirmwareMinor uint8

	HasExtendedROMSize bool
	ExtendedROMSize    uint16

	Tail []byte
}

func decodeBIOS(f *fields) *BIOSInfo {
	b := &BIOSInfo{}

	if f.has(14) {
		b.Vendor = f.str()
		b.Version = f.str()
		b.StartingSegment = f.u16()
		b.ReleaseDate = f.str()
		b.ROMSize = f.u8()
		b.Characteristics = f.u64()
	}

	if f.has(16) {
		b.HasCharacteristicsExt = true
		b.CharacteristicsExt1 = f.u8()
		b.CharacteristicsExt2 = f.u8()
	}

	// SMBIOS 2.4.
	if f.has(20) {
		b.HasReleases = true
		b.SystemBIOSMajor = f.u8()
		b.SystemBIOSMinor = f.u8()
		b.ECFirmwareMajor = f.u8()
		b.ECFirmwareMinor = f.u8()
	}

	// SMBIOS 3.1.
	if f.has(22) {
		b.HasExtendedROMSize = true
		b.ExtendedROMSize = f.u16()
	}

	b.Tail = f.tail()
	return b
}

// ROMSizeBytes returns the size of the BIOS ROM in bytes, or 0 if it cannot
// be determined.
func (b *BIOSInfo) ROMSizeBytes() uint64 {
	if b.ROMSize != 0xff {
		return (uint64(b.ROMSize) + 1) * 64 * kbToByteConvRatio
	}
	if !b.HasExtendedROMSize {
		return 0
	}

	size := uint64(b.ExtendedROMSize & 0x3fff)
	switch b.ExtendedROMSize >> 14 {
	case 0:
		return size * mbToByteConvRatio
	case 1:
		return size * gbToByteConvRatio
	default:
		return 0
	}
}

// SystemInfo is a System Information (type 1) structure.
type SystemInfo struct {
	Manufacturer StringRef
	ProductName  StringRef
	Version      StringRef
	SerialNumber StringRef

	HasUUID    bool
	UUID       uuid.UUID
	WakeUpType uint8

	HasFamily bool
	SKUNumber StringRef
	Family    StringRef

	Tail []byte
}

// UUIDSet reports whether the system UUID is present and set.  An all-zero
// UUID means it is not present, an all-ones UUID that it is not set.
func (s *SystemInfo) UUIDSet() bool {
	if !s.HasUUID {
		return false
	}

	zeros, ones := true, true
	for _, b := range s.UUID {
		if b != 0x00 {
			zeros = false
		}
		if b != 0xff {
			ones = false
		}
	}

	return !zeros && !ones
}

func decodeSystem(f *fields, v Version) *SystemInfo {
	s := &SystemInfo{}

	if f.has(4) {
		s.Manufacturer = f.str()
		s.ProductName = f.str()
		s.Version = f.str()
		s.SerialNumber = f.str()
	}

	// SMBIOS 2.1.
	if f.has(21) {
		var b [16]byte
		f.s.Into(b[:])

		s.HasUUID = true
		s.UUID = decodeUUID(b, v)
		s.WakeUpType = f.u8()
	}

	// SMBIOS 2.4.
	if f.has(23) {
		s.HasFamily = true
		s.SKUNumber = f.str()
		s.Family = f.str()
	}

	s.Tail = f.tail()
	return s
}

// decodeUUID converts the wire form of a system UUID.  Since SMBIOS 2.6 the
// first three fields are little-endian; earlier tables store all fields in
// network order.  Tables of unknown version are assumed to be recent.
func decodeUUID(b [16]byte, v Version) uuid.UUID {
	u := uuid.UUID(b)
	if !v.IsZero() && !v.AtLeast(2, 6) {
		return u
	}

	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	return u
}

// BaseboardInfo is a Baseboard Information (type 2) structure.
type BaseboardInfo struct {
	Manufacturer StringRef
	Product      StringRef
	Version      StringRef
	SerialNumber StringRef

	HasDetails        bool
	AssetTag          StringRef
	FeatureFlags      uint8
	LocationInChassis StringRef
	ChassisHandle     uint16
	BoardType         uint8
	ObjectHandles     []uint16

	Tail []byte
}

func decodeBaseboard(f *fields) *BaseboardInfo {
	b := &BaseboardInfo{}

	if f.has(4) {
		b.Manufacturer = f.str()
		b.Product = f.str()
		b.Version = f.str()
		b.SerialNumber = f.str()
	}

	if f.has(11) {
		b.HasDetails = true
		b.AssetTag = f.str()
		b.FeatureFlags = f.u8()
		b.LocationInChassis = f.str()
		b.ChassisHandle = f.u16()
		b.BoardType = f.u8()

		n := int(f.u8())
		for i := 0; i < n && f.r.Remaining() >= 2; i++ {
			b.ObjectHandles = append(b.ObjectHandles, f.u16())
		}
	}

	b.Tail = f.tail()
	return b
}

// ChassisInfo is a System Enclosure or Chassis (type 3) structure.
type ChassisInfo struct {
	Manufacturer StringRef

	// Type is the chassis type with the lock bit masked off.
	Type         uint8
	Lock         bool
	Version      StringRef
	SerialNumber StringRef
	AssetTag     StringRef

	HasStates        bool
	BootUpState      uint8
	PowerSupplyState uint8
	ThermalState     uint8
	SecurityStatus   uint8

	HasContainedElements         bool
	OEMDefined                   uint32
	Height                       uint8
	NumberOfPowerCords           uint8
	ContainedElementCount        uint8
	ContainedElementRecordLength uint8
	ContainedElements            []byte

	HasSKU    bool
	SKUNumber StringRef

	Tail []byte
}

func decodeChassis(f *fields) *ChassisInfo {
	c := &ChassisInfo{}

	if f.has(5) {
		c.Manufacturer = f.str()
		t := f.u8()
		c.Type = t & 0x7f
		c.Lock = t&0x80 != 0
		c.Version = f.str()
		c.SerialNumber = f.str()
		c.AssetTag = f.str()
	}

	// SMBIOS 2.1.
	if f.has(9) {
		c.HasStates = true
		c.BootUpState = f.u8()
		c.PowerSupplyState = f.u8()
		c.ThermalState = f.u8()
		c.SecurityStatus = f.u8()
	}

	// SMBIOS 2.3.
	if f.has(17) {
		c.HasContainedElements = true
		c.OEMDefined = f.u32()
		c.Height = f.u8()
		c.NumberOfPowerCords = f.u8()
		c.ContainedElementCount = f.u8()
		c.ContainedElementRecordLength = f.u8()

		n := int(c.ContainedElementCount) * int(c.ContainedElementRecordLength)
		if n > 0 && f.r.Remaining() >= n {
			c.ContainedElements = f.s.Bytes(n)
		}

		// SMBIOS 2.7.
		if f.r.Remaining() >= 1 && (n == 0 || c.ContainedElements != nil) {
			c.HasSKU = true
			c.SKUNumber = f.str()
		}
	}

	c.Tail = f.tail()
	return c
}

var chassisTypes = []string{
	1:    "Other",
	2:    "Unknown",
	3:    "Desktop",
	4:    "Low Profile Desktop",
	5:    "Pizza Box",
	6:    "Mini Tower",
	7:    "Tower",
	8:    "Portable",
	9:    "Laptop",
	10:   "Notebook",
	11:   "Hand Held",
	12:   "Docking Station",
	13:   "All in One",
	14:   "Sub Notebook",
	15:   "Space-saving",
	16:   "Lunch Box",
	17:   "Main Server Chassis",
	18:   "Expansion Chassis",
	19:   "SubChassis",
	20:   "Bus Expansion Chassis",
	21:   "Peripheral Chassis",
	22:   "RAID Chassis",
	23:   "Rack Mount Chassis",
	24:   "Sealed-case PC",
	25:   "Multi-system chassis",
	26:   "Compact PCI",
	27:   "Advanced TCA",
	28:   "Blade",
	29:   "Blade Enclosure",
	30:   "Tablet",
	31:   "Convertible",
	32:   "Detachable",
	33:   "IoT Gateway",
	34:   "Embedded PC",
	35:   "Mini PC",
	0x24: "Stick PC",
}

// TypeName returns the name of the chassis type.
func (c *ChassisInfo) TypeName() string {
	if int(c.Type) < len(chassisTypes) && chassisTypes[c.Type] != "" {
		return chassisTypes[c.Type]
	}

	return fmt.Sprintf("Unknown (%#02x)", c.Type)
}

// ProcessorInfo is a Processor Information (type 4) structure.
type ProcessorInfo struct {
	SocketDesignation StringRef
	ProcessorType     uint8
	Family            uint8
	Manufacturer      StringRef
	ID                uint64
	Version           StringRef
	Voltage           uint8
	ExternalClock     uint16
	MaxSpeed          uint16
	CurrentSpeed      uint16
	Status            uint8
	Upgrade           uint8

	HasCacheHandles bool
	L1CacheHandle   uint16
	L2CacheHandle   uint16
	L3CacheHandle   uint16

	HasPartInfo  bool
	SerialNumber StringRef
	AssetTag     StringRef
	PartNumber   StringRef

	HasCoreCounts   bool
	CoreCount       uint8
	CoreEnabled     uint8
	ThreadCount     uint8
	Characteristics uint16

	HasFamily2 bool
	Family2    uint16

	HasCoreCounts2 bool
	CoreCount2     uint16
	CoreEnabled2   uint16
	ThreadCount2   uint16

	HasThreadEnabled bool
	ThreadEnabled    uint16

	Tail []byte
}

func decodeProcessor(f *fields) *ProcessorInfo {
	p := &ProcessorInfo{}

	if f.has(22) {
		p.SocketDesignation = f.str()
		p.ProcessorType = f.u8()
		p.Family = f.u8()
		p.Manufacturer = f.str()
		p.ID = f.u64()
		p.Version = f.str()
		p.Voltage = f.u8()
		p.ExternalClock = f.u16()
		p.MaxSpeed = f.u16()
		p.CurrentSpeed = f.u16()
		p.Status = f.u8()
		p.Upgrade = f.u8()
	}

	// SMBIOS 2.1.
	if f.has(28) {
		p.HasCacheHandles = true
		p.L1CacheHandle = f.u16()
		p.L2CacheHandle = f.u16()
		p.L3CacheHandle = f.u16()
	}

	// SMBIOS 2.3.
	if f.has(31) {
		p.HasPartInfo = true
		p.SerialNumber = f.str()
		p.AssetTag = f.str()
		p.PartNumber = f.str()
	}

	// SMBIOS 2.5.
	if f.has(36) {
		p.HasCoreCounts = true
		p.CoreCount = f.u8()
		p.CoreEnabled = f.u8()
		p.ThreadCount = f.u8()
		p.Characteristics = f.u16()
	}

	// SMBIOS 2.6.
	if f.has(38) {
		p.HasFamily2 = true
		p.Family2 = f.u16()
	}

	// SMBIOS 3.0.
	if f.has(44) {
		p.HasCoreCounts2 = true
		p.CoreCount2 = f.u16()
		p.CoreEnabled2 = f.u16()
		p.ThreadCount2 = f.u16()
	}

	// SMBIOS 3.6.
	if f.has(46) {
		p.HasThreadEnabled = true
		p.ThreadEnabled = f.u16()
	}

	p.Tail = f.tail()
	return p
}

// IDString formats the processor ID the way it is conventionally printed.
func (p *ProcessorInfo) IDString() string {
	return fmt.Sprintf("%016X", p.ID)
}

// Populated reports whether the socket holds a processor.
func (p *ProcessorInfo) Populated() bool {
	return p.Status&0x40 != 0
}

// ProcessorFamily returns the processor family, following the extended
// family field when the legacy field indicates it.
func (p *ProcessorInfo) ProcessorFamily() uint16 {
	if p.Family == 0xfe && p.HasFamily2 {
		return p.Family2
	}

	return uint16(p.Family)
}

// Cores returns the number of cores, or 0 if unknown.
func (p *ProcessorInfo) Cores() int {
	if p.CoreCount == 0xff && p.HasCoreCounts2 {
		return int(p.CoreCount2)
	}

	return int(p.CoreCount)
}

// Threads returns the number of threads, or 0 if unknown.
func (p *ProcessorInfo) Threads() int {
	if p.ThreadCount == 0xff && p.HasCoreCounts2 {
		return int(p.ThreadCount2)
	}

	return int(p.ThreadCount)
}

// CacheInfo is a Cache Information (type 7) structure.
type CacheInfo struct {
	SocketDesignation StringRef
	Configuration     uint16
	MaximumSize       uint16
	InstalledSize     uint16
	SupportedSRAMType uint16
	CurrentSRAMType   uint16

	HasDetails          bool
	Speed               uint8
	ErrorCorrectionType uint8
	SystemCacheType     uint8
	Associativity       uint8

	HasSize2       bool
	MaximumSize2   uint32
	InstalledSize2 uint32

	Tail []byte
}

func decodeCache(f *fields) *CacheInfo {
	c := &CacheInfo{}

	if f.has(11) {
		c.SocketDesignation = f.str()
		c.Configuration = f.u16()
		c.MaximumSize = f.u16()
		c.InstalledSize = f.u16()
		c.SupportedSRAMType = f.u16()
		c.CurrentSRAMType = f.u16()
	}

	// SMBIOS 2.1.
	if f.has(15) {
		c.HasDetails = true
		c.Speed = f.u8()
		c.ErrorCorrectionType = f.u8()
		c.SystemCacheType = f.u8()
		c.Associativity = f.u8()
	}

	// SMBIOS 3.1.
	if f.has(23) {
		c.HasSize2 = true
		c.MaximumSize2 = f.u32()
		c.InstalledSize2 = f.u32()
	}

	c.Tail = f.tail()
	return c
}

// Level returns the cache level, 1 through 8.
func (c *CacheInfo) Level() int {
	return int(c.Configuration&0x07) + 1
}

// InstalledBytes returns the installed cache size in bytes.
func (c *CacheInfo) InstalledBytes() uint64 {
	if c.HasSize2 && c.InstalledSize == 0xffff {
		return cacheSize32(c.InstalledSize2)
	}

	return cacheSize16(c.InstalledSize)
}

// MaximumBytes returns the maximum cache size in bytes.
func (c *CacheInfo) MaximumBytes() uint64 {
	if c.HasSize2 && c.MaximumSize == 0xffff {
		return cacheSize32(c.MaximumSize2)
	}

	return cacheSize16(c.MaximumSize)
}

// Cache sizes are in 1K units, or 64K units when the top bit is set.
func cacheSize16(v uint16) uint64 {
	gran := uint64(kbToByteConvRatio)
	if v&0x8000 != 0 {
		gran *= 64
	}

	return uint64(v&0x7fff) * gran
}

func cacheSize32(v uint32) uint64 {
	gran := uint64(kbToByteConvRatio)
	if v&0x80000000 != 0 {
		gran *= 64
	}

	return uint64(v&0x7fffffff) * gran
}

// SystemSlot is a System Slots (type 9) structure.
type SystemSlot struct {
	Designation      StringRef
	SlotType         uint8
	DataBusWidth     uint8
	CurrentUsage     uint8
	SlotLength       uint8
	SlotID           uint16
	Characteristics1 uint8

	HasCharacteristics2 bool
	Characteristics2    uint8

	HasAddress     bool
	SegmentGroup   uint16
	Bus            uint8
	DeviceFunction uint8

	Tail []byte
}

func decodeSystemSlot(f *fields) *SystemSlot {
	s := &SystemSlot{}

	if f.has(8) {
		s.Designation = f.str()
		s.SlotType = f.u8()
		s.DataBusWidth = f.u8()
		s.CurrentUsage = f.u8()
		s.SlotLength = f.u8()
		s.SlotID = f.u16()
		s.Characteristics1 = f.u8()
	}

	// SMBIOS 2.1.
	if f.has(9) {
		s.HasCharacteristics2 = true
		s.Characteristics2 = f.u8()
	}

	// SMBIOS 2.6.
	if f.has(13) {
		s.HasAddress = true
		s.SegmentGroup = f.u16()
		s.Bus = f.u8()
		s.DeviceFunction = f.u8()
	}

	s.Tail = f.tail()
	return s
}

// PCIAddress formats the slot's segment, bus, device and function.
func (s *SystemSlot) PCIAddress() string {
	if !s.HasAddress {
		return ""
	}

	return fmt.Sprintf("%04x:%02x:%02x.%d",
		s.SegmentGroup, s.Bus, s.DeviceFunction>>3, s.DeviceFunction&0x07)
}

// OEMStrings is an OEM Strings (type 11) structure.
type OEMStrings struct {
	Count  uint8
	Values []StringRef

	Tail []byte
}

func decodeOEMStrings(f *fields) *OEMStrings {
	o := &OEMStrings{}

	if f.has(1) {
		o.Count = f.u8()
		for i := 1; i <= int(o.Count); i++ {
			ref := StringRef{Index: uint8(i)}
			if i <= len(f.ss) {
				ref.Value = f.ss[i-1]
			} else {
				ref.Bad = true
			}

			o.Values = append(o.Values, ref)
		}
	}

	o.Tail = f.tail()
	return o
}

// MemoryDevice is a Memory Device (type 17) structure.
type MemoryDevice struct {
	PhysicalMemoryArrayHandle uint16
	ErrorInformationHandle    uint16
	TotalWidth                uint16
	DataWidth                 uint16
	Size                      uint16
	FormFactor                uint8
	DeviceSet                 uint8
	DeviceLocator             StringRef
	BankLocator               StringRef
	MemoryType                uint8
	TypeDetail                uint16

	HasSpeed     bool
	Speed        uint16
	Manufacturer StringRef
	SerialNumber StringRef
	AssetTag     StringRef
	PartNumber   StringRef

	HasAttributes bool
	Attributes    uint8

	HasExtendedSize bool
	ExtendedSize    uint32
	ConfiguredSpeed uint16

	HasVoltages       bool
	MinimumVoltage    uint16
	MaximumVoltage    uint16
	ConfiguredVoltage uint16

	Tail []byte
}

func decodeMemoryDevice(f *fields) *MemoryDevice {
	m := &MemoryDevice{}

	if f.has(sizeAsPer2_1) {
		m.PhysicalMemoryArrayHandle = f.u16()
		m.ErrorInformationHandle = f.u16()
		m.TotalWidth = f.u16()
		m.DataWidth = f.u16()
		m.Size = f.u16()
		m.FormFactor = f.u8()
		m.DeviceSet = f.u8()
		m.DeviceLocator = f.str()
		m.BankLocator = f.str()
		m.MemoryType = f.u8()
		m.TypeDetail = f.u16()
	}

	if f.has(sizeAsPer2_3) {
		m.HasSpeed = true
		m.Speed = f.u16()
		m.Manufacturer = f.str()
		m.SerialNumber = f.str()
		m.AssetTag = f.str()
		m.PartNumber = f.str()
	}

	if f.has(sizeAsPer2_6) {
		m.HasAttributes = true
		m.Attributes = f.u8()
	}

	if f.has(sizeAsPer2_7) {
		m.HasExtendedSize = true
		m.ExtendedSize = f.u32()
		m.ConfiguredSpeed = f.u16()
	}

	if f.has(sizeAsPer2_8) {
		m.HasVoltages = true
		m.MinimumVoltage = f.u16()
		m.MaximumVoltage = f.u16()
		m.ConfiguredVoltage = f.u16()
	}

	m.Tail = f.tail()
	return m
}

// Installed reports whether the slot holds a memory device.
func (m *MemoryDevice) Installed() bool { return m.Size != 0 }

// SizeBytes returns the size of the memory device in bytes, or 0 if the
// slot is empty or the size is unknown.
func (m *MemoryDevice) SizeBytes() uint64 {
	switch {
	case m.Size == 0 || m.Size == 0xffff:
		return 0
	case m.Size == extendedSizeThreshold && m.HasExtendedSize:
		// The extended size is always in megabytes.
		return uint64(m.ExtendedSize&0x7fffffff) * mbToByteConvRatio
	case m.Size&0x8000 != 0:
		// The granularity depends on bit 15: set means kilobyte units.
		return uint64(m.Size&0x7fff) * kbToByteConvRatio
	default:
		return uint64(m.Size) * mbToByteConvRatio
	}
}

var memoryTypes = []string{
	0x01: "Other",
	0x02: "Unknown",
	0x03: "DRAM",
	0x04: "EDRAM",
	0x05: "VRAM",
	0x06: "SRAM",
	0x07: "RAM",
	0x08: "ROM",
	0x09: "Flash",
	0x0a: "EEPROM",
	0x0b: "FEPROM",
	0x0c: "EPROM",
	0x0d: "CDRAM",
	0x0e: "3DRAM",
	0x0f: "SDRAM",
	0x10: "SGRAM",
	0x11: "RDRAM",
	0x12: "DDR",
	0x13: "DDR2",
	0x14: "DDR2 FB-DIMM",
	0x18: "DDR3",
	0x19: "FBD2",
	0x1a: "DDR4",
	0x1b: "LPDDR",
	0x1c: "LPDDR2",
	0x1d: "LPDDR3",
	0x1e: "LPDDR4",
	0x1f: "Logical non-volatile device",
	0x20: "HBM",
	0x21: "HBM2",
	0x22: "DDR5",
	0x23: "LPDDR5",
	0x24: "HBM3",
}

// TypeName returns the name of the memory type.
func (m *MemoryDevice) TypeName() string {
	if int(m.MemoryType) < len(memoryTypes) && memoryTypes[m.MemoryType] != "" {
		return memoryTypes[m.MemoryType]
	}

	return fmt.Sprintf("Unknown (%#02x)", m.MemoryType)
}

// SystemBootInfo is a System Boot Information (type 32) structure.
type SystemBootInfo struct {
	Reserved [6]byte

	// BootStatus holds the status code and any vendor-specific data.
	BootStatus []byte

	Tail []byte
}

func decodeSystemBoot(f *fields) *SystemBootInfo {
	b := &SystemBootInfo{}

	if f.has(7) {
		f.s.Into(b.Reserved[:])
		b.BootStatus = f.tail()
	}

	b.Tail = f.tail()
	return b
}

// Status returns the boot status code.  Zero means no errors were detected.
func (b *SystemBootInfo) Status() uint8 {
	if len(b.BootStatus) == 0 {
		return 0
	}

	return b.BootStatus[0]
}
