// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// MPU-6050 register addresses and bits.
const (
	DefaultAddress = 0x68

	RegSampleRateDiv = 0x19
	RegConfig        = 0x1A
	RegGyroConfig    = 0x1B
	RegAccelConfig   = 0x1C
	RegFIFOEnable    = 0x23
	RegIntEnable     = 0x38

	RegRawAccel  = 0x3B // ACCEL_XOUT_H, 6 bytes
	RegRawAccelX = 0x3B
	RegRawAccelY = 0x3D
	RegRawAccelZ = 0x3F
	RegTemp      = 0x41
	RegRawGyro   = 0x43 // GYRO_XOUT_H, 6 bytes
	RegRawGyroX  = 0x43
	RegRawGyroY  = 0x45
	RegRawGyroZ  = 0x47

	RegUserCtrl = 0x6A
	RegPwrMgmt1 = 0x6B
	RegPwrMgmt2 = 0x6C
	RegWhoAmI   = 0x75

	BitHReset  = 0x80
	BitSleep   = 0x40
	ClkSelMask = 0x07

	// Full-scale range select sits in bits 4:3 of ACCEL_CONFIG and GYRO_CONFIG.
	FSRShift = 3

	DeviceID = 0x68

	// Internal sample rate with the DLPF enabled.
	internalRateHz = 1000
	// Default output data rate.
	defaultRateHz = 100
)

// DLPF is the CONFIG DLPF_CFG bandwidth code.
type DLPF byte

const (
	DLPF256HzNoLPF DLPF = iota
	DLPF188Hz
	DLPF98Hz
	DLPF42Hz
	DLPF20Hz
	DLPF10Hz
	DLPF5Hz
	DLPF2100HzNoLPF
)

// SampleRateDivFor returns the SMPLRT_DIV value for an output rate in Hz.
func SampleRateDivFor(hz int) byte {
	return byte(internalRateHz/hz - 1)
}

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is register metadata for the dump tool.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// RegisterMap returns the MPU-6050 registers this system touches or reports.
func RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: RegSampleRateDiv, Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Gyro_Output_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
			}},
		{Address: RegConfig, Name: "CONFIG", Description: "Configuration (DLPF)", Access: "RW",
			BitFields: []BitField{
				{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "FSYNC pin sampling", Values: "0=Disabled"},
				{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter", Values: "0=256Hz, 1=188Hz, 2=98Hz, 3=42Hz, 4=20Hz, 5=10Hz, 6=5Hz, 7=reserved"},
			}},
		{Address: RegGyroConfig, Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:5", Name: "XG_ST/YG_ST/ZG_ST", Description: "Gyro self-test", Values: "0=Disabled"},
				{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
			}},
		{Address: RegAccelConfig, Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:5", Name: "XA_ST/YA_ST/ZA_ST", Description: "Accel self-test", Values: "0=Disabled"},
				{Bits: "4:3", Name: "AFS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},
		{Address: RegFIFOEnable, Name: "FIFO_EN", Description: "FIFO Enable", Access: "RW"},
		{Address: RegIntEnable, Name: "INT_ENABLE", Description: "Interrupt Enable", Access: "RW",
			BitFields: []BitField{
				{Bits: "0", Name: "DATA_RDY_EN", Description: "Data ready interrupt", Values: "0=Disabled, 1=Enabled"},
			}},

		{Address: RegRawAccelX, Name: "ACCEL_XOUT_H", Description: "Accelerometer X-Axis High Byte", Access: "R"},
		{Address: RegRawAccelX + 1, Name: "ACCEL_XOUT_L", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
		{Address: RegRawAccelY, Name: "ACCEL_YOUT_H", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
		{Address: RegRawAccelY + 1, Name: "ACCEL_YOUT_L", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
		{Address: RegRawAccelZ, Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
		{Address: RegRawAccelZ + 1, Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
		{Address: RegTemp, Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
		{Address: RegTemp + 1, Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},
		{Address: RegRawGyroX, Name: "GYRO_XOUT_H", Description: "Gyroscope X-Axis High Byte", Access: "R"},
		{Address: RegRawGyroX + 1, Name: "GYRO_XOUT_L", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
		{Address: RegRawGyroY, Name: "GYRO_YOUT_H", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
		{Address: RegRawGyroY + 1, Name: "GYRO_YOUT_L", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
		{Address: RegRawGyroZ, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
		{Address: RegRawGyroZ + 1, Name: "GYRO_ZOUT_L", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},

		{Address: RegUserCtrl, Name: "USER_CTRL", Description: "User Control", Access: "RW",
			BitFields: []BitField{
				{Bits: "7", Name: "DMP_EN", Description: "Enable DMP", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "I2C_MST_EN", Description: "Enable I2C Master", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "DMP_RST", Description: "Reset DMP", Values: "1=Reset"},
				{Bits: "2", Name: "FIFO_RST", Description: "Reset FIFO", Values: "1=Reset"},
			}},
		{Address: RegPwrMgmt1, Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW",
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Device reset", Values: "1=Reset device"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
				{Bits: "5", Name: "CYCLE", Description: "Cycle mode", Values: "0=Disabled, 1=Cycle"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL X gyro"},
			}},
		{Address: RegPwrMgmt2, Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW",
			BitFields: []BitField{
				{Bits: "5:3", Name: "STBY_XA/YA/ZA", Description: "Accel axis standby", Values: "1=Standby"},
				{Bits: "2:0", Name: "STBY_XG/YG/ZG", Description: "Gyro axis standby", Values: "1=Standby"},
			}},
		{Address: RegWhoAmI, Name: "WHO_AM_I", Description: "Device identity (0x68)", Access: "R"},
	}
}
