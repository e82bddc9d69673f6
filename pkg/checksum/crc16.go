// Package checksum provides the table driven CRC-16 engines used by the
// subchannel codecs. Tables are built once at package initialization and are
// never modified afterwards, so every function here is safe for concurrent use.
package checksum

// Polynomials and seeds
const (
	CCITTPolynomial = 0x1021 // x^16 + x^12 + x^5 + 1, processed MSB first
	CCITTSeed       = 0x0000
	IBMPolynomial   = 0xA001 // x^16 + x^15 + x^2 + 1, reflected
	IBMSeed         = 0x0000
)

var (
	ccittTable = makeMSBTable(CCITTPolynomial)
	ibmTable   = makeLSBTable(IBMPolynomial)
)

func makeMSBTable(poly uint16) [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

func makeLSBTable(poly uint16) [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// CRC16CCITT returns the subchannel CRC of data: the CRC-16-CCITT remainder,
// inverted, as recorded in the Q channel and in CD-TEXT packs.
func CRC16CCITT(data []byte) uint16 {
	crc := uint16(CCITTSeed)
	for _, b := range data {
		crc = (crc << 8) ^ ccittTable[byte(crc>>8)^b]
	}
	return ^crc
}

// CRC16CCITTBytes returns CRC16CCITT(data) as two big-endian bytes.
func CRC16CCITTBytes(data []byte) [2]byte {
	crc := CRC16CCITT(data)
	return [2]byte{byte(crc >> 8), byte(crc)}
}

// CRC16IBM returns the reflected CRC-16 (IBM/ARC) of data.
func CRC16IBM(data []byte) uint16 {
	return UpdateCRC16IBM(IBMSeed, data)
}

// UpdateCRC16IBM continues a CRC-16-IBM computation over data.
func UpdateCRC16IBM(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = (crc >> 8) ^ ibmTable[byte(crc)^b]
	}
	return crc
}
