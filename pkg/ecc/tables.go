// Package ecc computes and checks the EDC and the P/Q parity of raw CD
// sectors, and rebuilds the sync, header and suffix of Mode 1 and Mode 2
// sectors.
package ecc

// EDCPolynomial is the reflected CD-ROM EDC polynomial.
const EDCPolynomial = 0xD8018001

var (
	gfForward, gfBackward = makeGFTables()
	edcTable              = makeEDCTable()
)

// makeGFTables builds the GF(2^8) multiply-by-alpha table F and its partner
// B, where B[i ^ F[i]] = i.
func makeGFTables() (f, b [256]byte) {
	for i := 0; i < 256; i++ {
		j := i << 1
		if i&0x80 != 0 {
			j ^= 0x11D
		}
		f[i] = byte(j)
		b[i^j] = byte(i)
	}
	return f, b
}

func makeEDCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		edc := uint32(i)
		for j := 0; j < 8; j++ {
			if edc&1 != 0 {
				edc = (edc >> 1) ^ EDCPolynomial
			} else {
				edc >>= 1
			}
		}
		table[i] = edc
	}
	return table
}
