package tables

// numSubcarriers is indexed by [grouping][bandwidth code], with bandwidth
// codes 0-3 meaning 20, 40, 80 and 160 MHz.
var numSubcarriers = [2][4]uint16{
	{64, 122, 250, 500}, // grouping 0 (Ng = 4)
	{50, 32, 64, 160},   // grouping 1 (Ng = 16)
}

// NumSubcarriers returns how many subcarriers a report carries for the
// given grouping bit and bandwidth code.
func NumSubcarriers(grouping, bandwidthCode uint8) (uint16, bool) {
	if grouping > 1 || bandwidthCode > 3 {
		return 0, false
	}
	return numSubcarriers[grouping][bandwidthCode], true
}
