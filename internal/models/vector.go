package models

// StateCountVector holds one posting count per state, in state-name order.
// Every vector in a dataset has the same length.
type StateCountVector []int64

func NewStateCountVector(n int) StateCountVector {
	return make(StateCountVector, n)
}

func (v StateCountVector) Clone() StateCountVector {
	out := make(StateCountVector, len(v))
	copy(out, v)
	return out
}

// AddInPlace adds o elementwise into v.
func (v StateCountVector) AddInPlace(o StateCountVector) {
	for i := range v {
		v[i] += o[i]
	}
}

// SubFloorInPlace subtracts o elementwise from v, clamping at zero.
func (v StateCountVector) SubFloorInPlace(o StateCountVector) {
	for i := range v {
		if d := v[i] - o[i]; d > 0 {
			v[i] = d
		} else {
			v[i] = 0
		}
	}
}

func (v StateCountVector) Sum() int64 {
	var s int64
	for _, c := range v {
		s += c
	}
	return s
}

func (v StateCountVector) Equal(o StateCountVector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// Bounds returns the smallest and largest entry, or 0, 0 for an empty vector.
func (v StateCountVector) Bounds() (low, high int64) {
	if len(v) == 0 {
		return 0, 0
	}
	low, high = v[0], v[0]
	for _, c := range v[1:] {
		if c < low {
			low = c
		}
		if c > high {
			high = c
		}
	}
	return low, high
}
