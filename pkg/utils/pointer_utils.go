package utils

// SafeInt32 dereferences an int32 pointer, returning 0 if nil
func SafeInt32(i *int32) int {
	if i == nil {
		return 0
	}
	return int(*i)
}
