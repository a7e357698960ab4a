package slice

// Map returns f applied to every element of list. A nil f yields an empty slice.
func Map[T, R any](list []T, f func(t T) R) []R {
	if f == nil {
		return make([]R, 0)
	}

	output := make([]R, 0, len(list))
	for idx := range list {
		output = append(output, f(list[idx]))
	}

	return output
}

// Filter keeps the elements accepted by filterFn. A nil filterFn keeps everything.
func Filter[T any](arr []T, filterFn func(v T) bool) []T {
	output := make([]T, 0, len(arr))
	for _, v := range arr {
		if filterFn == nil || filterFn(v) {
			output = append(output, v)
		}
	}

	return output
}

// Find returns the first element accepted by f.
func Find[T any](list []T, f func(t T) bool) (T, bool) {
	var found T
	for idx := range list {
		if f(list[idx]) {
			return list[idx], true
		}
	}

	return found, false
}

// Index returns the position of the first element equal to v, or -1.
func Index[T comparable](list []T, v T) int {
	for idx := range list {
		if list[idx] == v {
			return idx
		}
	}

	return -1
}

// Flat concatenates the inner slices in order into a freshly allocated slice.
func Flat[T any](list [][]T) []T {
	var size int
	for idx := range list {
		size += len(list[idx])
	}

	t := make([]T, 0, size)
	for idx := range list {
		t = append(t, list[idx]...)
	}

	return t
}

// Reverse returns a reversed copy of list; list itself is left untouched.
func Reverse[T any](list []T) []T {
	output := make([]T, len(list))
	for idx := range list {
		output[len(list)-1-idx] = list[idx]
	}

	return output
}

// Union merges the given slices, dropping duplicates. Elements keep the
// order in which they were first seen.
func Union[T comparable](lists ...[]T) []T {
	seen := make(map[T]struct{})
	output := make([]T, 0)
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			output = append(output, v)
		}
	}

	return output
}
