package stack

import (
	"sort"
	"unsafe"
)

// Unknown is the material of a stack that holds no data.
const Unknown = 999

// Material is the set of integer types usable as material ids. Every type in
// the set can represent Unknown.
type Material interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~int | ~uint | ~int64 | ~uint64
}

// Interval is one layer of a column: the material fills everything between
// the previous interval's height (exclusive) and Height (inclusive).
type Interval[M Material] struct {
	Height   float32
	Material M
}

// Stack is the ordered list of intervals of one terrain column. Heights are
// strictly increasing and two consecutive intervals never share a material.
type Stack[M Material] []Interval[M]

// UnknownStack returns the one-entry stack meaning "no data".
func UnknownStack[M Material]() Stack[M] {
	return Stack[M]{{Material: Unknown}}
}

// Add inserts a layer of material ending at height. Layers may arrive in any
// height order.
func (s *Stack[M]) Add(material M, height float32) {
	n := len(*s)
	if n == 0 || height >= (*s)[n-1].Height {
		s.push(material, height)
		return
	}

	i := sort.Search(n, func(i int) bool { return (*s)[i].Height > height })
	popped := make([]Interval[M], n-i)
	copy(popped, (*s)[i:])
	*s = (*s)[:i]

	s.Add(material, height)
	for _, p := range popped {
		s.push(p.Material, p.Height)
	}
}

func (s *Stack[M]) push(material M, height float32) {
	n := len(*s)
	if n == 0 {
		*s = append(*s, Interval[M]{Height: height, Material: material})
		return
	}

	top := &(*s)[n-1]
	switch {
	case top.Material == material:
		if height > top.Height {
			top.Height = height
		}
	case height > top.Height:
		*s = append(*s, Interval[M]{Height: height, Material: material})
	}
}

// Attribute returns the material found at height h, or Unknown above the
// top of the column.
func (s Stack[M]) Attribute(h float32) M {
	i := sort.Search(len(s), func(i int) bool { return s[i].Height >= h })
	if i == len(s) {
		return Unknown
	}
	return s[i].Material
}

// CompareAttributes reports whether both stacks hold the same material
// sequence, ignoring heights.
func CompareAttributes[M Material](a, b Stack[M]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Material != b[i].Material {
			return false
		}
	}
	return true
}

func (s Stack[M]) IsUnknown() bool {
	return len(s) == 1 && s[0].Material == Unknown
}

// Top returns the highest interval. ok is false for an empty stack.
func (s Stack[M]) Top() (top Interval[M], ok bool) {
	if len(s) == 0 {
		return top, false
	}
	return s[len(s)-1], true
}

func (s Stack[M]) TotalHeight() float32 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Height
}

func (s Stack[M]) Clone() Stack[M] {
	if s == nil {
		return nil
	}
	c := make(Stack[M], len(s))
	copy(c, s)
	return c
}

// MemorySize is the number of bytes used by the intervals.
func (s Stack[M]) MemorySize() int {
	var iv Interval[M]
	return len(s) * int(unsafe.Sizeof(iv))
}
