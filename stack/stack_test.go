package stack

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireWellFormed(t *testing.T, s Stack[int32]) {
	t.Helper()
	for i := 1; i < len(s); i++ {
		require.Less(t, s[i-1].Height, s[i].Height, "heights must increase: %v", s)
		require.NotEqual(t, s[i-1].Material, s[i].Material, "adjacent materials must differ: %v", s)
	}
}

func TestStackAddInOrder(t *testing.T) {
	var s Stack[int32]
	s.Add(1, 1)
	s.Add(1, 2)
	s.Add(2, 3)
	s.Add(3, 4)
	s.Add(3, 5)

	require.Equal(t, Stack[int32]{{2, 1}, {3, 2}, {5, 3}}, s)
}

func TestStackAddOutOfOrder(t *testing.T) {
	tests := []struct {
		name     string
		base     Stack[int32]
		material int32
		height   float32
		expected Stack[int32]
	}{
		{
			name:     "split the top interval",
			base:     Stack[int32]{{5, 1}, {10, 2}},
			material: 3,
			height:   7,
			expected: Stack[int32]{{5, 1}, {7, 3}, {10, 2}},
		},
		{
			name:     "extend a lower interval",
			base:     Stack[int32]{{5, 1}, {10, 2}},
			material: 1,
			height:   7,
			expected: Stack[int32]{{7, 1}, {10, 2}},
		},
		{
			name:     "merge with the restored interval",
			base:     Stack[int32]{{5, 1}, {10, 2}},
			material: 2,
			height:   7,
			expected: Stack[int32]{{5, 1}, {10, 2}},
		},
		{
			name:     "insert below everything",
			base:     Stack[int32]{{5, 1}, {10, 2}},
			material: 2,
			height:   3,
			expected: Stack[int32]{{3, 2}, {5, 1}, {10, 2}},
		},
		{
			name:     "zero thickness is dropped",
			base:     Stack[int32]{{5, 1}, {10, 2}},
			material: 3,
			height:   5,
			expected: Stack[int32]{{5, 1}, {10, 2}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := test.base.Clone()
			s.Add(test.material, test.height)
			require.Equal(t, test.expected, s)
			requireWellFormed(t, s)
		})
	}
}

func TestStackAddRandomOrderIsWellFormed(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		var s Stack[int32]
		for i := 0; i < 30; i++ {
			s.Add(int32(r.Intn(4)), float32(r.Intn(50)))
		}
		requireWellFormed(t, s)
	}
}

func TestStackAttribute(t *testing.T) {
	s := Stack[int32]{{5, 1}, {7, 3}, {10, 2}}

	require.Equal(t, int32(1), s.Attribute(-4))
	require.Equal(t, int32(1), s.Attribute(5))
	require.Equal(t, int32(3), s.Attribute(5.5))
	require.Equal(t, int32(3), s.Attribute(7))
	require.Equal(t, int32(2), s.Attribute(10))
	require.Equal(t, int32(Unknown), s.Attribute(10.5))

	var empty Stack[int32]
	require.Equal(t, int32(Unknown), empty.Attribute(0))
}

func TestCompareAttributes(t *testing.T) {
	a := Stack[uint16]{{5, 1}, {7, 3}}
	b := Stack[uint16]{{2, 1}, {9, 3}}
	c := Stack[uint16]{{5, 1}, {7, 2}}
	d := Stack[uint16]{{5, 1}}

	require.True(t, CompareAttributes(a, b))
	require.False(t, CompareAttributes(a, c))
	require.False(t, CompareAttributes(a, d))
	require.True(t, CompareAttributes(Stack[uint16]{}, nil))
}

func TestStackHelpers(t *testing.T) {
	s := Stack[int64]{{5, 1}, {7, 3}}

	top, ok := s.Top()
	require.True(t, ok)
	require.Equal(t, Interval[int64]{7, 3}, top)
	require.Equal(t, float32(7), s.TotalHeight())
	require.Equal(t, 2*16, s.MemorySize())
	require.False(t, s.IsUnknown())

	_, ok = Stack[int64]{}.Top()
	require.False(t, ok)

	u := UnknownStack[int64]()
	require.True(t, u.IsUnknown())
	require.Len(t, u, 1)
}
