package sui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorLengthPrefix(t *testing.T) {
	tests := []struct {
		length int
		want   []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, tt := range tests {
		out, err := pureBytes(make([]byte, tt.length))
		require.NoError(t, err)
		require.Len(t, out, len(tt.want)+tt.length)
		assert.Equal(t, tt.want, out[:len(tt.want)], "length %d", tt.length)
	}
}

func TestPureU64(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0xca, 0x9a, 0x3b, 0, 0, 0, 0}, PureU64(1_000_000_000))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, PureU64(^uint64(0)))
}

func TestPureAddressVector(t *testing.T) {
	assert.Equal(t, []byte{0x00}, PureAddressVector(nil), "empty vector is just its length")

	addr, err := ParseAddress("0x5")
	require.NoError(t, err)
	out := PureAddressVector([]Address{addr})
	require.Len(t, out, 1+AddressLength)
	assert.Equal(t, byte(1), out[0])
	assert.Equal(t, byte(5), out[AddressLength])
}

func TestBcsPrimitives(t *testing.T) {
	out, err := pureBytes(struct {
		A    uint8
		B    uint16
		C, D bool
		E    string
	}{7, 0x0102, true, false, "abc"})
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0x02, 0x01, 1, 0, 3, 'a', 'b', 'c'}, out)
}

func TestBcsArguments(t *testing.T) {
	out, err := pureBytes(newBcsArguments([]Argument{
		{Kind: ArgGasCoin},
		{Kind: ArgInput, Index: 2},
		{Kind: ArgResult, Index: 0x0102},
		{Kind: ArgNestedResult, Index: 3, Nested: 1},
	}))
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 0, 1, 2, 0, 2, 0x02, 0x01, 3, 3, 0, 1, 0}, out)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0x5", SystemStateObjectID, false},
		{"5", SystemStateObjectID, false},
		{"0x006", ClockObjectID, false},
		{" 0X6 ", ClockObjectID, false},
		{"0x" + "1234567890123456789012345678901234567890123456789012345678901234", "0x1234567890123456789012345678901234567890123456789012345678901234", false},
		{"", "", true},
		{"0x", "", true},
		{"0xzz", "", true},
		{"0x" + "12345678901234567890123456789012345678901234567890123456789012345", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			addr, err := ParseAddress(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.String())
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, SystemStateObjectID, NormalizeAddress("0x5"))
	assert.Equal(t, "not-an-address", NormalizeAddress("not-an-address"))
	assert.True(t, SameAddress("0x0005", SystemStateObjectID))
	assert.False(t, SameAddress("0x5", "0x6"))
}

func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"u64", "u64"},
		{"vector<u8>", "vector<u8>"},
		{"0x2::sui::SUI", "0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"},
		{
			"0x2::coin::Coin<0x2::sui::SUI>",
			"0x0000000000000000000000000000000000000000000000000000000000000002::coin::Coin<0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI>",
		},
		{
			"0x1::m::Pair<u8, vector<address>>",
			"0x0000000000000000000000000000000000000000000000000000000000000001::m::Pair<u8, vector<address>>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tag, err := ParseTypeTag(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag.String())
		})
	}

	for _, bad := range []string{"", "vector", "vector<u8", "0x2::coin", "0x2::coin::Coin<u8", "u64 trailing", "0xzz::a::B"} {
		_, err := ParseTypeTag(bad)
		assert.Error(t, err, "ParseTypeTag(%q)", bad)
	}
}

func TestTypeTagBcs(t *testing.T) {
	tag, err := ParseTypeTag("vector<0x2::sui::SUI>")
	require.NoError(t, err)

	out, err := pureBytes(tag.bcsTag())
	require.NoError(t, err)

	want := []byte{typeTagVector, typeTagStruct}
	want = append(want, make([]byte, AddressLength-1)...)
	want = append(want, 2)
	want = append(want, 3, 's', 'u', 'i', 3, 'S', 'U', 'I', 0)
	assert.Equal(t, want, out)
}

func TestPrimitiveTypeTagBcs(t *testing.T) {
	for name, variant := range primitiveTypeTags {
		tag, err := ParseTypeTag(name)
		require.NoError(t, err)
		out, err := pureBytes(tag.bcsTag())
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(variant)}, out, name)
	}
}

func TestSplitTarget(t *testing.T) {
	pkg, module, fn, err := SplitTarget("0xabc::stake_pool::deposit_sui")
	require.NoError(t, err)
	assert.Equal(t, byte(0xbc), pkg[AddressLength-1])
	assert.Equal(t, byte(0x0a), pkg[AddressLength-2])
	assert.Equal(t, "stake_pool", module)
	assert.Equal(t, "deposit_sui", fn)

	_, _, _, err = SplitTarget("0xabc::stake_pool")
	assert.Error(t, err)
}
