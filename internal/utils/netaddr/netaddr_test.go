package netaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPort(t *testing.T) {
	assert.False(t, IsPort(0))
	assert.True(t, IsPort(1))
	assert.True(t, IsPort(65535))
	assert.False(t, IsPort(65536))
	assert.False(t, IsPort(-1))
}

func TestClassification(t *testing.T) {
	tests := []struct {
		host     string
		ipv4     bool
		ipv6     bool
		hostName bool
	}{
		{"1.2.3.4", true, false, false},
		{"255.255.255.255", true, false, false},
		{"::1", false, true, false},
		{"[2001:db8::1]", false, true, false},
		{"::ffff:1.2.3.4", false, true, false},
		{"example.com", false, false, true},
		{"www.example.com.", false, false, true},
		{"localhost", false, false, true},
		{"a-b.cd.net", false, false, true},
		{"c_d.net", false, false, false},
		{"1.2.3.999", false, false, false},
		{"-bad.com", false, false, false},
		{"bad-.com", false, false, false},
		{"a..b", false, false, false},
		{"", false, false, false},
		{"exa mple.com", false, false, false},
		{"1.2.3.4.5", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.ipv4, IsIPv4Address(tt.host), "IsIPv4Address")
			assert.Equal(t, tt.ipv6, IsIPv6Address(tt.host), "IsIPv6Address")
			assert.Equal(t, tt.ipv4 || tt.ipv6, IsIPAddress(tt.host), "IsIPAddress")
			assert.Equal(t, tt.hostName, IsHostName(tt.host), "IsHostName")
		})
	}
}

func TestIsHostName_Length(t *testing.T) {
	label := "abcdefghij"
	long := ""
	for i := 0; i < 26; i++ {
		long += label + "."
	}
	assert.False(t, IsHostName(long+"com"), "names longer than 253 bytes are rejected")

	label64 := ""
	for i := 0; i < 64; i++ {
		label64 += "a"
	}
	assert.False(t, IsHostName(label64+".com"))
	assert.True(t, IsHostName(label64[:63]+".com"))
}

func TestReverseString(t *testing.T) {
	assert.Equal(t, "moc.elpmaxe", ReverseString("example.com"))
	assert.Equal(t, "", ReverseString(""))
	assert.Equal(t, "a", ReverseString("a"))
	assert.Equal(t, "国中.www", ReverseString("www.中国"))
}

func TestIPv4Conversion(t *testing.T) {
	ip, ok := ParseIPv4ToUint32("1.2.3.4")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x01020304), ip)

	ip, ok = ParseIPv4ToUint32("223.255.0.1")
	assert.True(t, ok)
	assert.Equal(t, uint32(0xDFFF0001), ip)
	assert.Equal(t, "223.255.0.1", Uint32ToIPv4String(ip))

	_, ok = ParseIPv4ToUint32("::1")
	assert.False(t, ok)
	_, ok = ParseIPv4ToUint32("example.com")
	assert.False(t, ok)

	ip, ok = IPv4BytesToUint32([]byte{10, 0, 0, 1})
	assert.True(t, ok)
	assert.Equal(t, uint32(0x0A000001), ip)
	_, ok = IPv4BytesToUint32(make([]byte, 16))
	assert.False(t, ok)
}

func TestIPv4InRange(t *testing.T) {
	network, _ := ParseIPv4ToUint32("1.2.3.0")
	mask := uint32(0xFFFFFF00)

	in, _ := ParseIPv4ToUint32("1.2.3.200")
	out, _ := ParseIPv4ToUint32("1.2.4.1")
	assert.True(t, IPv4InRange(in, network, mask))
	assert.False(t, IPv4InRange(out, network, mask))
	assert.True(t, IPv4InRange(out, network, 0), "a zero mask covers every address")
}
