// Package netaddr 提供主机名/IP 地址的分类与 IPv4 整数转换工具
package netaddr

import (
	"encoding/binary"
	"net/netip"
	"strconv"
	"strings"
)

const (
	maxHostNameLength  = 253
	maxHostLabelLength = 63
)

// IsPort 判断端口号是否合法（1-65535）
func IsPort(port int) bool {
	return port > 0 && port <= 65535
}

// IsIPAddress 判断是否为 IPv4 或 IPv6 字面地址
func IsIPAddress(host string) bool {
	return IsIPv4Address(host) || IsIPv6Address(host)
}

// IsIPv4Address 判断是否为点分十进制 IPv4 地址
func IsIPv4Address(host string) bool {
	addr, err := netip.ParseAddr(host)
	return err == nil && addr.Is4()
}

// IsIPv6Address 判断是否为 IPv6 字面地址（允许带方括号和 zone）
func IsIPv6Address(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	addr, err := netip.ParseAddr(host)
	return err == nil && (addr.Is6() || addr.Is4In6())
}

// IsHostName 判断是否为合法主机名（RFC 1123），IP 字面地址返回 false
func IsHostName(host string) bool {
	if host == "" || IsIPAddress(host) {
		return false
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" || len(host) > maxHostNameLength {
		return false
	}

	allNumeric := true
	for _, label := range strings.Split(host, ".") {
		if !isHostLabel(label) {
			return false
		}
		if _, err := strconv.Atoi(label); err != nil {
			allNumeric = false
		}
	}
	// 形如 1.2.3.999 的串既不是地址也不是主机名
	return !allNumeric
}

func isHostLabel(label string) bool {
	if len(label) == 0 || len(label) > maxHostLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// ReverseString 按字符（rune）反转字符串
func ReverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// ParseIPv4ToUint32 将点分十进制 IPv4 地址解析为 32 位无符号整数
func ParseIPv4ToUint32(s string) (uint32, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return 0, false
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), true
}

// IPv4BytesToUint32 将 4 字节网络序地址转换为整数，长度不为 4 时返回 false
func IPv4BytesToUint32(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

// Uint32ToIPv4String 将整数转换回点分十进制字符串
func Uint32ToIPv4String(ip uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], ip)
	return netip.AddrFrom4(b).String()
}

// IPv4InRange 判断 ip 是否落在 network/mask 描述的网段内
func IPv4InRange(ip, network, mask uint32) bool {
	return ip&mask == network&mask
}
