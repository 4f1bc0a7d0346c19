package pac

import (
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"flyingsocks-core/internal/utils/netaddr"
)

var cidrPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}/\d{1,2}$`)

// WhitelistEntry 白名单中的一个网段
type WhitelistEntry struct {
	Network uint32
	Mask    uint32
}

// String 返回 a.b.c.d/n 形式
func (e WhitelistEntry) String() string {
	return netaddr.Uint32ToIPv4String(e.Network) + "/" + strconv.Itoa(maskBits(e.Mask))
}

// Contains 判断地址是否落在网段内
func (e WhitelistEntry) Contains(ip uint32) bool {
	return netaddr.IPv4InRange(ip, e.Network, e.Mask)
}

// WhitelistTable 中国大陆 IPv4 网段表，按网络地址升序排列
//
// 构建完成后只读，通过 Engine.ReplaceWhitelist 整体替换。
type WhitelistTable struct {
	entries []WhitelistEntry
}

// EmptyWhitelistTable 空白名单
func EmptyWhitelistTable() *WhitelistTable {
	return &WhitelistTable{}
}

// BuildWhitelistTable 根据 a.b.c.d/n 形式的条目构建白名单
//
// 不符合格式、八位组大于 255 或前缀长度大于 32 的条目被忽略；
// 网络地址重复时以后出现的为准。
func BuildWhitelistTable(tokens []string) *WhitelistTable {
	byNetwork := make(map[uint32]uint32, len(tokens))
	for _, token := range tokens {
		entry, ok := parseCIDR(strings.TrimSpace(token))
		if !ok {
			continue
		}
		byNetwork[entry.Network] = entry.Mask
	}

	entries := make([]WhitelistEntry, 0, len(byNetwork))
	for network, mask := range byNetwork {
		entries = append(entries, WhitelistEntry{Network: network, Mask: mask})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Network < entries[j].Network })
	return &WhitelistTable{entries: entries}
}

// ParseWhitelistTable 从文本读取白名单，条目之间以空白分隔
func ParseWhitelistTable(r io.Reader) (*WhitelistTable, error) {
	tokens, err := scanTokens(r)
	if err != nil {
		return nil, err
	}
	return BuildWhitelistTable(tokens), nil
}

func parseCIDR(token string) (WhitelistEntry, bool) {
	if !cidrPattern.MatchString(token) {
		return WhitelistEntry{}, false
	}
	idx := strings.LastIndexByte(token, '/')
	network, ok := netaddr.ParseIPv4ToUint32(token[:idx])
	if !ok {
		return WhitelistEntry{}, false
	}
	bits, err := strconv.Atoi(token[idx+1:])
	if err != nil || bits > 32 {
		return WhitelistEntry{}, false
	}
	return WhitelistEntry{Network: network, Mask: prefixMask(bits)}, true
}

// prefixMask 0xFFFFFFFF 左移 (32 - bits) 位，bits 为 0 时掩码为 0
func prefixMask(bits int) uint32 {
	if bits <= 0 {
		return 0
	}
	return uint32(0xFFFFFFFF) << (32 - bits)
}

func maskBits(mask uint32) int {
	n := 0
	for mask&0x80000000 != 0 {
		n++
		mask <<= 1
	}
	return n
}

// Len 返回网段数
func (t *WhitelistTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries 返回网段副本
func (t *WhitelistTable) Entries() []WhitelistEntry {
	if t == nil {
		return nil
	}
	out := make([]WhitelistEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Floor 返回网络地址不大于 ip 的最大网段
func (t *WhitelistTable) Floor(ip uint32) (WhitelistEntry, bool) {
	if t == nil {
		return WhitelistEntry{}, false
	}
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Network > ip })
	if i == 0 {
		return WhitelistEntry{}, false
	}
	return t.entries[i-1], true
}

// Contains 判断地址是否属于白名单
func (t *WhitelistTable) Contains(ip uint32) bool {
	entry, ok := t.Floor(ip)
	return ok && entry.Contains(ip)
}
