package pac

import (
	"bufio"
	"io"
	"sort"
	"strings"

	coreerrors "flyingsocks-core/internal/core/errors"
	"flyingsocks-core/internal/utils/netaddr"
)

// DomainRuleSet 需要代理的域名/IP 集合
//
// 域名按反转后的字符串存储，字面 IP 原样存储，整体有序以便做 floor 查询。
// 构建完成后只读，通过 Engine.ReplaceDomainRules 整体替换。
type DomainRuleSet struct {
	entries []string
}

// EmptyDomainRuleSet 空规则集
func EmptyDomainRuleSet() *DomainRuleSet {
	return &DomainRuleSet{}
}

// BuildDomainRuleSet 根据黑名单条目构建规则集，既非 IP 也非合法主机名的条目被忽略
func BuildDomainRuleSet(tokens []string) *DomainRuleSet {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		switch {
		case netaddr.IsIPAddress(token):
			set[token] = struct{}{}
		case netaddr.IsHostName(token):
			set[reverseHost(token)] = struct{}{}
		}
	}

	entries := make([]string, 0, len(set))
	for e := range set {
		entries = append(entries, e)
	}
	sort.Strings(entries)
	return &DomainRuleSet{entries: entries}
}

// ParseDomainRuleSet 从文本读取黑名单，条目之间以空白分隔
func ParseDomainRuleSet(r io.Reader) (*DomainRuleSet, error) {
	tokens, err := scanTokens(r)
	if err != nil {
		return nil, err
	}
	return BuildDomainRuleSet(tokens), nil
}

// Len 返回条目数
func (s *DomainRuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries 返回条目副本（已排序，域名为反转形式）
func (s *DomainRuleSet) Entries() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Contains 精确查询
func (s *DomainRuleSet) Contains(entry string) bool {
	if s == nil {
		return false
	}
	i := sort.SearchStrings(s.entries, entry)
	return i < len(s.entries) && s.entries[i] == entry
}

// Floor 返回不大于 key 的最大条目
func (s *DomainRuleSet) Floor(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	// 第一个大于 key 的位置
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i] > key })
	if i == 0 {
		return "", false
	}
	return s.entries[i-1], true
}

// MatchIP 字面 IP 只做精确匹配
func (s *DomainRuleSet) MatchIP(ip string) bool {
	return s.Contains(ip)
}

// MatchHost 判断主机名本身或其任一上级域名是否在集合中
//
// 先对反转后的主机名做 floor 查询，命中且在标签边界上即可返回；
// floor 条目落在两个上级域名之间时（如 a-example.com 排在 www.example.com 之前），
// 再逐级检查上级域名。
func (s *DomainRuleSet) MatchHost(host string) bool {
	if s.Len() == 0 {
		return false
	}
	rh := reverseHost(host)
	if rh == "" {
		return false
	}

	fl, ok := s.Floor(rh)
	if !ok {
		return false
	}
	if labelPrefix(rh, fl) {
		return true
	}

	for i := strings.LastIndexByte(rh, '.'); i > 0; i = strings.LastIndexByte(rh[:i], '.') {
		if s.Contains(rh[:i]) {
			return true
		}
	}
	return false
}

// labelPrefix 判断 prefix 是否为 rh 在标签边界上的前缀
func labelPrefix(rh, prefix string) bool {
	if !strings.HasPrefix(rh, prefix) {
		return false
	}
	return len(rh) == len(prefix) || rh[len(prefix)] == '.'
}

// reverseHost 统一小写并去掉结尾的点后反转
func reverseHost(host string) string {
	return netaddr.ReverseString(strings.ToLower(strings.TrimSuffix(host, ".")))
}

// scanTokens 按空白切分读取全部条目
func scanTokens(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	var tokens []string
	for sc.Scan() {
		tokens = append(tokens, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeStorageError, "failed to read rule tokens")
	}
	return tokens, nil
}
