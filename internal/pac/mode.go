package pac

import (
	"fmt"
	"strings"

	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
)

// Mode 代理模式
type Mode int32

const (
	ModeNone       Mode = iota // 不代理
	ModeDomainList             // 按域名/IP 黑名单代理
	ModeGlobal                 // 全局代理
	ModeNonChina               // 非中国大陆 IPv4 地址才代理
)

// 模式文件中的文本标识
const (
	TagNone       = "no"
	TagDomainList = "pac"
	TagGlobal     = "global"
	TagNonChina   = "noncn"
)

// DefaultMode 模式文件缺失或无法识别时使用的模式
const DefaultMode = ModeDomainList

// IsValid 判断模式取值是否合法
func (m Mode) IsValid() bool {
	return m >= ModeNone && m <= ModeNonChina
}

// Tag 返回模式的文本标识，非法模式返回空串
func (m Mode) Tag() string {
	switch m {
	case ModeNone:
		return TagNone
	case ModeDomainList:
		return TagDomainList
	case ModeGlobal:
		return TagGlobal
	case ModeNonChina:
		return TagNonChina
	default:
		return ""
	}
}

// String 返回可读名称
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "NONE"
	case ModeDomainList:
		return "DOMAIN_LIST"
	case ModeGlobal:
		return "GLOBAL"
	case ModeNonChina:
		return "NON_CHINA"
	default:
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
}

// ModeFromTag 严格解析文本标识
func ModeFromTag(tag string) (Mode, error) {
	switch strings.TrimSpace(tag) {
	case TagNone:
		return ModeNone, nil
	case TagDomainList:
		return ModeDomainList, nil
	case TagGlobal:
		return ModeGlobal, nil
	case TagNonChina:
		return ModeNonChina, nil
	default:
		return 0, coreerrors.Newf(coreerrors.CodeInvalidParam,
			"unknown proxy mode %q, only '%s' / '%s' / '%s' / '%s'",
			tag, TagNone, TagDomainList, TagGlobal, TagNonChina)
	}
}

// ParseModeTag 解析持久化的模式标识，无法识别时告警并回退到 DefaultMode
func ParseModeTag(tag string, logger corelog.Logger) Mode {
	m, err := ModeFromTag(tag)
	if err != nil {
		if logger == nil {
			logger = corelog.Default()
		}
		logger.WithField(corelog.FieldMode, tag).
			Warnf("pac setting is not correct, only '%s' / '%s' / '%s' / '%s'",
				TagNone, TagDomainList, TagGlobal, TagNonChina)
		return DefaultMode
	}
	return m
}

// ModeFromInt 校验整数模式值
func ModeFromInt(v int) (Mode, error) {
	m := Mode(v)
	if v < int(ModeNone) || v > int(ModeNonChina) {
		return 0, coreerrors.Newf(coreerrors.CodeInvalidParam, "proxy mode %d is not correct", v)
	}
	return m, nil
}
